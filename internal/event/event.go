// File path: internal/event/event.go
package event

import "time"

// Well-known content-service triggers. All three dispatch to the
// categorization handler; they differ only in how the file arrived.
const (
	TriggerFileUploaded = "FILE.UPLOADED"
	TriggerFileCopied   = "FILE.COPIED"
	TriggerFileMoved    = "FILE.MOVED"
)

// Source identifies the object a webhook notification refers to.
type Source struct {
	ID     string  `json:"id"`
	Name   string  `json:"name,omitempty"`
	Type   string  `json:"type,omitempty"`
	Parent *Parent `json:"parent,omitempty"`
}

// Parent is the enclosing folder of a source object.
type Parent struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// WebhookEvent is a verified inbound notification. Older senders put the
// trigger under "event_type"; Kind() papers over the difference.
type WebhookEvent struct {
	ID         string    `json:"id,omitempty"`
	Trigger    string    `json:"trigger,omitempty"`
	EventType  string    `json:"event_type,omitempty"`
	Source     Source    `json:"source"`
	WebhookID  string    `json:"webhook_id,omitempty"`
	ReceivedAt time.Time `json:"received_at,omitempty"`
}

// Kind returns the trigger name, falling back to the legacy event_type
// field when trigger is absent.
func (e *WebhookEvent) Kind() string {
	if e.Trigger != "" {
		return e.Trigger
	}
	return e.EventType
}
