// File path: internal/event/schema.go
package event

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// eventSchema constrains inbound notification payloads before they reach
// the queue. It is deliberately loose about extra fields: senders add
// envelope metadata freely, and rejecting unknown keys would break every
// vendor upgrade.
const eventSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "trigger": {"type": "string", "minLength": 1},
    "event_type": {"type": "string", "minLength": 1},
    "webhook_id": {"type": "string"},
    "source": {
      "type": "object",
      "properties": {
        "id": {"type": "string", "minLength": 1},
        "name": {"type": "string"},
        "type": {"type": "string"},
        "parent": {
          "type": "object",
          "properties": {
            "id": {"type": "string"},
            "name": {"type": "string"}
          }
        }
      },
      "required": ["id"]
    }
  },
  "anyOf": [
    {"required": ["trigger"]},
    {"required": ["event_type"]}
  ],
  "required": ["source"]
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func loadSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(eventSchema))
		if err != nil {
			schemaErr = fmt.Errorf("event: parse schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("event.json", doc); err != nil {
			schemaErr = fmt.Errorf("event: add schema resource: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile("event.json")
	})
	return compiledSchema, schemaErr
}

// ValidatePayload checks a raw notification body against the event schema.
// A nil return means the payload is structurally sound enough to enqueue.
func ValidatePayload(body []byte) error {
	schema, err := loadSchema()
	if err != nil {
		return err
	}
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("event: decode payload: %w", err)
	}
	if err := schema.Validate(instance); err != nil {
		return fmt.Errorf("event: payload rejected: %w", err)
	}
	return nil
}

// ParsePayload validates body and decodes it into a WebhookEvent.
func ParsePayload(body []byte) (*WebhookEvent, error) {
	if err := ValidatePayload(body); err != nil {
		return nil, err
	}
	var ev WebhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("event: decode payload: %w", err)
	}
	return &ev, nil
}
