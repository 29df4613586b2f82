// File path: internal/event/schema_test.go
package event

import "testing"

func TestParsePayloadValid(t *testing.T) {
	body := []byte(`{"trigger":"FILE.UPLOADED","source":{"id":"123","name":"invoice.pdf","parent":{"id":"7"}}}`)
	ev, err := ParsePayload(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Kind() != TriggerFileUploaded {
		t.Fatalf("unexpected kind %q", ev.Kind())
	}
	if ev.Source.Name != "invoice.pdf" || ev.Source.Parent.ID != "7" {
		t.Fatalf("unexpected source: %+v", ev.Source)
	}
}

func TestParsePayloadLegacyEventType(t *testing.T) {
	body := []byte(`{"event_type":"FILE.MOVED","source":{"id":"123"}}`)
	ev, err := ParsePayload(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Kind() != TriggerFileMoved {
		t.Fatalf("expected event_type fallback, got %q", ev.Kind())
	}
}

func TestParsePayloadRejected(t *testing.T) {
	cases := map[string]string{
		"missing source":    `{"trigger":"FILE.UPLOADED"}`,
		"missing trigger":   `{"source":{"id":"123"}}`,
		"empty source id":   `{"trigger":"FILE.UPLOADED","source":{"id":""}}`,
		"source not object": `{"trigger":"FILE.UPLOADED","source":"123"}`,
	}
	for name, body := range cases {
		if _, err := ParsePayload([]byte(body)); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestParsePayloadAllowsExtraFields(t *testing.T) {
	body := []byte(`{"trigger":"FILE.COPIED","source":{"id":"9"},"webhook":{"id":"w1"},"created_by":{"login":"x"}}`)
	if _, err := ParsePayload(body); err != nil {
		t.Fatalf("extra fields should pass validation: %v", err)
	}
}
