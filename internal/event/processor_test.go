// File path: internal/event/processor_test.go
package event

import (
	"sync"
	"testing"
	"time"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}

func TestProcessorDispatchesByTrigger(t *testing.T) {
	q := NewQueue(4, t.TempDir())
	p := NewProcessor(q)

	var mu sync.Mutex
	var seen []string
	p.RegisterHandler(TriggerFileUploaded, func(ev *WebhookEvent) {
		mu.Lock()
		seen = append(seen, ev.Source.ID)
		mu.Unlock()
	})
	p.Start()
	defer p.Stop()

	q.Put(&WebhookEvent{Trigger: TriggerFileUploaded, Source: Source{ID: "f1"}})
	q.Put(&WebhookEvent{EventType: TriggerFileUploaded, Source: Source{ID: "f2"}})

	waitFor(t, 3*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 2
	})
	mu.Lock()
	defer mu.Unlock()
	if seen[0] != "f1" || seen[1] != "f2" {
		t.Fatalf("unexpected dispatch order: %v", seen)
	}
}

func TestProcessorIgnoresUnknownTrigger(t *testing.T) {
	q := NewQueue(4, t.TempDir())
	p := NewProcessor(q)
	p.Start()
	defer p.Stop()

	q.Put(&WebhookEvent{Trigger: "FILE.DELETED", Source: Source{ID: "f1"}})
	waitFor(t, 3*time.Second, q.IsEmpty)
}

func TestProcessorSurvivesHandlerPanic(t *testing.T) {
	q := NewQueue(4, t.TempDir())
	p := NewProcessor(q)

	var mu sync.Mutex
	processed := 0
	p.RegisterHandler(TriggerFileUploaded, func(ev *WebhookEvent) {
		mu.Lock()
		processed++
		mu.Unlock()
		if ev.Source.ID == "boom" {
			panic("handler failure")
		}
	})
	p.Start()
	defer p.Stop()

	q.Put(&WebhookEvent{Trigger: TriggerFileUploaded, Source: Source{ID: "boom"}})
	q.Put(&WebhookEvent{Trigger: TriggerFileUploaded, Source: Source{ID: "ok"}})

	waitFor(t, 3*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return processed == 2
	})
	waitFor(t, time.Second, q.IsEmpty)
}

func TestProcessorStartStopIdempotent(t *testing.T) {
	q := NewQueue(1, t.TempDir())
	p := NewProcessor(q)
	p.Start()
	p.Start()
	if !p.Running() {
		t.Fatalf("expected processor running")
	}
	p.Stop()
	p.Stop()
	if p.Running() {
		t.Fatalf("expected processor stopped")
	}
}
