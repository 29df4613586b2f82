// File path: internal/event/queue_test.go
package event

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestQueuePutGet(t *testing.T) {
	q := NewQueue(4, t.TempDir())
	ev := &WebhookEvent{Trigger: TriggerFileUploaded, Source: Source{ID: "f1", Name: "invoice.pdf"}}
	if !q.Put(ev) {
		t.Fatalf("expected Put to succeed")
	}
	got, ok := q.Get(time.Second)
	if !ok {
		t.Fatalf("expected Get to return an event")
	}
	if got.Source.ID != "f1" {
		t.Fatalf("unexpected event: %+v", got)
	}
	if got.ReceivedAt.IsZero() {
		t.Fatalf("expected ReceivedAt to be stamped")
	}
	if q.Size() != 1 {
		t.Fatalf("expected in-flight event counted, size=%d", q.Size())
	}
	q.TaskDone()
	if !q.IsEmpty() {
		t.Fatalf("expected empty queue after TaskDone")
	}
}

func TestQueueDropsWhenFull(t *testing.T) {
	q := NewQueue(1, t.TempDir())
	if !q.Put(&WebhookEvent{Trigger: TriggerFileUploaded, Source: Source{ID: "a"}}) {
		t.Fatalf("first Put should succeed")
	}
	if q.Put(&WebhookEvent{Trigger: TriggerFileUploaded, Source: Source{ID: "b"}}) {
		t.Fatalf("second Put should drop on full queue")
	}
	if q.Size() != 1 {
		t.Fatalf("expected size 1, got %d", q.Size())
	}
}

func TestQueueGetTimeout(t *testing.T) {
	q := NewQueue(1, t.TempDir())
	start := time.Now()
	if _, ok := q.Get(50 * time.Millisecond); ok {
		t.Fatalf("expected timeout on empty queue")
	}
	if time.Since(start) < 50*time.Millisecond {
		t.Fatalf("Get returned before timeout elapsed")
	}
}

func TestQueueShutdownPersistsAndRestores(t *testing.T) {
	dir := t.TempDir()
	q := NewQueue(4, dir)
	q.Put(&WebhookEvent{Trigger: TriggerFileUploaded, Source: Source{ID: "f1"}})
	q.Put(&WebhookEvent{Trigger: TriggerFileCopied, Source: Source{ID: "f2"}})
	q.Shutdown()

	if _, err := os.Stat(filepath.Join(dir, "queue.json")); err != nil {
		t.Fatalf("expected drain file after shutdown: %v", err)
	}

	restored := NewQueue(4, dir)
	if restored.Size() != 2 {
		t.Fatalf("expected 2 restored events, got %d", restored.Size())
	}
	first, ok := restored.Get(time.Second)
	if !ok || first.Source.ID != "f1" {
		t.Fatalf("expected f1 first, got %+v ok=%v", first, ok)
	}
	if _, err := os.Stat(filepath.Join(dir, "queue.json")); !os.IsNotExist(err) {
		t.Fatalf("expected drain file removed after restore")
	}
}

func TestQueueRestoreClampsToCapacity(t *testing.T) {
	dir := t.TempDir()
	q := NewQueue(5, dir)
	for i := 0; i < 5; i++ {
		q.Put(&WebhookEvent{Trigger: TriggerFileUploaded, Source: Source{ID: string(rune('a' + i))}})
	}
	q.Shutdown()

	small := NewQueue(2, dir)
	if small.Size() != 2 {
		t.Fatalf("expected restore clamped to capacity 2, got %d", small.Size())
	}
}

func TestQueueConcurrentPutDuringShutdown(t *testing.T) {
	for round := 0; round < 50; round++ {
		q := NewQueue(4, t.TempDir())
		var wg sync.WaitGroup
		start := make(chan struct{})
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				for j := 0; j < 100; j++ {
					q.Put(&WebhookEvent{Trigger: TriggerFileUploaded, Source: Source{ID: "x"}})
				}
			}()
		}
		close(start)
		q.Shutdown()
		wg.Wait()
		if q.Put(&WebhookEvent{Trigger: TriggerFileUploaded, Source: Source{ID: "late"}}) {
			t.Fatalf("Put must fail once shutdown has begun")
		}
	}
}

func TestQueueRejectsAfterShutdown(t *testing.T) {
	q := NewQueue(2, t.TempDir())
	q.Shutdown()
	if q.Put(&WebhookEvent{Trigger: TriggerFileUploaded, Source: Source{ID: "x"}}) {
		t.Fatalf("expected Put to fail after shutdown")
	}
}
