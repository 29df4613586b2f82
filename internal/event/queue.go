// File path: internal/event/queue.go
package event

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/docflow-io/docflow/internal/common"
)

const queueFileName = "queue.json"

// Queue is a bounded FIFO between the ingestion endpoint and the single
// processor goroutine. Producers never block: a full queue drops the event
// with a warning rather than stalling the HTTP path. On Shutdown any
// undelivered events are drained to disk and re-enqueued by the next
// constructor call.
type Queue struct {
	ch       chan *WebhookEvent
	dir      string
	capacity int

	// mu orders producers against Shutdown: Put sends while holding the
	// read lock, Shutdown closes the channel under the write lock, so no
	// send can land on a closed channel.
	mu       sync.RWMutex
	inFlight int
	closed   bool
}

// NewQueue creates a queue holding at most capacity events, restoring any
// events drained to dir by a previous Shutdown. The drain file is deleted
// after a successful restore.
func NewQueue(capacity int, dir string) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	q := &Queue{
		ch:       make(chan *WebhookEvent, capacity),
		dir:      dir,
		capacity: capacity,
	}
	q.restore()
	return q
}

// Put enqueues ev without blocking, stamping ReceivedAt when unset. It
// returns false when the queue is full or shut down; the event is dropped.
func (q *Queue) Put(ev *WebhookEvent) bool {
	if ev == nil {
		return false
	}
	if ev.ReceivedAt.IsZero() {
		ev.ReceivedAt = time.Now().UTC()
	}
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		common.Logger().Warn("queue: rejected event after shutdown", "trigger", ev.Kind())
		return false
	}

	select {
	case q.ch <- ev:
		return true
	default:
		common.Logger().Warn("queue: full, dropping event",
			"trigger", ev.Kind(), "file_id", ev.Source.ID, "capacity", q.capacity)
		return false
	}
}

// Get waits up to timeout for the next event. The second return is false
// on timeout or after Shutdown has drained the channel.
func (q *Queue) Get(timeout time.Duration) (*WebhookEvent, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case ev, ok := <-q.ch:
		if !ok || ev == nil {
			return nil, false
		}
		q.mu.Lock()
		q.inFlight++
		q.mu.Unlock()
		return ev, true
	case <-timer.C:
		return nil, false
	}
}

// TaskDone marks one previously fetched event as fully processed.
func (q *Queue) TaskDone() {
	q.mu.Lock()
	if q.inFlight > 0 {
		q.inFlight--
	}
	q.mu.Unlock()
}

// Size returns the number of queued plus in-flight events.
func (q *Queue) Size() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.ch) + q.inFlight
}

// IsEmpty reports whether no events are queued or in flight.
func (q *Queue) IsEmpty() bool {
	return q.Size() == 0
}

// Capacity returns the maximum number of buffered events.
func (q *Queue) Capacity() int {
	return q.capacity
}

// Shutdown stops accepting events and persists whatever remains in the
// buffer so a restart can pick it up. Safe to call once.
func (q *Queue) Shutdown() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	// Closing under the write lock: any in-flight Put either finished its
	// send before we acquired the lock or will observe closed afterwards.
	close(q.ch)
	q.mu.Unlock()

	var remaining []*WebhookEvent
	for ev := range q.ch {
		remaining = append(remaining, ev)
	}
	if len(remaining) == 0 {
		return
	}
	if err := q.persist(remaining); err != nil {
		common.Logger().Error("queue: drain failed", "error", err, "events", len(remaining))
		return
	}
	common.Logger().Info("queue: drained events to disk", "events", len(remaining))
}

func (q *Queue) drainPath() string {
	return filepath.Join(q.dir, queueFileName)
}

func (q *Queue) persist(events []*WebhookEvent) error {
	if q.dir == "" {
		return fmt.Errorf("no data directory configured")
	}
	if err := os.MkdirAll(q.dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal drained events: %w", err)
	}
	path := q.drainPath()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write drain file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace drain file: %w", err)
	}
	return nil
}

func (q *Queue) restore() {
	if q.dir == "" {
		return
	}
	path := q.drainPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			common.Logger().Warn("queue: read drain file failed", "error", err)
		}
		return
	}
	var events []*WebhookEvent
	if err := json.Unmarshal(data, &events); err != nil {
		common.Logger().Warn("queue: corrupt drain file ignored", "error", err)
		_ = os.Remove(path)
		return
	}
	restored := 0
restore:
	for _, ev := range events {
		if ev == nil {
			continue
		}
		select {
		case q.ch <- ev:
			restored++
		default:
			common.Logger().Warn("queue: drained backlog exceeds capacity, dropping remainder",
				"dropped", len(events)-restored)
			break restore
		}
	}
	if err := os.Remove(path); err != nil {
		common.Logger().Warn("queue: remove drain file failed", "error", err)
	}
	if restored > 0 {
		common.Logger().Info("queue: restored events from disk", "events", restored)
	}
}
