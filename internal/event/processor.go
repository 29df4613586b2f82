// File path: internal/event/processor.go
package event

import (
	"sync"
	"time"

	"github.com/docflow-io/docflow/internal/common"
)

const (
	pollTimeout  = time.Second
	stopJoinWait = 5 * time.Second
)

// Handler processes one dequeued event. Handlers report failures through
// their own logging; the processor only guards against panics.
type Handler func(ev *WebhookEvent)

// Processor consumes the queue on a single goroutine and dispatches each
// event to the handler registered for its trigger. One consumer keeps
// per-file category history updates ordered without extra locking in the
// handlers.
type Processor struct {
	queue *Queue

	mu       sync.Mutex
	handlers map[string]Handler
	running  bool
	stop     chan struct{}
	done     chan struct{}
}

// NewProcessor creates a processor over q with no handlers registered.
func NewProcessor(q *Queue) *Processor {
	return &Processor{
		queue:    q,
		handlers: make(map[string]Handler),
	}
}

// RegisterHandler binds h to a trigger name, replacing any previous
// binding. Registration after Start is allowed.
func (p *Processor) RegisterHandler(trigger string, h Handler) {
	if trigger == "" || h == nil {
		return
	}
	p.mu.Lock()
	p.handlers[trigger] = h
	p.mu.Unlock()
}

// Start launches the consumer loop. Calling Start on a running processor
// is a no-op.
func (p *Processor) Start() {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	stop, done := p.stop, p.done
	p.mu.Unlock()

	common.Logger().Info("processor: started")
	go p.loop(stop, done)
}

// Stop signals the consumer loop and waits up to five seconds for it to
// finish the event in hand. A handler stuck past that bound is abandoned
// rather than blocking shutdown. Idempotent.
func (p *Processor) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	stop, done := p.stop, p.done
	p.mu.Unlock()

	close(stop)
	select {
	case <-done:
		common.Logger().Info("processor: stopped")
	case <-time.After(stopJoinWait):
		common.Logger().Warn("processor: stop timed out, abandoning worker")
	}
}

// Running reports whether the consumer loop is active.
func (p *Processor) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Processor) loop(stop, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-stop:
			return
		default:
		}
		ev, ok := p.queue.Get(pollTimeout)
		if !ok {
			continue
		}
		p.dispatch(ev)
		p.queue.TaskDone()
	}
}

func (p *Processor) dispatch(ev *WebhookEvent) {
	defer func() {
		if r := recover(); r != nil {
			common.Logger().Error("processor: handler panic recovered",
				"trigger", ev.Kind(), "file_id", ev.Source.ID, "panic", r)
		}
	}()

	kind := ev.Kind()
	p.mu.Lock()
	handler, found := p.handlers[kind]
	p.mu.Unlock()
	if !found {
		common.Logger().Debug("processor: no handler for trigger", "trigger", kind)
		return
	}
	handler(ev)
}
