package livetl

import (
	"context"
	"sync"
)

// EventType distinguishes busy signals.
type EventType int

const (
	// Started is emitted when the engine becomes busy.
	Started EventType = iota + 1
	// Ended is emitted when it becomes idle again.
	Ended
)

func (t EventType) String() string {
	switch t {
	case Started:
		return "started"
	case Ended:
		return "ended"
	default:
		return "unknown"
	}
}

// Event is a busy signal. Every Started is followed by exactly one Ended;
// queued re-runs stay inside the same Started/Ended pair.
type Event struct {
	Type   EventType
	Lang   string    // Target language of the latest Run
	RunID  string    // ID of the latest Run
	Err    error     // Ended only: failure of the last Run, if any
	Forced bool      // Ended only: the watchdog cleared a stuck Run
	Stats  *RunStats // Ended only: statistics of the last completed Run
}

// EventHandler receives busy signals on the scheduler goroutine. Handlers
// must return quickly and must not call back into the Engine.
type EventHandler func(Event)

// Handlers fans an event out to several handlers, in order.
func Handlers(handlers ...EventHandler) EventHandler {
	return func(ev Event) {
		for _, h := range handlers {
			if h != nil {
				h(ev)
			}
		}
	}
}

// BusyIndicator tracks the busy state from engine events.
type BusyIndicator struct {
	mu   sync.Mutex
	busy bool
	last Event
	idle chan struct{} // closed while not busy
}

// NewBusyIndicator creates an idle indicator.
func NewBusyIndicator() *BusyIndicator {
	idle := make(chan struct{})
	close(idle)
	return &BusyIndicator{idle: idle}
}

// Handle is an EventHandler.
func (b *BusyIndicator) Handle(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.last = ev
	switch ev.Type {
	case Started:
		if !b.busy {
			b.busy = true
			b.idle = make(chan struct{})
		}
	case Ended:
		if b.busy {
			b.busy = false
			close(b.idle)
		}
	}
}

// Busy reports whether a Started is outstanding.
func (b *BusyIndicator) Busy() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.busy
}

// Last returns the most recent event.
func (b *BusyIndicator) Last() Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last
}

// WaitIdle blocks until no Started is outstanding or ctx is done.
func (b *BusyIndicator) WaitIdle(ctx context.Context) error {
	b.mu.Lock()
	idle := b.idle
	b.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
