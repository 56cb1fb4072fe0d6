package execution

import (
	"context"
	"sync"
	"time"
)

// Event reports the machine state after a tick or a command.
type Event struct {
	Action           Action
	State            State
	Index            int
	RemainingSeconds int
	PauseCount       int
	EffectiveSeconds int
}

// Runner drives a Machine in real time: one Tick per interval while Running.
// Command methods are safe to call from other goroutines while Run is active.
type Runner struct {
	mu       sync.Mutex
	m        *Machine
	interval time.Duration
	events   chan Event
	closed   bool
	done     chan struct{}
}

func NewRunner(m *Machine, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = time.Second
	}
	return &Runner{
		m:        m,
		interval: interval,
		events:   make(chan Event, 64),
		done:     make(chan struct{}),
	}
}

// Events is closed when Run returns. Events are dropped when the buffer is full.
func (r *Runner) Events() <-chan Event {
	return r.events
}

// Done is closed when Run returns.
func (r *Runner) Done() <-chan struct{} {
	return r.done
}

// Run starts an Idle machine and ticks it until it finishes or ctx is done.
// It returns nil on finish and ctx.Err() on cancellation.
func (r *Runner) Run(ctx context.Context) error {
	defer func() {
		r.mu.Lock()
		r.closed = true
		close(r.events)
		r.mu.Unlock()
		close(r.done)
	}()

	r.mu.Lock()
	if r.m.Start() {
		r.emit(ActionStart)
	}
	finished := r.m.State() == Finished
	r.mu.Unlock()
	if finished {
		return nil
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.mu.Lock()
			if r.m.Tick() {
				r.emit(ActionTick)
			}
			finished := r.m.State() == Finished
			r.mu.Unlock()
			if finished {
				return nil
			}
		}
	}
}

// emit must be called with r.mu held.
func (r *Runner) emit(a Action) {
	if r.closed {
		return
	}
	ev := Event{
		Action:           a,
		State:            r.m.State(),
		Index:            r.m.Index(),
		RemainingSeconds: r.m.RemainingSeconds(),
		PauseCount:       r.m.PauseCount(),
		EffectiveSeconds: r.m.EffectiveSeconds(),
	}
	select {
	case r.events <- ev:
	default:
	}
}

// Do applies a command. Ticks are driven by Run only.
func (r *Runner) Do(a Action) (bool, error) {
	if a == ActionTick {
		return false, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	applied, err := Apply(r.m, a, 0)
	if applied {
		r.emit(a)
	}
	return applied, err
}

func (r *Runner) Pause() bool {
	ok, _ := r.Do(ActionPause)
	return ok
}

func (r *Runner) Resume() bool {
	ok, _ := r.Do(ActionResume)
	return ok
}

func (r *Runner) Next() bool {
	ok, _ := r.Do(ActionNext)
	return ok
}

func (r *Runner) Previous() bool {
	ok, _ := r.Do(ActionPrevious)
	return ok
}

func (r *Runner) Restart() bool {
	ok, _ := r.Do(ActionRestart)
	return ok
}

// Snapshot returns the current resumable state.
func (r *Runner) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.m.Snapshot()
}

func (r *Runner) Completion() (Completion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.m.Completion()
}
