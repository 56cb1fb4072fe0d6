// Package execution runs one exercise session through a series' postures:
// a per-posture countdown, pause accounting and cumulative effective time.
package execution

import (
	"alcyxob/therapy-app/internal/domain"
	"errors"
	"time"
)

var (
	ErrMissingInitialPain = errors.New("initial pain is required before starting a session")
	ErrInvalidPain        = errors.New("initial pain must be between 0 and 4")
	ErrEmptySeries        = errors.New("no series assigned or the series is empty")
	ErrNotFinished        = errors.New("session is not finished")
)

type State int

const (
	Idle State = iota
	Running
	Paused
	Finished
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

// Machine is the session timer. It is not safe for concurrent use; Runner
// serializes access for real-time driving.
type Machine struct {
	steps       []domain.SeriesStep
	initialPain int
	now         func() time.Time

	state      State
	index      int
	remaining  int // seconds left in the current posture
	pauseCount int
	effective  int // seconds spent Running
	startedAt  time.Time
	finishedAt time.Time
}

type Option func(*Machine)

// WithClock sets the time source for the session start and end timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// NewMachine builds an Idle machine at the first posture. initialPain must be
// present and within 0..4.
func NewMachine(steps []domain.SeriesStep, initialPain *int, opts ...Option) (*Machine, error) {
	if initialPain == nil {
		return nil, ErrMissingInitialPain
	}
	if !domain.ValidPainLevel(*initialPain) {
		return nil, ErrInvalidPain
	}
	if len(steps) == 0 {
		return nil, ErrEmptySeries
	}
	m := &Machine{
		steps:       append([]domain.SeriesStep(nil), steps...),
		initialPain: *initialPain,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.startedAt = m.now().UTC()
	m.remaining = m.fullDuration(0)
	return m, nil
}

func (m *Machine) fullDuration(i int) int {
	d := m.steps[i].DurationMinutes * 60
	if d < 0 {
		return 0
	}
	return d
}

// Start moves Idle to Running at the current posture.
func (m *Machine) Start() bool {
	if m.state != Idle {
		return false
	}
	m.state = Running
	return true
}

// Pause freezes both counters and counts the pause.
func (m *Machine) Pause() bool {
	if m.state != Running {
		return false
	}
	m.state = Paused
	m.pauseCount++
	return true
}

func (m *Machine) Resume() bool {
	if m.state != Paused {
		return false
	}
	m.state = Running
	return true
}

// Tick advances one second of Running time. When the countdown reaches zero
// the machine moves to the next posture, or finishes after the last one.
// A zero-length posture is skipped on its first tick without counting time.
func (m *Machine) Tick() bool {
	if m.state != Running {
		return false
	}
	if m.remaining > 0 {
		m.remaining--
		m.effective++
	}
	if m.remaining == 0 {
		m.advance()
	}
	return true
}

// Next skips the rest of the current posture.
func (m *Machine) Next() bool {
	if m.state == Finished {
		return false
	}
	m.advance()
	return true
}

// Previous goes back one posture. No-op at the first posture.
func (m *Machine) Previous() bool {
	if m.state == Finished || m.index == 0 {
		return false
	}
	m.index--
	m.remaining = m.fullDuration(m.index)
	m.state = Running
	return true
}

// RestartPosture resets the current countdown only; counters are kept.
func (m *Machine) RestartPosture() bool {
	if m.state == Finished {
		return false
	}
	m.remaining = m.fullDuration(m.index)
	m.state = Running
	return true
}

func (m *Machine) advance() {
	if m.index+1 >= len(m.steps) {
		m.state = Finished
		m.remaining = 0
		m.finishedAt = m.now().UTC()
		return
	}
	m.index++
	m.remaining = m.fullDuration(m.index)
	m.state = Running
}

func (m *Machine) State() State { return m.state }
func (m *Machine) Index() int { return m.index }
func (m *Machine) RemainingSeconds() int { return m.remaining }
func (m *Machine) PauseCount() int { return m.pauseCount }
func (m *Machine) EffectiveSeconds() int { return m.effective }
func (m *Machine) InitialPain() int { return m.initialPain }
func (m *Machine) SessionStart() time.Time { return m.startedAt }
func (m *Machine) Len() int { return len(m.steps) }
func (m *Machine) IsLast() bool { return m.index == len(m.steps)-1 }
func (m *Machine) Current() domain.SeriesStep { return m.steps[m.index] }
