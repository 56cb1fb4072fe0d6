package execution

import (
	"alcyxob/therapy-app/internal/domain"
	"net/url"
	"strconv"
	"time"
)

// Query parameter names of the serialized execution state.
const (
	ParamInitialPain      = "initialPain"
	ParamIndex            = "index"
	ParamRemainingSeconds = "remainingSeconds"
	ParamPaused           = "paused"
	ParamPauseCount       = "pauseCount"
	ParamEffectiveSeconds = "effectiveSeconds"
	ParamSessionStart     = "sessionStartTime"
)

// TimeLayout is ISO-8601 in UTC with milliseconds.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Snapshot is the serializable execution state handed between screens.
type Snapshot struct {
	InitialPain      int
	Index            int
	RemainingSeconds int
	Paused           bool
	PauseCount       int
	EffectiveSeconds int
	SessionStart     time.Time
}

// Snapshot captures the machine state. A Finished machine cannot be resumed.
func (m *Machine) Snapshot() Snapshot {
	return Snapshot{
		InitialPain:      m.initialPain,
		Index:            m.index,
		RemainingSeconds: m.remaining,
		Paused:           m.state == Paused,
		PauseCount:       m.pauseCount,
		EffectiveSeconds: m.effective,
		SessionStart:     m.startedAt,
	}
}

// Encode writes the snapshot as URL query parameters.
func (s Snapshot) Encode() url.Values {
	v := url.Values{}
	v.Set(ParamInitialPain, strconv.Itoa(s.InitialPain))
	v.Set(ParamIndex, strconv.Itoa(s.Index))
	v.Set(ParamRemainingSeconds, strconv.Itoa(s.RemainingSeconds))
	v.Set(ParamPaused, strconv.FormatBool(s.Paused))
	v.Set(ParamPauseCount, strconv.Itoa(s.PauseCount))
	v.Set(ParamEffectiveSeconds, strconv.Itoa(s.EffectiveSeconds))
	v.Set(ParamSessionStart, s.SessionStart.UTC().Format(TimeLayout))
	return v
}

// ParseInitialPain reads the initial pain parameter. Missing or malformed
// values are fatal: the caller must send the patient back to pain selection.
func ParseInitialPain(v url.Values) (*int, error) {
	raw := v.Get(ParamInitialPain)
	if raw == "" {
		return nil, ErrMissingInitialPain
	}
	pain, err := strconv.Atoi(raw)
	if err != nil || !domain.ValidPainLevel(pain) {
		return nil, ErrInvalidPain
	}
	return &pain, nil
}

// Restore rebuilds a machine from query parameters.
//
// All resumable fields are restored together or not at all: if any is missing
// or invalid the machine starts fresh (Idle, counters zeroed, full countdown)
// at the given index. An invalid index starts fresh at the first posture.
func Restore(steps []domain.SeriesStep, v url.Values, opts ...Option) (*Machine, error) {
	pain, err := ParseInitialPain(v)
	if err != nil {
		return nil, err
	}
	m, err := NewMachine(steps, pain, opts...)
	if err != nil {
		return nil, err
	}

	index, ok := intParam(v, ParamIndex)
	if !ok || index >= len(steps) {
		return m, nil
	}
	m.index = index
	m.remaining = m.fullDuration(index)

	remaining, okRemaining := intParam(v, ParamRemainingSeconds)
	pauses, okPauses := intParam(v, ParamPauseCount)
	effective, okEffective := intParam(v, ParamEffectiveSeconds)
	paused, errPaused := strconv.ParseBool(v.Get(ParamPaused))
	start, errStart := time.Parse(time.RFC3339Nano, v.Get(ParamSessionStart))

	if !okRemaining || !okPauses || !okEffective || errPaused != nil || errStart != nil ||
		remaining > m.fullDuration(index) {
		return m, nil
	}

	m.remaining = remaining
	m.pauseCount = pauses
	m.effective = effective
	m.startedAt = start.UTC()
	if paused {
		m.state = Paused
	} else {
		m.state = Running
	}
	return m, nil
}

// intParam parses a non-negative integer parameter.
func intParam(v url.Values, key string) (int, bool) {
	raw := v.Get(key)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
