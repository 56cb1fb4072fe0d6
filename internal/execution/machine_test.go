package execution

import (
	"math/rand"
	"testing"
	"time"

	"alcyxob/therapy-app/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func pain(v int) *int { return &v }

func steps(minutes ...int) []domain.SeriesStep {
	out := make([]domain.SeriesStep, len(minutes))
	for i, m := range minutes {
		out[i] = domain.SeriesStep{PostureID: string(rune('a' + i)), DurationMinutes: m}
	}
	return out
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func tickN(m *Machine, n int) {
	for i := 0; i < n; i++ {
		m.Tick()
	}
}

func TestNewMachine_Preconditions(t *testing.T) {
	_, err := NewMachine(steps(1), nil)
	assert.ErrorIs(t, err, ErrMissingInitialPain)
	_, err = NewMachine(steps(1), pain(5))
	assert.ErrorIs(t, err, ErrInvalidPain)
	_, err = NewMachine(steps(1), pain(-1))
	assert.ErrorIs(t, err, ErrInvalidPain)
	_, err = NewMachine(nil, pain(2))
	assert.ErrorIs(t, err, ErrEmptySeries)

	m, err := NewMachine(steps(2, 1), pain(0))
	require.NoError(t, err)
	assert.Equal(t, Idle, m.State())
	assert.Equal(t, 120, m.RemainingSeconds())
}

func TestMachine_IdleIgnoresTicks(t *testing.T) {
	m, err := NewMachine(steps(1), pain(2))
	require.NoError(t, err)
	assert.False(t, m.Tick())
	assert.False(t, m.Pause())
	assert.Equal(t, 60, m.RemainingSeconds())
	assert.True(t, m.Start())
	assert.False(t, m.Start())
	assert.Equal(t, Running, m.State())
}

func TestMachine_AutoAdvanceAndFinish(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)}
	m, err := NewMachine(steps(1, 2), pain(2), WithClock(clock.now))
	require.NoError(t, err)
	m.Start()

	tickN(m, 59)
	assert.Equal(t, 0, m.Index())
	assert.Equal(t, 1, m.RemainingSeconds())
	m.Tick()
	assert.Equal(t, 1, m.Index())
	assert.Equal(t, Running, m.State())
	assert.Equal(t, 120, m.RemainingSeconds())

	clock.t = clock.t.Add(3 * time.Minute)
	tickN(m, 120)
	assert.Equal(t, Finished, m.State())
	assert.Equal(t, 180, m.EffectiveSeconds())

	c, err := m.Completion()
	require.NoError(t, err)
	assert.Equal(t, 2, c.InitialPain)
	assert.Equal(t, 3, c.EffectiveActiveMinutes)
	assert.Equal(t, time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC), c.SessionStartTime)
	assert.Equal(t, time.Date(2024, 1, 1, 8, 3, 0, 0, time.UTC), c.SessionEndTime)

	// Terminal
	assert.False(t, m.Tick())
	assert.False(t, m.Next())
	assert.False(t, m.Previous())
	assert.False(t, m.RestartPosture())
}

func TestMachine_ZeroDurationLastPostureFinishesOnExpiry(t *testing.T) {
	m, err := NewMachine(steps(0), pain(1))
	require.NoError(t, err)
	m.Start()
	m.Tick()
	assert.Equal(t, Finished, m.State())
	assert.Equal(t, 0, m.EffectiveSeconds())

	_, err = m.Completion()
	assert.NoError(t, err)
}

func TestMachine_ZeroDurationInTheMiddleIsSkipped(t *testing.T) {
	m, err := NewMachine(steps(1, 0, 1), pain(1))
	require.NoError(t, err)
	m.Start()
	tickN(m, 60)
	assert.Equal(t, 1, m.Index())
	m.Tick()
	assert.Equal(t, 2, m.Index())
	assert.Equal(t, 60, m.EffectiveSeconds())
}

func TestMachine_CompletionBeforeFinish(t *testing.T) {
	m, err := NewMachine(steps(1), pain(1))
	require.NoError(t, err)
	_, err = m.Completion()
	assert.ErrorIs(t, err, ErrNotFinished)
}

func TestMachine_PauseFreezesCounters(t *testing.T) {
	m, err := NewMachine(steps(5), pain(3))
	require.NoError(t, err)
	m.Start()
	tickN(m, 10)

	require.True(t, m.Pause())
	assert.False(t, m.Pause())
	assert.False(t, m.Tick())
	tickN(m, 30)
	assert.Equal(t, 10, m.EffectiveSeconds())
	assert.Equal(t, 290, m.RemainingSeconds())

	require.True(t, m.Resume())
	assert.False(t, m.Resume())
	m.Tick()
	assert.Equal(t, 11, m.EffectiveSeconds())
	assert.Equal(t, 1, m.PauseCount())
}

func TestMachine_PreviousAndRestart(t *testing.T) {
	m, err := NewMachine(steps(1, 2, 3), pain(2))
	require.NoError(t, err)

	assert.False(t, m.Previous(), "no-op at the first posture")
	m.Start()
	tickN(m, 20)
	require.True(t, m.RestartPosture())
	assert.Equal(t, 60, m.RemainingSeconds())
	assert.Equal(t, 20, m.EffectiveSeconds())

	m.Next()
	m.Next()
	assert.Equal(t, 2, m.Index())
	m.Pause()
	require.True(t, m.Previous())
	assert.Equal(t, Running, m.State())
	assert.Equal(t, 1, m.Index())
	assert.Equal(t, 120, m.RemainingSeconds())
	assert.Equal(t, 1, m.PauseCount())

	m.Pause()
	require.True(t, m.RestartPosture())
	assert.Equal(t, Running, m.State())
	assert.Equal(t, 2, m.PauseCount())

	m.Next()
	m.Next()
	assert.Equal(t, Finished, m.State())
	assert.Equal(t, 20, m.EffectiveSeconds())
}

func TestMachine_RandomizedPauseDiscipline(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for run := 0; run < 50; run++ {
		m, err := NewMachine(steps(1, 1, 1), pain(2))
		require.NoError(t, err)
		m.Start()

		transitions := 0
		for i := 0; i < 400 && m.State() != Finished; i++ {
			before := m.EffectiveSeconds()
			state := m.State()
			switch rng.Intn(4) {
			case 0:
				if m.Pause() {
					transitions++
				}
			case 1:
				m.Resume()
			default:
				m.Tick()
				switch state {
				case Paused:
					assert.Equal(t, before, m.EffectiveSeconds(), "effective time moved while paused")
				case Running:
					assert.Equal(t, before+1, m.EffectiveSeconds())
				}
			}
			assert.GreaterOrEqual(t, m.EffectiveSeconds(), before)
		}
		assert.Equal(t, transitions, m.PauseCount())
	}
}

func TestEffectiveMinutes(t *testing.T) {
	for secs, want := range map[int]int{0: 0, 29: 0, 30: 1, 89: 1, 90: 2, 180: 3, 209: 3, 210: 4} {
		assert.Equal(t, want, EffectiveMinutes(secs), "seconds=%d", secs)
	}
}

func TestApply(t *testing.T) {
	m, err := NewMachine(steps(1, 1), pain(2))
	require.NoError(t, err)

	_, err = Apply(m, "jump", 0)
	assert.Error(t, err)

	ok, err := Apply(m, ActionStart, 0)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = Apply(m, ActionTick, 500)
	require.NoError(t, err)
	assert.Equal(t, Finished, m.State())
	assert.Equal(t, 120, m.EffectiveSeconds())
}
