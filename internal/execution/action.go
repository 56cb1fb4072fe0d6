package execution

import "fmt"

// Action is a user command applied to the machine.
type Action string

const (
	ActionStart    Action = "start"
	ActionPause    Action = "pause"
	ActionResume   Action = "resume"
	ActionNext     Action = "next"
	ActionPrevious Action = "previous"
	ActionRestart  Action = "restart"
	ActionTick     Action = "tick"
)

// Apply runs the action. For ActionTick, seconds is the number of elapsed
// seconds to apply; ticking stops early once the session finishes.
func Apply(m *Machine, action Action, seconds int) (bool, error) {
	switch action {
	case ActionStart:
		return m.Start(), nil
	case ActionPause:
		return m.Pause(), nil
	case ActionResume:
		return m.Resume(), nil
	case ActionNext:
		return m.Next(), nil
	case ActionPrevious:
		return m.Previous(), nil
	case ActionRestart:
		return m.RestartPosture(), nil
	case ActionTick:
		if seconds <= 0 {
			seconds = 1
		}
		applied := false
		for i := 0; i < seconds && m.State() == Running; i++ {
			applied = m.Tick() || applied
		}
		return applied, nil
	default:
		return false, fmt.Errorf("unknown action %q", action)
	}
}
