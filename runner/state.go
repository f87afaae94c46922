package runner

// State is the runner's position in its lifecycle.
type State int

const (
	// StateIdle means no poll loop is running.
	StateIdle State = iota
	// StateStarting means the first poll is scheduled.
	StateStarting
	// StatePolling means the poll loop is dispatching jobs.
	StatePolling
	// StateStopping means Stop was observed and the loop is winding down.
	StateStopping
	// StateCleaningUp means the runner is draining in-flight jobs before
	// going idle.
	StateCleaningUp
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StatePolling:
		return "polling"
	case StateStopping:
		return "stopping"
	case StateCleaningUp:
		return "cleaning_up"
	default:
		return "unknown"
	}
}
