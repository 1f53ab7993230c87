package worker

// State is a worker's lifecycle position. Legal transitions are
// spawned → active and {spawned, active} → terminated; a terminated worker
// never transitions again.
type State int

const (
	StateSpawned State = iota
	StateActive
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateSpawned:
		return "spawned"
	case StateActive:
		return "active"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Reason records why a worker reached the terminated state.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonSuccess
	ReasonError
	ReasonTimeout
	ReasonCrash
	ReasonExit
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonSuccess:
		return "success"
	case ReasonError:
		return "error"
	case ReasonTimeout:
		return "timeout"
	case ReasonCrash:
		return "crash"
	case ReasonExit:
		return "exit"
	default:
		return "unknown"
	}
}
