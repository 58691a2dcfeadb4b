package service

// Status represents the current lifecycle status of a service
type Status int

// Possible service lifecycle statuses
const (
	StatusIdle Status = iota
	StatusInitializing
	StatusReady
	StatusError
)

// String returns the string representation of Status
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusInitializing:
		return "initializing"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}
