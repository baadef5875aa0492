package initsys

import "fmt"

// Status classifies the outcome of a backend operation.
type Status int

const (
	// StatusOK means the operation succeeded or was already satisfied.
	StatusOK Status = iota
	// StatusDegraded means the operation did not succeed but the caller may continue.
	StatusDegraded
	// StatusFatal means the caller must abort.
	StatusFatal
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusDegraded:
		return "degraded"
	case StatusFatal:
		return "fatal"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result is returned by every mutating backend operation.
type Result struct {
	// Op names the operation, e.g. "systemd start".
	Op string
	// Status is the outcome class.
	Status Status
	// Message is a human-readable note for OK results.
	Message string
	// Err is set for degraded and fatal results.
	Err error
}

// OK returns a successful result.
func OK(op, message string) Result {
	return Result{Op: op, Status: StatusOK, Message: message}
}

// Degraded returns a result the caller should log and move past.
func Degraded(op string, err error) Result {
	return Result{Op: op, Status: StatusDegraded, Err: err}
}

// Fatal returns a result that must abort the current command.
func Fatal(op string, err error) Result {
	return Result{Op: op, Status: StatusFatal, Err: err}
}

// Failed reports whether the result is not OK.
func (r Result) Failed() bool { return r.Status != StatusOK }
