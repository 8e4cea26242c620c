package runner

import (
	"errors"
	"fmt"
)

// Kind classifies runner infrastructure failures. A command that could
// not be executed is not an error; see Result.LaunchFailed.
type Kind int

const (
	KindInvalid  Kind = iota + 1 // command line rejected before starting
	KindResource                 // notification pipe or shim binary unavailable
	KindStart                    // child process could not be started
	KindWait                     // waiting for the child failed
	KindCanceled                 // context ended the wait; child was killed
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindResource:
		return "resource"
	case KindStart:
		return "start"
	case KindWait:
		return "wait"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

var (
	// ErrEmptyCommand is returned when the command line has no tokens.
	ErrEmptyCommand = errors.New("empty command")
	// ErrTooManyArgs is returned by the Reject overflow policy.
	ErrTooManyArgs = errors.New("too many arguments")
)

// Error is returned for every runner infrastructure failure.
type Error struct {
	Kind Kind
	Op   string
	PID  int // set once a child exists
	Err  error
}

func (e *Error) Error() string {
	if e.PID > 0 {
		return fmt.Sprintf("%s (pid %d): %v", e.Op, e.PID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of a runner error, or 0 for other errors.
func KindOf(err error) Kind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return 0
}
