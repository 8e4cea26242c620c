package runner

import (
	"fmt"
	"strings"
	"syscall"
	"time"
)

// Status is the result bitmask of a run. The low 8 bits hold the exit
// status and are only meaningful when NormTerm is set.
type Status uint32

// Status bits.
const (
	ExitMask Status = 0xff
	NormTerm Status = 1 << 8  // child terminated normally
	ExecOK   Status = 1 << 9  // exec of the command succeeded
	NonBlock Status = 1 << 10 // produced by Start rather than Run
)

// ExecFailStatus is the exit status of a child that could not exec the
// command. 127 matches what shells report for "command not found".
const ExecFailStatus = 127

// Exited reports whether the child terminated normally.
func (s Status) Exited() bool { return s&NormTerm != 0 }

// ExecSucceeded reports whether the command replaced the child image.
func (s Status) ExecSucceeded() bool { return s&ExecOK != 0 }

// NonBlocking reports whether the result came from Start.
func (s Status) NonBlocking() bool { return s&NonBlock != 0 }

// ExitStatus returns the low 8 bits of the child's exit code, or -1 if
// the child did not terminate normally.
func (s Status) ExitStatus() int {
	if !s.Exited() {
		return -1
	}
	return int(s & ExitMask)
}

func (s Status) String() string {
	var parts []string
	if s.ExecSucceeded() {
		parts = append(parts, "execok")
	}
	if s.NonBlocking() {
		parts = append(parts, "nonblock")
	}
	if s.Exited() {
		parts = append(parts, "normterm", fmt.Sprintf("status=%d", s.ExitStatus()))
	}
	if len(parts) == 0 {
		return "0"
	}
	return strings.Join(parts, "|")
}

// Result holds the outcome of one invocation.
type Result struct {
	RunID     string   // unique identifier for this run
	Command   string   // command line as given by the caller
	Argv      []string // tokens passed to exec
	Truncated bool     // argv was cut at MaxArgs
	PID       int
	Status    Status
	Signal    string        // terminating signal name, when killed
	ExecErrno syscall.Errno // errno reported by the child when exec failed
	StartedAt time.Time
	Duration  time.Duration
}

// LaunchFailed reports whether the child could not exec the command.
func (r *Result) LaunchFailed() bool {
	return !r.Status.ExecSucceeded()
}
