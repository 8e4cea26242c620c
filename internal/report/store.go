// Package report keeps records of past runs so they can be inspected by
// run ID after the fact.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/deixis/runcmd/internal/runner"
)

// Store persists and retrieves run records.
type Store interface {
	Save(record *Record) error
	Load(runID string) (*Record, error)
}

// Record is the serialised form of a runner.Result, plus any output the
// caller captured.
type Record struct {
	ID         string    `json:"id"`
	Command    string    `json:"command"`
	Argv       []string  `json:"argv"`
	Truncated  bool      `json:"truncated,omitempty"`
	PID        int       `json:"pid"`
	Status     uint32    `json:"status"`
	ExecOK     bool      `json:"exec_ok"`
	Exited     bool      `json:"exited"`
	ExitStatus int       `json:"exit_status"` // -1 unless Exited
	NonBlock   bool      `json:"non_block,omitempty"`
	Signal     string    `json:"signal,omitempty"`
	ExecError  string    `json:"exec_error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`

	Stdout          string `json:"stdout,omitempty"`
	Stderr          string `json:"stderr,omitempty"`
	OutputTruncated bool   `json:"output_truncated,omitempty"`
}

// FromResult builds a Record from a runner result.
func FromResult(res *runner.Result) *Record {
	rec := &Record{
		ID:         res.RunID,
		Command:    res.Command,
		Argv:       res.Argv,
		Truncated:  res.Truncated,
		PID:        res.PID,
		Status:     uint32(res.Status),
		ExecOK:     res.Status.ExecSucceeded(),
		Exited:     res.Status.Exited(),
		ExitStatus: res.Status.ExitStatus(),
		NonBlock:   res.Status.NonBlocking(),
		Signal:     res.Signal,
		StartedAt:  res.StartedAt,
		DurationMS: res.Duration.Milliseconds(),
	}
	if res.ExecErrno != 0 {
		rec.ExecError = res.ExecErrno.Error()
	}
	return rec
}

// Outcome describes how the run ended in a few words.
func (r *Record) Outcome() string {
	switch {
	case !r.ExecOK:
		msg := "exec failed"
		if r.ExecError != "" {
			msg += ": " + r.ExecError
		}
		return msg
	case r.Exited:
		return fmt.Sprintf("exited %d", r.ExitStatus)
	case r.Signal != "":
		return "killed by " + r.Signal
	default:
		return "terminated"
	}
}

// Summary renders the record as the multi-line text shown to users.
func (r *Record) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run: %s\n", r.ID)
	fmt.Fprintf(&b, "Command: %s\n", strings.Join(r.Argv, " "))
	if r.Truncated {
		fmt.Fprintf(&b, "Arguments truncated to %d\n", len(r.Argv))
	}
	fmt.Fprintf(&b, "PID: %d\n", r.PID)
	fmt.Fprintf(&b, "Status: %s (%s)\n", r.Outcome(), runner.Status(r.Status))
	fmt.Fprintf(&b, "Duration: %dms\n", r.DurationMS)

	for _, s := range []struct{ name, text string }{{"Stdout", r.Stdout}, {"Stderr", r.Stderr}} {
		if s.text == "" {
			continue
		}
		fmt.Fprintf(&b, "\n%s:\n", s.name)
		for _, line := range strings.Split(strings.TrimRight(s.text, "\n"), "\n") {
			fmt.Fprintf(&b, "    %s\n", line)
		}
	}
	if r.OutputTruncated {
		fmt.Fprintln(&b, "\n(output truncated)")
	}
	return b.String()
}
