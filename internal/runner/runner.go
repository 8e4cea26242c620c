// Package runner executes command lines in a child process and reports
// whether the exec succeeded and how the child terminated.
//
// The child side is a re-executed copy of the current binary (the exec
// shim). Programs using this package must call Init at the very start of
// main, and test binaries at the start of TestMain.
package runner

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Defaults applied when the corresponding Runner field is zero.
const (
	DefaultDelimiters = " \t\n"
	DefaultMaxArgs    = 1024
)

// Overflow selects what happens when a command line has more than
// MaxArgs tokens.
type Overflow int

const (
	// Truncate keeps the first MaxArgs tokens and marks the result.
	Truncate Overflow = iota
	// Reject fails the call with ErrTooManyArgs.
	Reject
)

// Runner executes command lines. The zero value is ready to use. A Runner
// must not be modified while calls are in flight.
type Runner struct {
	Delimiters string        // token separators; DefaultDelimiters if empty
	MaxArgs    int           // argv bound including the program; DefaultMaxArgs if zero
	Overflow   Overflow      // policy when MaxArgs is exceeded
	Timeout    time.Duration // bound on the wait; zero waits forever
	Dir        string        // child working directory; inherited if empty
	Env        []string      // KEY=VALUE entries added to the inherited environment

	// OnExit is called with the result of every run started with Start.
	OnExit func(*Result)

	Logger logrus.FieldLogger // nil discards
}

// Redirect carries the streams the child uses as stdin, stdout and
// stderr. Nil fields inherit the caller's stream. The runner never closes
// them.
type Redirect struct {
	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File
}

// Run executes command and blocks until the child terminates or ctx is
// done. A command that cannot be executed is reported through the
// result's Status, not through err.
func (r *Runner) Run(ctx context.Context, command string, redirect *Redirect) (*Result, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	c, err := r.launch(command, redirect)
	if err != nil {
		return nil, err
	}
	return r.collect(ctx, c)
}

// Start executes command without waiting for it. The returned Process
// delivers the result; OnExit, if set, is called with it as well.
func (r *Runner) Start(ctx context.Context, command string, redirect *Redirect) (*Process, error) {
	c, err := r.launch(command, redirect)
	if err != nil {
		return nil, err
	}
	c.result.Status |= NonBlock

	ctx, cancel := r.withTimeout(ctx)
	p := &Process{pid: c.result.PID, done: make(chan struct{})}
	go func() {
		defer cancel()
		p.result, p.err = r.collect(ctx, c)
		close(p.done)
		if r.OnExit != nil && p.result != nil {
			r.OnExit(p.result)
		}
	}()
	return p, nil
}

// Tokenize splits command the way Run does, applying the runner's
// delimiters and argv bound.
func (r *Runner) Tokenize(command string) (argv []string, truncated bool) {
	return Tokenize(command, r.Delimiters, r.maxArgs())
}

// Process is a child started by Start.
type Process struct {
	pid    int
	done   chan struct{}
	result *Result
	err    error
}

// PID returns the child's process identifier.
func (p *Process) PID() int { return p.pid }

// Done is closed once the result is available.
func (p *Process) Done() <-chan struct{} { return p.done }

// Wait blocks until the child has been reaped. It may be called any
// number of times.
func (p *Process) Wait() (*Result, error) {
	<-p.done
	return p.result, p.err
}

// child is a started shim whose notification pipe has not been drained.
type child struct {
	proc   *os.Process
	notify *os.File // read end
	result *Result
	log    logrus.FieldLogger
}

func (r *Runner) launch(command string, redirect *Redirect) (*child, error) {
	argv, truncated := r.Tokenize(command)
	if len(argv) == 0 {
		return nil, &Error{Kind: KindInvalid, Op: "tokenize", Err: ErrEmptyCommand}
	}

	res := &Result{
		RunID:     uuid.New().String(),
		Command:   command,
		Argv:      argv,
		Truncated: truncated,
	}
	log := r.logger().WithFields(logrus.Fields{"run_id": res.RunID, "argv0": argv[0]})

	if truncated {
		if r.Overflow == Reject {
			return nil, &Error{
				Kind: KindInvalid,
				Op:   "tokenize",
				Err:  fmt.Errorf("%w: limit is %d", ErrTooManyArgs, r.maxArgs()),
			}
		}
		log.WithField("max_args", r.maxArgs()).Warn("argument list truncated")
	}

	if !shimSupported {
		return nil, &Error{Kind: KindStart, Op: "start " + argv[0], Err: errors.ErrUnsupported}
	}
	self, err := os.Executable()
	if err != nil {
		return nil, &Error{Kind: KindResource, Op: "locate shim", Err: err}
	}

	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, &Error{Kind: KindResource, Op: "create pipe", Err: err}
	}
	ar, aw, err := os.Pipe()
	if err != nil {
		_ = pr.Close()
		_ = pw.Close()
		return nil, &Error{Kind: KindResource, Op: "create pipe", Err: err}
	}

	attr := &os.ProcAttr{
		Dir:   r.Dir,
		Env:   r.env(),
		Files: redirect.files(pw, ar),
	}
	log.WithField("args", len(argv)-1).Debug("starting command")
	// argv travels over the pipe: arguments the kernel rejects must fail
	// the command's exec in the child, not the shim's.
	proc, err := os.StartProcess(self, []string{ShimName}, attr)
	// Only the child writes the notify pipe and reads the argv pipe.
	_ = pw.Close()
	_ = ar.Close()
	if err != nil {
		_ = pr.Close()
		_ = aw.Close()
		return nil, &Error{Kind: KindStart, Op: "start " + argv[0], Err: err}
	}
	if err := writeArgv(aw, argv); err != nil {
		// The shim exited before reading; collect reports how.
		log.WithError(err).Debug("argv not delivered")
	}
	_ = aw.Close()

	res.PID = proc.Pid
	res.StartedAt = time.Now()
	return &child{
		proc:   proc,
		notify: pr,
		result: res,
		log:    log.WithField("pid", proc.Pid),
	}, nil
}

// collect reaps c, drains its notification pipe and composes the status.
func (r *Runner) collect(ctx context.Context, c *child) (*Result, error) {
	defer c.notify.Close()
	res := c.result

	type waited struct {
		state *os.ProcessState
		err   error
	}
	ch := make(chan waited, 1)
	go func() {
		state, err := c.proc.Wait()
		ch <- waited{state, err}
	}()

	var w waited
	select {
	case w = <-ch:
	case <-ctx.Done():
		c.log.WithError(ctx.Err()).Warn("killing command")
		_ = c.proc.Kill()
		<-ch
		return nil, &Error{Kind: KindCanceled, Op: "wait", PID: res.PID, Err: ctx.Err()}
	}
	if w.err != nil {
		return nil, &Error{Kind: KindWait, Op: "wait", PID: res.PID, Err: w.err}
	}
	res.Duration = time.Since(res.StartedAt)

	var buf [4]byte
	n, err := io.ReadFull(c.notify, buf[:])
	switch {
	case n == 0 && errors.Is(err, io.EOF):
		res.Status |= ExecOK
	case n == len(buf):
		res.ExecErrno = syscall.Errno(binary.NativeEndian.Uint32(buf[:]))
	default:
		// Short or failed read: exec did not provably succeed.
		res.ExecErrno = syscall.EIO
	}

	if ws, ok := w.state.Sys().(syscall.WaitStatus); ok {
		switch {
		case ws.Exited():
			res.Status |= NormTerm | Status(ws.ExitStatus())&ExitMask
		case ws.Signaled():
			res.Signal = signalName(ws.Signal())
		}
	} else if w.state.Exited() {
		res.Status |= NormTerm | Status(w.state.ExitCode())&ExitMask
	}

	fields := logrus.Fields{
		"status":   res.Status.String(),
		"exec_ok":  res.Status.ExecSucceeded(),
		"duration": res.Duration,
	}
	if res.Status.Exited() {
		fields["exit_status"] = res.Status.ExitStatus()
	}
	if res.Signal != "" {
		fields["signal"] = res.Signal
	}
	if res.ExecErrno != 0 {
		fields["exec_error"] = res.ExecErrno.Error()
	}
	c.log.WithFields(fields).Info("command finished")
	return res, nil
}

// files returns the child's descriptor table: stdin, stdout, stderr and
// the notification and argv pipes at notifyFD and argvFD.
func (rd *Redirect) files(notify, argv *os.File) []*os.File {
	files := []*os.File{os.Stdin, os.Stdout, os.Stderr, notify, argv}
	if rd == nil {
		return files
	}
	if rd.Stdin != nil {
		files[0] = rd.Stdin
	}
	if rd.Stdout != nil {
		files[1] = rd.Stdout
	}
	if rd.Stderr != nil {
		files[2] = rd.Stderr
	}
	return files
}

func (r *Runner) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.Timeout > 0 {
		return context.WithTimeout(ctx, r.Timeout)
	}
	return context.WithCancel(ctx)
}

func (r *Runner) maxArgs() int {
	if r.MaxArgs > 0 {
		return r.MaxArgs
	}
	return DefaultMaxArgs
}

// env returns nil to inherit the environment unchanged.
func (r *Runner) env() []string {
	if len(r.Env) == 0 {
		return nil
	}
	return append(os.Environ(), r.Env...)
}

var discardLogger = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}()

func (r *Runner) logger() logrus.FieldLogger {
	if r.Logger != nil {
		return r.Logger
	}
	return discardLogger
}
