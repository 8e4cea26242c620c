package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/deixis/runcmd/internal/report"
	"github.com/deixis/runcmd/internal/runner"
	"github.com/spf13/cobra"
)

var (
	runJSON    bool
	runTimeout time.Duration
	runStdin   string
	runStdout  string
	runStderr  string
	runAsync   bool
)

var runCmd = &cobra.Command{
	Use:   "run [flags] -- command line...",
	Short: "Run a command line and report how it ended",
	Long: `Run joins its arguments with spaces, splits the result on the configured
delimiters and executes the first token with the rest as arguments.

The child's output goes to the terminal (or the --stdout/--stderr files); the
run summary is written to stderr, or as JSON to stdout with --json. runcmd
exits with the child's exit status, or 1 if the child did not exit normally.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMain,
}

func init() {
	f := runCmd.Flags()
	f.BoolVar(&runJSON, "json", false, "print the run record as JSON")
	f.DurationVar(&runTimeout, "timeout", 0, "override configured timeout (e.g. 30s)")
	f.StringVar(&runStdin, "stdin", "", "file to use as the child's stdin")
	f.StringVar(&runStdout, "stdout", "", "file to write the child's stdout to")
	f.StringVar(&runStderr, "stderr", "", "file to write the child's stderr to")
	f.BoolVar(&runAsync, "async", false, "start the child without blocking and collect it through the exit callback")
}

func runMain(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	r := *a.runner
	if runTimeout > 0 {
		r.Timeout = runTimeout
	}

	redirect, closeFiles, err := openRedirect(runStdin, runStdout, runStderr)
	if err != nil {
		return err
	}
	defer closeFiles()

	command := strings.Join(args, " ")
	var res *runner.Result
	if runAsync {
		res, err = startAndCollect(ctx, &r, command, redirect)
	} else {
		res, err = r.Run(ctx, command, redirect)
	}
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	rec := report.FromResult(res)
	if err := a.store.Save(rec); err != nil {
		a.log.WithError(err).Warn("run record not saved")
	}

	if runJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rec); err != nil {
			return err
		}
	} else {
		fmt.Fprint(os.Stderr, rec.Summary())
	}

	switch {
	case !rec.Exited:
		return exitStatus(1)
	case rec.ExitStatus != 0:
		return exitStatus(rec.ExitStatus)
	}
	return nil
}

// startAndCollect runs command through Start and takes the result from
// the exit callback.
func startAndCollect(ctx context.Context, r *runner.Runner, command string, redirect *runner.Redirect) (*runner.Result, error) {
	exited := make(chan *runner.Result, 1)
	r.OnExit = func(res *runner.Result) { exited <- res }

	p, err := r.Start(ctx, command, redirect)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(os.Stderr, "started pid %d\n", p.PID())

	select {
	case res := <-exited:
		return res, nil
	case <-p.Done():
		// Canceled runs never reach the callback.
		if _, err := p.Wait(); err != nil {
			return nil, err
		}
		return <-exited, nil
	}
}

func openRedirect(stdin, stdout, stderr string) (*runner.Redirect, func(), error) {
	var (
		rd    runner.Redirect
		files []*os.File
	)
	closeAll := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}
	open := func(dst **os.File, path string, flag int) error {
		if path == "" {
			return nil
		}
		f, err := os.OpenFile(path, flag, 0o644)
		if err != nil {
			return err
		}
		files = append(files, f)
		*dst = f
		return nil
	}

	const out = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if err := open(&rd.Stdin, stdin, os.O_RDONLY); err != nil {
		closeAll()
		return nil, nil, err
	}
	if err := open(&rd.Stdout, stdout, out); err != nil {
		closeAll()
		return nil, nil, err
	}
	if err := open(&rd.Stderr, stderr, out); err != nil {
		closeAll()
		return nil, nil, err
	}
	return &rd, closeAll, nil
}
