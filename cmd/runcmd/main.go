// Command runcmd runs command lines in a child process and reports whether
// the program could be executed and how it terminated.
package main

import (
	"errors"
	"os"
	"strconv"

	"github.com/deixis/runcmd/internal/runner"
	"github.com/sirupsen/logrus"
)

func main() {
	// Re-executed copies of this binary become the exec shim here.
	if runner.Init() {
		return
	}

	if err := rootCmd.Execute(); err != nil {
		var exit exitStatus
		if errors.As(err, &exit) {
			os.Exit(int(exit))
		}
		logrus.Fatal(err)
	}
}

// exitStatus is returned by commands that want the process to exit with a
// specific code without printing an error.
type exitStatus int

func (e exitStatus) Error() string { return "exit status " + strconv.Itoa(int(e)) }
