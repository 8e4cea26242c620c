package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/deixis/runcmd/internal/runner"
	"github.com/spf13/cobra"
)

var tokenizeJSON bool

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize [flags] -- command line...",
	Short: "Print the argument vector run would build, one token per line",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		argv, truncated := a.runner.Tokenize(strings.Join(args, " "))
		if len(argv) == 0 {
			return runner.ErrEmptyCommand
		}
		if truncated && a.runner.Overflow == runner.Reject {
			return fmt.Errorf("%w: limit is %d", runner.ErrTooManyArgs, len(argv))
		}

		if tokenizeJSON {
			return json.NewEncoder(os.Stdout).Encode(struct {
				Argv      []string `json:"argv"`
				Truncated bool     `json:"truncated,omitempty"`
			}{argv, truncated})
		}
		for _, tok := range argv {
			fmt.Println(tok)
		}
		if truncated {
			a.log.WithField("max_args", len(argv)).Warn("argument list truncated")
		}
		return nil
	},
}

func init() {
	tokenizeCmd.Flags().BoolVar(&tokenizeJSON, "json", false, "print the tokens as JSON")
}
