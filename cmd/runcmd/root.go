package main

import (
	"fmt"
	"os"

	"github.com/deixis/runcmd/internal/config"
	"github.com/deixis/runcmd/internal/report"
	"github.com/deixis/runcmd/internal/runner"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "runcmd",
	Short: "Run command lines and report how they ended",
	Long: `runcmd splits a command line on whitespace, executes the program in a
child process and waits for it. It reports whether the exec succeeded, the
exit status or terminating signal, and keeps a record of every run.

There is no shell: quotes, pipes and redirections are passed through as
ordinary arguments.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .runcmd found from the working directory upwards)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")

	rootCmd.AddCommand(runCmd, tokenizeCmd, inspectCmd, mcpCmd, versionCmd)
}

// app holds what every subcommand builds from the loaded configuration.
type app struct {
	cfg    *config.Config
	runner *runner.Runner
	store  report.Store
	log    *logrus.Logger
}

func newApp() (*app, error) {
	loaded, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	cfg := loaded.Config

	log := logrus.StandardLogger()
	log.SetOutput(os.Stderr)
	log.SetFormatter(cfg.Formatter())
	log.SetLevel(cfg.Level())
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	if loaded.Path != "" {
		log.WithField("path", loaded.Path).Debug("config loaded")
	}

	r := &runner.Runner{Logger: log}
	cfg.Apply(r)

	disk := report.NewDiskStore(cfg.HistoryDir())
	return &app{
		cfg:    cfg,
		runner: r,
		store:  report.NewLRUStore(cfg.HistoryCapacity(), disk),
		log:    log,
	}, nil
}

func loadConfig() (*config.LoadResult, error) {
	if cfgFile != "" {
		return config.LoadFile(cfgFile)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("determining working directory: %w", err)
	}
	return config.Load(wd)
}
