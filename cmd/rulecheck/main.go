package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/rulecheck/internal/config"
	"github.com/danielpatrickdp/rulecheck/internal/logging"
)

// Exit codes.
const (
	ExitSuccess    = 0
	ExitDivergence = 1
	ExitError      = 2
)

// exitError carries a process exit code through cobra.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

// usageError marks bad flags or configuration.
func usageError(err error) error {
	return &exitError{code: ExitError, err: err}
}

// #region globals
var (
	env    config.Env
	logger *slog.Logger

	logLevel  string
	logFormat string
)

// #endregion globals

// #region root
var rootCmd = &cobra.Command{
	Use:           "rulecheck",
	Short:         "Check two access rule sets for equivalence",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if env, err = config.LoadEnv(); err != nil {
			return usageError(err)
		}
		level, format := env.LogLevel, env.LogFormat
		if cmd.Flags().Changed("log-level") {
			level = logLevel
		}
		if cmd.Flags().Changed("log-format") {
			format = logFormat
		}
		if logger, err = logging.New(os.Stderr, level, format); err != nil {
			return usageError(err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "text or json")

	rootCmd.AddCommand(compareCmd, validateCmd, importSheetCmd, serveCmd, runsCmd)
}

// #endregion root

// #region main
func main() {
	// A missing .env is fine; the process environment still applies.
	_ = godotenv.Load()

	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	if err == nil {
		return ExitSuccess
	}

	code := ExitError
	var ee *exitError
	if errors.As(err, &ee) {
		code = ee.code
	}
	if ee != nil && ee.err == nil {
		return code
	}
	if logger != nil {
		logger.Error("rulecheck failed", "error", err)
	} else {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	return code
}

// #endregion main
