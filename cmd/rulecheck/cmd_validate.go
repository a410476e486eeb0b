package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/rulecheck/internal/inventory"
	"github.com/danielpatrickdp/rulecheck/internal/rules/tricks"
)

var (
	validateTricks string
	validateOut    string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Report redundant tricks and unknown tags in a trick table",
	RunE: func(cmd *cobra.Command, args []string) error {
		sp := inventory.DefaultSpace()
		t, err := tricks.Load(validateTricks, sp)
		if err != nil {
			return usageError(err)
		}
		findings := tricks.Validate(t, sp)

		out := strings.Join(findings, "\n")
		if len(findings) > 0 {
			out += "\n"
		}
		if validateOut == "" || validateOut == "-" {
			fmt.Print(out)
		} else {
			if err := os.MkdirAll(filepath.Dir(validateOut), 0o755); err != nil {
				return usageError(fmt.Errorf("create output dir: %w", err))
			}
			if err := os.WriteFile(validateOut, []byte(out), 0o644); err != nil {
				return usageError(fmt.Errorf("write findings: %w", err))
			}
		}

		logger.Info("trick table validated", "tricks", validateTricks, "findings", len(findings))
		if len(findings) > 0 {
			return &exitError{code: ExitDivergence}
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateTricks, "tricks", "tricks/tricks.json", "trick table")
	validateCmd.Flags().StringVar(&validateOut, "out", "results/validate_json.txt", "findings file, - for stdout")
}
