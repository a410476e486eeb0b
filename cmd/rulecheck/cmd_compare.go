package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/rulecheck/internal/compare"
	"github.com/danielpatrickdp/rulecheck/internal/config"
	"github.com/danielpatrickdp/rulecheck/internal/difficulty"
	"github.com/danielpatrickdp/rulecheck/internal/divergence"
	"github.com/danielpatrickdp/rulecheck/internal/history"
	"github.com/danielpatrickdp/rulecheck/internal/report"
)

// #region flags
var (
	compareA       string
	compareB       string
	compareProfile string
	compareReport  string
	compareDB      string
	compareWorkers int
	compareTiers   []string
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare two rule providers over the whole state space",
	Long: `Evaluates every entrance and location of both providers against every
inventory state, at every difficulty tier, and writes the minimal loadouts on
which they disagree.

Providers are given as tricks:<path>, lua:<path> or grpc:<addr>.

Exit codes:
  0  providers agree
  1  divergences found
  2  configuration or evaluation error`,
	RunE: runCompare,
}

func init() {
	compareCmd.Flags().StringVar(&compareA, "a", "", "first provider")
	compareCmd.Flags().StringVar(&compareB, "b", "", "second provider")
	compareCmd.Flags().StringVar(&compareProfile, "profile", "", "YAML profile (default $RULECHECK_PROFILE)")
	compareCmd.Flags().StringVar(&compareReport, "report", "", "report path (default $RULECHECK_REPORT)")
	compareCmd.Flags().StringVar(&compareDB, "db", "", "sqlite run history (default $RULECHECK_DB)")
	compareCmd.Flags().IntVar(&compareWorkers, "workers", 0, "parallel targets (default GOMAXPROCS)")
	compareCmd.Flags().StringSliceVar(&compareTiers, "tier", nil, "restrict to these tiers")
	_ = compareCmd.MarkFlagRequired("a")
	_ = compareCmd.MarkFlagRequired("b")
}

// #endregion flags

// #region run
func runCompare(cmd *cobra.Command, args []string) error {
	profilePath := firstNonEmpty(compareProfile, env.Profile)
	reportPath := firstNonEmpty(compareReport, env.Report, report.DefaultPath)
	dbPath := firstNonEmpty(compareDB, env.DB)

	profile, err := config.LoadProfile(profilePath)
	if err != nil {
		return usageError(err)
	}
	run, err := config.Resolve(profile, env)
	if err != nil {
		return usageError(err)
	}
	if compareWorkers > 0 {
		run.Compare.Workers = compareWorkers
	}
	if len(compareTiers) > 0 {
		run.Compare.Tiers = nil
		for _, name := range compareTiers {
			t, err := difficulty.Parse(name)
			if err != nil {
				return usageError(err)
			}
			run.Compare.Tiers = append(run.Compare.Tiers, t)
		}
	}

	a, closeA, err := openProvider(run.Labels.A, compareA, run.Space)
	if err != nil {
		return usageError(err)
	}
	defer closeA.Close()
	b, closeB, err := openProvider(run.Labels.B, compareB, run.Space)
	if err != nil {
		return usageError(err)
	}
	defer closeB.Close()

	driver, err := compare.NewDriver(a, b, run.Space, run.Compare, logger)
	if err != nil {
		return usageError(err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	started := time.Now().UTC()
	reg, stats, err := driver.Run(ctx)
	if err != nil {
		return usageError(fmt.Errorf("compare: %w", err))
	}

	if err := report.WriteFile(reportPath, reg, run.Space, run.Labels); err != nil {
		return usageError(err)
	}

	if dbPath != "" {
		if err := saveRun(dbPath, history.Run{
			ProviderA:   compareA,
			ProviderB:   compareB,
			States:      stats.States,
			Targets:     stats.Targets,
			Comparisons: stats.Comparisons,
			Mismatches:  stats.Mismatches,
			ReportPath:  reportPath,
			StartedAt:   started,
			Duration:    stats.Duration,
		}, reg, run); err != nil {
			return usageError(err)
		}
	}

	logger.Info("comparison finished",
		"report", reportPath,
		"states", stats.States,
		"targets", stats.Targets,
		"comparisons", stats.Comparisons,
		"mismatches", stats.Mismatches,
		"divergences", reg.Len(),
		"elapsed", stats.Duration)

	if reg.Len() > 0 {
		return &exitError{code: ExitDivergence}
	}
	return nil
}

func saveRun(dbPath string, r history.Run, reg *divergence.Registry, run config.Run) error {
	store, err := history.NewStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	saved, err := store.SaveRun(r, reg.Entries(), run.Space)
	if err != nil {
		return err
	}
	logger.Info("run saved", "run_id", saved.ID, "db", dbPath, "examples", saved.Examples)
	return nil
}

// #endregion run

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
