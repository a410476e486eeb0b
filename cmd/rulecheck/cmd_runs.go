package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/rulecheck/internal/history"
)

var (
	runsDB   string
	runsLast int
	runsID   string
	runsJSON bool
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List stored comparison runs or show one run's divergences",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath := firstNonEmpty(runsDB, env.DB)
		if dbPath == "" {
			return usageError(fmt.Errorf("runs: --db or RULECHECK_DB is required"))
		}
		store, err := history.NewStore(dbPath)
		if err != nil {
			return usageError(err)
		}
		defer store.Close()

		out := cmd.OutOrStdout()
		if runsID != "" {
			return runDetailMode(out, store, runsID, runsJSON)
		}
		return runListMode(out, store, runsLast, runsJSON)
	},
}

func init() {
	runsCmd.Flags().StringVar(&runsDB, "db", "", "sqlite run history (default $RULECHECK_DB)")
	runsCmd.Flags().IntVar(&runsLast, "last", 20, "show N most recent runs")
	runsCmd.Flags().StringVar(&runsID, "run", "", "show single run detail")
	runsCmd.Flags().BoolVar(&runsJSON, "json", false, "output as JSON instead of table")
}

// #region list-mode

type listRow struct {
	RunID       string `json:"run_id"`
	ProviderA   string `json:"provider_a"`
	ProviderB   string `json:"provider_b"`
	Targets     int    `json:"targets"`
	Mismatches  int    `json:"mismatches"`
	Divergences int    `json:"divergences"`
	Examples    int    `json:"examples"`
	Elapsed     string `json:"elapsed"`
	StartedAt   string `json:"started_at"`
}

func toListRow(r history.Run) listRow {
	return listRow{
		RunID:       r.ID,
		ProviderA:   r.ProviderA,
		ProviderB:   r.ProviderB,
		Targets:     r.Targets,
		Mismatches:  r.Mismatches,
		Divergences: r.Keys,
		Examples:    r.Examples,
		Elapsed:     r.Duration.Round(time.Millisecond).String(),
		StartedAt:   r.StartedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func runListMode(w io.Writer, store *history.Store, last int, jsonOut bool) error {
	runs, err := store.ListRuns(last)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stderr, "no runs found")
		return nil
	}

	rows := make([]listRow, len(runs))
	for i, r := range runs {
		rows[i] = toListRow(r)
	}
	if jsonOut {
		return printJSON(w, rows)
	}

	fmt.Fprintf(w, "%-12s  %8s  %10s  %11s  %8s  %10s  %s\n",
		"Run", "Targets", "Mismatches", "Divergences", "Examples", "Elapsed", "Started")
	fmt.Fprintf(w, "%-12s+-%8s+-%10s+-%11s+-%8s+-%10s+-%s\n",
		"------------", "--------", "----------", "-----------", "--------", "----------", "--------------------")
	for _, r := range rows {
		fmt.Fprintf(w, "%-12s  %8d  %10d  %11d  %8d  %10s  %s\n",
			shortID(r.RunID), r.Targets, r.Mismatches, r.Divergences, r.Examples, r.Elapsed, r.StartedAt)
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

type detailOutput struct {
	Run         listRow         `json:"run"`
	Divergences []divergenceRow `json:"divergences"`
}

type divergenceRow struct {
	Kind    string `json:"kind"`
	Target  string `json:"target"`
	Tier    string `json:"tier"`
	APasses bool   `json:"a_passes"`
	BitRep  uint64 `json:"bit_rep"`
	Summary string `json:"summary"`
}

func runDetailMode(w io.Writer, store *history.Store, id string, jsonOut bool) error {
	run, err := store.GetRun(id)
	if err != nil {
		return err
	}
	divs, err := store.Divergences(id)
	if err != nil {
		return err
	}

	out := detailOutput{Run: toListRow(run), Divergences: make([]divergenceRow, len(divs))}
	for i, d := range divs {
		out.Divergences[i] = divergenceRow{
			Kind:    d.Kind.String(),
			Target:  d.Target,
			Tier:    d.Tier.String(),
			APasses: d.APasses,
			BitRep:  uint64(d.Bits),
			Summary: d.Summary,
		}
	}
	if jsonOut {
		return printJSON(w, out)
	}

	fmt.Fprintf(w, "Run:         %s\n", run.ID)
	fmt.Fprintf(w, "Providers:   %s vs %s\n", run.ProviderA, run.ProviderB)
	fmt.Fprintf(w, "Started:     %s (%s)\n", out.Run.StartedAt, out.Run.Elapsed)
	fmt.Fprintf(w, "Compared:    %d states, %d targets, %d comparisons\n", run.States, run.Targets, run.Comparisons)
	fmt.Fprintf(w, "Mismatches:  %d\n", run.Mismatches)
	if run.ReportPath != "" {
		fmt.Fprintf(w, "Report:      %s\n", run.ReportPath)
	}
	fmt.Fprintln(w)

	for _, d := range out.Divergences {
		side := "b"
		if d.APasses {
			side = "a"
		}
		fmt.Fprintf(w, "%-8s  %-40s  %-16s  %s passes  %s\n", d.Kind, d.Target, d.Tier, side, d.Summary)
	}
	return nil
}

// #endregion detail-mode

// #region helpers

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// #endregion helpers
