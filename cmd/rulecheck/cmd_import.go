package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/rulecheck/internal/inventory"
	"github.com/danielpatrickdp/rulecheck/internal/rules/tricks"
	"github.com/danielpatrickdp/rulecheck/internal/sheet"
)

var (
	importTricksCSV string
	importTagsCSV   string
	importOut       string
	importMin       string
)

var importSheetCmd = &cobra.Command{
	Use:   "import-sheet",
	Short: "Build a trick table from Tricks and Tags CSV exports",
	RunE: func(cmd *cobra.Command, args []string) error {
		trickRows, err := sheet.ReadFile(importTricksCSV)
		if err != nil {
			return usageError(err)
		}
		tagRows, err := sheet.ReadFile(importTagsCSV)
		if err != nil {
			return usageError(err)
		}
		t, err := sheet.Parse(trickRows, tagRows, inventory.DefaultSpace())
		if err != nil {
			return usageError(err)
		}

		if err := writeTricks(importOut, t, true); err != nil {
			return usageError(err)
		}
		if importMin != "" {
			if err := writeTricks(importMin, t, false); err != nil {
				return usageError(err)
			}
		}
		logger.Info("trick table imported",
			"out", importOut,
			"entrances", len(t.EntranceTricks),
			"locations", len(t.LocationTricks),
			"tags", len(t.TagHierarchy))
		return nil
	},
}

func init() {
	importSheetCmd.Flags().StringVar(&importTricksCSV, "tricks-csv", "", "Tricks sheet export")
	importSheetCmd.Flags().StringVar(&importTagsCSV, "tags-csv", "", "Tags sheet export")
	importSheetCmd.Flags().StringVar(&importOut, "out", "tricks/tricks.json", "indented JSON output")
	importSheetCmd.Flags().StringVar(&importMin, "min", "tricks/tricks.min.json", "compact JSON output, empty to skip")
	_ = importSheetCmd.MarkFlagRequired("tricks-csv")
	_ = importSheetCmd.MarkFlagRequired("tags-csv")
}

func writeTricks(path string, t *tricks.Tricks, indent bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := tricks.Encode(f, t, indent); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
