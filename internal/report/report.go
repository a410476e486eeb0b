package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/danielpatrickdp/rulecheck/internal/divergence"
	"github.com/danielpatrickdp/rulecheck/internal/inventory"
)

// DefaultPath is where the comparison report is written.
const DefaultPath = "results/compare.txt"

// #region labels
// Labels name the two providers in "<label> passes with" lines.
type Labels struct {
	A string `yaml:"a"`
	B string `yaml:"b"`
}

// DefaultLabels names the current rules "apworld" and the trick sheet "sheet".
func DefaultLabels() Labels {
	return Labels{A: "apworld", B: "sheet"}
}

func (l Labels) side(aPasses bool) string {
	if aPasses {
		return l.A
	}
	return l.B
}

// #endregion labels

// #region write
// Write emits every entry of reg grouped by target, difficulty and passing
// side, one loadout summary per line.
func Write(w io.Writer, reg *divergence.Registry, sp *inventory.Space, labels Labels) error {
	bw := bufio.NewWriter(w)

	var prev *divergence.Key
	for _, e := range reg.Entries() {
		k := e.Key
		if prev == nil || prev.Kind != k.Kind || prev.Target != k.Target {
			fmt.Fprintf(bw, "%s %s:\n", k.Kind, k.Target)
			prev = nil
		}
		if prev == nil || prev.Tier != k.Tier {
			name, err := k.Tier.Name()
			if err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			fmt.Fprintf(bw, "  difficulty %s:\n", name)
		}
		fmt.Fprintf(bw, "    %s passes with:\n", labels.side(k.APasses))
		for _, ex := range e.Examples {
			summary, err := sp.Summarize(ex.Bits)
			if err != nil {
				return fmt.Errorf("write report: %s %q: %w", k.Kind, k.Target, err)
			}
			fmt.Fprintf(bw, "      %s\n", summary)
		}
		prev = &k
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// WriteFile writes the report to path, creating parent directories.
func WriteFile(path string, reg *divergence.Registry, sp *inventory.Space, labels Labels) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report dir %s: %w", dir, err)
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open report %s: %w", path, err)
	}
	defer f.Close()

	if err := Write(f, reg, sp, labels); err != nil {
		return err
	}
	return f.Close()
}

// #endregion write
