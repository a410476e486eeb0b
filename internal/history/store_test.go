package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/danielpatrickdp/rulecheck/internal/difficulty"
	"github.com/danielpatrickdp/rulecheck/internal/divergence"
	"github.com/danielpatrickdp/rulecheck/internal/inventory"
	"github.com/danielpatrickdp/rulecheck/internal/rules"
)

func tempDB(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := NewStore(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRegistry(t *testing.T, sp *inventory.Space) *divergence.Registry {
	t.Helper()
	reg := divergence.NewRegistry(sp)
	add := func(key divergence.Key, counts map[string]int) {
		levels := make([]int, sp.Len())
		for name, lvl := range counts {
			i, _ := sp.Lookup(name)
			levels[i] = lvl
		}
		l, err := sp.NewLoadout(inventory.DefaultSlot, levels)
		if err != nil {
			t.Fatalf("NewLoadout: %v", err)
		}
		if err := reg.Record(key, l); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	chest := divergence.Key{Kind: rules.Location, Target: "Chest", Tier: difficulty.Hard, APasses: true}
	add(chest, map[string]int{inventory.Slide: 1})
	add(chest, map[string]int{inventory.AirKick: 4})
	add(divergence.Key{Kind: rules.Entrance, Target: "Castle -> Keep", Tier: difficulty.Lunatic}, nil)
	return reg
}

func TestSaveAndGetRun(t *testing.T) {
	s := tempDB(t)
	sp := inventory.DefaultSpace()
	reg := sampleRegistry(t, sp)

	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	saved, err := s.SaveRun(Run{
		ProviderA:   "lua:rules.lua",
		ProviderB:   "tricks:tricks.json",
		States:      2560,
		Targets:     12,
		Comparisons: 30720,
		Mismatches:  99,
		ReportPath:  "results/compare.txt",
		StartedAt:   started,
		Duration:    1500 * time.Millisecond,
	}, reg.Entries(), sp)
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if saved.ID == "" {
		t.Fatal("expected generated run ID")
	}
	if saved.Keys != 2 || saved.Examples != 3 {
		t.Fatalf("expected 2 keys and 3 examples, got %d and %d", saved.Keys, saved.Examples)
	}

	got, err := s.GetRun(saved.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.ProviderA != "lua:rules.lua" || got.ProviderB != "tricks:tricks.json" {
		t.Fatalf("providers mismatch: %+v", got)
	}
	if got.Mismatches != 99 || got.Comparisons != 30720 || got.States != 2560 {
		t.Fatalf("counts mismatch: %+v", got)
	}
	if !got.StartedAt.Equal(started) {
		t.Fatalf("expected started %v, got %v", started, got.StartedAt)
	}
	if got.Duration != 1500*time.Millisecond {
		t.Fatalf("expected 1.5s, got %v", got.Duration)
	}
	if got.ReportPath != "results/compare.txt" {
		t.Fatalf("expected report path, got %q", got.ReportPath)
	}
}

func TestDivergencesInReportOrder(t *testing.T) {
	s := tempDB(t)
	sp := inventory.DefaultSpace()
	reg := sampleRegistry(t, sp)

	saved, err := s.SaveRun(Run{ProviderA: "a", ProviderB: "b"}, reg.Entries(), sp)
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	divs, err := s.Divergences(saved.ID)
	if err != nil {
		t.Fatalf("Divergences: %v", err)
	}
	if len(divs) != 3 {
		t.Fatalf("expected 3 divergences, got %d", len(divs))
	}

	first := divs[0]
	if first.Kind != rules.Entrance || first.Target != "Castle -> Keep" || first.APasses {
		t.Fatalf("unexpected first divergence: %+v", first)
	}
	if first.Tier != difficulty.Lunatic || first.Summary != "(no items)" {
		t.Fatalf("unexpected first divergence: %+v", first)
	}

	want := []string{"Slide: 1", "Air Kick: 4"}
	for i, d := range divs[1:] {
		if d.Kind != rules.Location || d.Target != "Chest" || !d.APasses || d.Tier != difficulty.Hard {
			t.Fatalf("unexpected divergence %d: %+v", i+1, d)
		}
		if d.Summary != want[i] {
			t.Fatalf("expected %q, got %q", want[i], d.Summary)
		}
		back, err := sp.Summarize(d.Bits)
		if err != nil {
			t.Fatalf("Summarize: %v", err)
		}
		if back != d.Summary {
			t.Fatalf("bit rep decodes to %q, stored %q", back, d.Summary)
		}
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	s := tempDB(t)
	sp := inventory.DefaultSpace()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	var ids []string
	for i := 0; i < 3; i++ {
		r, err := s.SaveRun(Run{
			ProviderA: "a",
			ProviderB: "b",
			StartedAt: base.Add(time.Duration(i) * time.Hour),
		}, nil, sp)
		if err != nil {
			t.Fatalf("SaveRun %d: %v", i, err)
		}
		ids = append(ids, r.ID)
	}

	runs, err := s.ListRuns(2)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != ids[2] || runs[1].ID != ids[1] {
		t.Fatalf("expected newest first, got %s, %s", runs[0].ID, runs[1].ID)
	}
	if runs[0].ReportPath != "" {
		t.Fatalf("expected empty report path, got %q", runs[0].ReportPath)
	}
}

func TestGetRunMissing(t *testing.T) {
	s := tempDB(t)
	if _, err := s.GetRun("nope"); err == nil {
		t.Fatal("expected error for missing run")
	}
}

func TestDuplicateRunIDRollsBack(t *testing.T) {
	s := tempDB(t)
	sp := inventory.DefaultSpace()
	reg := sampleRegistry(t, sp)

	if _, err := s.SaveRun(Run{ID: "fixed", ProviderA: "a", ProviderB: "b"}, nil, sp); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if _, err := s.SaveRun(Run{ID: "fixed", ProviderA: "a", ProviderB: "b"}, reg.Entries(), sp); err == nil {
		t.Fatal("expected duplicate run ID to fail")
	}

	divs, err := s.Divergences("fixed")
	if err != nil {
		t.Fatalf("Divergences: %v", err)
	}
	if len(divs) != 0 {
		t.Fatalf("expected rollback to leave no divergences, got %d", len(divs))
	}
}
