package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/rulecheck/internal/difficulty"
	"github.com/danielpatrickdp/rulecheck/internal/divergence"
	"github.com/danielpatrickdp/rulecheck/internal/inventory"
	"github.com/danielpatrickdp/rulecheck/internal/rules"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id       TEXT PRIMARY KEY,
	provider_a   TEXT NOT NULL,
	provider_b   TEXT NOT NULL,
	states       INTEGER NOT NULL,
	targets      INTEGER NOT NULL,
	comparisons  INTEGER NOT NULL,
	mismatches   INTEGER NOT NULL,
	keys         INTEGER NOT NULL,
	examples     INTEGER NOT NULL,
	report_path  TEXT,
	started_at   TEXT NOT NULL,
	duration_ms  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS divergences (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id       TEXT NOT NULL,
	kind         TEXT NOT NULL,
	target       TEXT NOT NULL,
	tier         INTEGER NOT NULL,
	a_passes     INTEGER NOT NULL,
	bit_rep      INTEGER NOT NULL,
	summary      TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE INDEX IF NOT EXISTS idx_divergences_run ON divergences(run_id);
`

// #endregion schema

// #region store-struct
// Store keeps comparison runs and their divergences in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// #endregion constructor

// #region save-run
// SaveRun stores run and every example of entries in one transaction. An
// empty run ID is replaced by a new UUID; the stored run is returned.
func (s *Store) SaveRun(run Run, entries []divergence.Entry, sp *inventory.Space) (Run, error) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	run.Keys = len(entries)
	run.Examples = 0
	for _, e := range entries {
		run.Examples += len(e.Examples)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return Run{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (run_id, provider_a, provider_b, states, targets, comparisons, mismatches, keys, examples, report_path, started_at, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.ProviderA, run.ProviderB, run.States, run.Targets, run.Comparisons,
		run.Mismatches, run.Keys, run.Examples, nullIfEmpty(run.ReportPath),
		run.StartedAt.UTC().Format(time.RFC3339Nano), run.Duration.Milliseconds(),
	)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO divergences (run_id, kind, target, tier, a_passes, bit_rep, summary)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return Run{}, fmt.Errorf("prepare divergence insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		for _, ex := range e.Examples {
			summary, err := sp.Summarize(ex.Bits)
			if err != nil {
				return Run{}, fmt.Errorf("save run: %w", err)
			}
			_, err = stmt.Exec(run.ID, e.Key.Kind.String(), e.Key.Target, int(e.Key.Tier),
				boolToInt(e.Key.APasses), int64(ex.Bits), summary)
			if err != nil {
				return Run{}, fmt.Errorf("insert divergence: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("commit: %w", err)
	}
	return run, nil
}

// #endregion save-run

// #region read
// GetRun retrieves one run by ID.
func (s *Store) GetRun(id string) (Run, error) {
	row := s.db.QueryRow(
		`SELECT run_id, provider_a, provider_b, states, targets, comparisons, mismatches, keys, examples, report_path, started_at, duration_ms
		 FROM runs WHERE run_id = ?`, id,
	)
	run, err := scanRun(row)
	if err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	rows, err := s.db.Query(
		`SELECT run_id, provider_a, provider_b, states, targets, comparisons, mismatches, keys, examples, report_path, started_at, duration_ms
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Divergences returns the examples of a run in report order.
func (s *Store) Divergences(runID string) ([]Divergence, error) {
	rows, err := s.db.Query(
		`SELECT kind, target, tier, a_passes, bit_rep, summary FROM divergences
		 WHERE run_id = ?
		 ORDER BY CASE kind WHEN 'entrance' THEN 0 ELSE 1 END, target, tier, a_passes DESC, id`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list divergences: %w", err)
	}
	defer rows.Close()

	var out []Divergence
	for rows.Next() {
		var d Divergence
		var kind string
		var tier, aPasses int
		var bits int64
		if err := rows.Scan(&kind, &d.Target, &tier, &aPasses, &bits, &d.Summary); err != nil {
			return nil, fmt.Errorf("scan divergence: %w", err)
		}
		if d.Kind, err = rules.ParseKind(kind); err != nil {
			return nil, fmt.Errorf("scan divergence: %w", err)
		}
		d.Tier = difficulty.Tier(tier)
		d.APasses = aPasses != 0
		d.Bits = inventory.BitRep(uint64(bits))
		out = append(out, d)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var run Run
	var reportPath sql.NullString
	var startedStr string
	var durationMs int64
	err := sc.Scan(&run.ID, &run.ProviderA, &run.ProviderB, &run.States, &run.Targets,
		&run.Comparisons, &run.Mismatches, &run.Keys, &run.Examples, &reportPath,
		&startedStr, &durationMs)
	if err != nil {
		return Run{}, err
	}
	if reportPath.Valid {
		run.ReportPath = reportPath.String
	}
	run.StartedAt, _ = time.Parse(time.RFC3339Nano, startedStr)
	run.Duration = time.Duration(durationMs) * time.Millisecond
	return run, nil
}

// #endregion read

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// #endregion helpers
