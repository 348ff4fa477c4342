package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/san-kum/hvasim/internal/config"
)

var (
	ErrRunNotFound       = errors.New("run not found")
	ErrConditionNotFound = errors.New("condition not found")
	ErrNoBundles         = errors.New("no bundles to save")
)

const (
	metadataFile = "metadata.json"
	catalogFile  = "catalog.db"
)

type Store struct {
	baseDir string
	db      *sql.DB
}

// Open prepares baseDir and its run catalog.
func Open(ctx context.Context, baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(baseDir, catalogFile)
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := InitSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{baseDir: baseDir, db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Dir() string { return s.baseDir }

type RunMetadata struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Timestamp   time.Time          `json:"timestamp"`
	Description string             `json:"description"`
	Seed        int64              `json:"seed"`
	Dt          float64            `json:"dt"`
	Integrator  string             `json:"integrator"`
	SimTime     float64            `json:"sim_time"`
	Settings    *config.Settings   `json:"settings"`
	Conditions  []config.Condition `json:"conditions"`
}

// RunSummary is one catalog row as returned by List.
type RunSummary struct {
	ID          string
	Name        string
	Description string
	Seed        int64
	Dt          float64
	Integrator  string
	SimTime     float64
	CreatedAt   time.Time
	Conditions  int
	Spikes      int
}

// Save writes one bundle file per condition plus the run metadata and
// indexes the run in the catalog. An empty runID derives one from name.
// Saving under an existing runID replaces that run entirely. The files are
// staged in a temporary directory, so a failed save leaves any previous
// run with that id as it was.
func (s *Store) Save(ctx context.Context, runID, name string, bundles []*Bundle) (string, error) {
	if len(bundles) == 0 {
		return "", ErrNoBundles
	}
	first := bundles[0]
	if first.Settings == nil {
		return "", fmt.Errorf("bundle %s has no settings", first.Condition.Label)
	}

	now := time.Now()
	if runID == "" {
		runID = s.newRunID(name, now)
	} else if err := checkRunID(runID); err != nil {
		return "", err
	}

	stage, err := os.MkdirTemp(s.baseDir, "."+runID+".tmp-")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(stage)
	if err := os.Chmod(stage, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:          runID,
		Name:        name,
		Timestamp:   now,
		Description: first.Description,
		Seed:        first.Seed,
		Dt:          first.Settings.Dt,
		Integrator:  first.Settings.Integrator,
		SimTime:     first.SimTime(),
		Settings:    first.Settings,
		Conditions:  make([]config.Condition, len(bundles)),
	}
	for i, b := range bundles {
		meta.Conditions[i] = b.Condition
		if err := writeJSON(filepath.Join(stage, bundleFile(b.Condition.Label)), b, false); err != nil {
			return "", fmt.Errorf("write bundle %s: %w", b.Condition.Label, err)
		}
	}
	if err := writeJSON(filepath.Join(stage, metadataFile), meta, true); err != nil {
		return "", fmt.Errorf("write metadata: %w", err)
	}

	if err := s.index(ctx, meta, bundles, stage); err != nil {
		return "", err
	}
	return runID, nil
}

// index records the run in the catalog and moves the staged directory into
// place before committing. A failed commit removes both.
func (s *Store) index(ctx context.Context, meta RunMetadata, bundles []*Bundle, stage string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs (id, name, description, seed, dt, integrator, sim_time, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		meta.ID, meta.Name, meta.Description, meta.Seed, meta.Dt, meta.Integrator, meta.SimTime,
		meta.Timestamp.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to index run: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM conditions WHERE run_id = ?", meta.ID); err != nil {
		return fmt.Errorf("failed to clear conditions: %w", err)
	}

	for _, b := range bundles {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO conditions (run_id, idx, label, kind, rate, file, spikes)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			meta.ID, b.Condition.Index, b.Condition.Label, string(b.Condition.Kind),
			b.Condition.Rate, bundleFile(b.Condition.Label), b.spikeCount())
		if err != nil {
			return fmt.Errorf("failed to index condition %s: %w", b.Condition.Label, err)
		}
	}

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.RemoveAll(runDir); err != nil {
		return fmt.Errorf("failed to clear run directory: %w", err)
	}
	if err := os.Rename(stage, runDir); err != nil {
		return fmt.Errorf("failed to move run into place: %w", err)
	}

	if err := tx.Commit(); err != nil {
		os.RemoveAll(runDir)
		s.db.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", meta.ID)
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// List returns the catalogued runs, newest first.
func (s *Store) List(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.name, COALESCE(r.description, ''), r.seed, r.dt, r.integrator, r.sim_time, r.created_at,
		       COUNT(c.label), COALESCE(SUM(c.spikes), 0)
		FROM runs r
		LEFT JOIN conditions c ON c.run_id = r.id
		GROUP BY r.id
		ORDER BY r.created_at DESC, r.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := make([]RunSummary, 0)
	for rows.Next() {
		var (
			r       RunSummary
			created string
		)
		if err := rows.Scan(&r.ID, &r.Name, &r.Description, &r.Seed, &r.Dt, &r.Integrator,
			&r.SimTime, &created, &r.Conditions, &r.Spikes); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if r.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("run %s: bad created_at %q: %w", r.ID, created, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Load reads a run's metadata.
func (s *Store) Load(runID string) (*RunMetadata, error) {
	if err := checkRunID(runID); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode metadata for %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadBundles reads the bundles of a run in condition order. With labels
// given only those conditions are loaded.
func (s *Store) LoadBundles(runID string, labels ...string) ([]*Bundle, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}

	conds := meta.Conditions
	if len(labels) > 0 {
		byLabel := make(map[string]config.Condition, len(conds))
		for _, c := range conds {
			byLabel[c.Label] = c
		}
		conds = make([]config.Condition, 0, len(labels))
		for _, l := range labels {
			c, ok := byLabel[l]
			if !ok {
				return nil, fmt.Errorf("%w: %s in run %s", ErrConditionNotFound, l, runID)
			}
			conds = append(conds, c)
		}
	}

	bundles := make([]*Bundle, 0, len(conds))
	for _, c := range conds {
		data, err := os.ReadFile(filepath.Join(s.baseDir, runID, bundleFile(c.Label)))
		if err != nil {
			return nil, fmt.Errorf("read bundle %s: %w", c.Label, err)
		}
		var b Bundle
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, fmt.Errorf("decode bundle %s: %w", c.Label, err)
		}
		bundles = append(bundles, &b)
	}
	return bundles, nil
}

// Delete removes a run directory and its catalog rows.
func (s *Store) Delete(ctx context.Context, runID string) error {
	if err := checkRunID(runID); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", runID)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	n, _ := res.RowsAffected()

	runDir := filepath.Join(s.baseDir, runID)
	if _, err := os.Stat(runDir); err != nil {
		if errors.Is(err, os.ErrNotExist) && n == 0 {
			return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	}
	return os.RemoveAll(runDir)
}

func (s *Store) newRunID(name string, now time.Time) string {
	if name == "" {
		name = "run"
	}
	base := fmt.Sprintf("%s_%s", name, now.Format("20060102_150405"))
	id := base
	for i := 2; ; i++ {
		if _, err := os.Stat(filepath.Join(s.baseDir, id)); errors.Is(err, os.ErrNotExist) {
			return id
		}
		id = fmt.Sprintf("%s_%d", base, i)
	}
}

func checkRunID(runID string) error {
	if runID == "" || runID == "." || runID == ".." || strings.ContainsAny(runID, `/\`) {
		return fmt.Errorf("invalid run id %q", runID)
	}
	return nil
}

func writeJSON(path string, v any, indent bool) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
