package storage

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"alpha_premarket/internal/models"
)

const (
	portfolioFile = "portfolio.json"
	watchlistFile = "watchlist.json"
)

// Repository persists portfolio state, the watchlist and per-day action runs
// as JSON files under a single data directory. It is the only component that
// touches disk; the decision engine works purely on the loaded snapshot.
//
// The store is single-writer: concurrent runs against the same directory must
// be serialized by the caller.
type Repository struct {
	dir string
}

// NewRepository returns a repository rooted at dir, creating it if needed.
func NewRepository(dir string) (*Repository, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Repository{dir: dir}, nil
}

// LoadPortfolio reads the portfolio state. A missing file yields a fresh empty
// portfolio, written immediately so the next run finds it.
func (r *Repository) LoadPortfolio() (models.Portfolio, error) {
	path := filepath.Join(r.dir, portfolioFile)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Println("Portfolio file missing, generating template...")
		pf := models.NewPortfolio()
		if err := r.SavePortfolio(pf); err != nil {
			return pf, err
		}
		return pf, nil
	}

	// Decode into a zero value so a legacy file without a version field is
	// seen as such by the migration, not masked by a pre-seeded current one.
	var pf models.Portfolio
	b, err := os.ReadFile(path)
	if err != nil {
		return pf, err
	}
	if err := json.Unmarshal(b, &pf); err != nil {
		return pf, fmt.Errorf("parse %s: %w", path, err)
	}
	if pf.Positions == nil {
		pf.Positions = map[string]models.Position{}
	}

	if migratePortfolio(&pf) {
		log.Printf("Portfolio schema migrated to version %s, saving...", pf.Version)
		if err := r.SavePortfolio(pf); err != nil {
			return pf, err
		}
	}
	return pf, nil
}

// migratePortfolio handles schema evolution. Returns true when the state
// changed and needs to be saved.
func migratePortfolio(pf *models.Portfolio) bool {
	updated := false

	// 1.0 -> 1.1: high_since_entry added. Backfill from cost basis so the
	// trailing stop has a floor to grow from.
	if pf.Version == "" || pf.Version < "1.1" {
		for symbol, pos := range pf.Positions {
			if pos.HighSinceEntry.IsZero() {
				pos.HighSinceEntry = pos.AvgPrice
				pf.Positions[symbol] = pos
			}
		}
		pf.Version = "1.1"
		updated = true
	}

	return updated
}

// SavePortfolio writes the portfolio with an updated timestamp.
func (r *Repository) SavePortfolio(pf models.Portfolio) error {
	pf.Updated = time.Now().Format(models.DateLayout)
	return writeJSONAtomic(filepath.Join(r.dir, portfolioFile), pf)
}

// LoadWatchlist reads the watchlist; a missing file yields an empty one.
func (r *Repository) LoadWatchlist() (models.Watchlist, error) {
	var wl models.Watchlist
	b, err := os.ReadFile(filepath.Join(r.dir, watchlistFile))
	if os.IsNotExist(err) {
		return wl, nil
	}
	if err != nil {
		return wl, err
	}
	if err := json.Unmarshal(b, &wl); err != nil {
		return wl, fmt.Errorf("parse watchlist: %w", err)
	}
	return wl, nil
}

// SaveWatchlist writes the watchlist with an updated timestamp.
func (r *Repository) SaveWatchlist(wl models.Watchlist) error {
	wl.Updated = time.Now().Format(models.DateLayout)
	return writeJSONAtomic(filepath.Join(r.dir, watchlistFile), wl)
}

// runPath returns the actions file for a given day, e.g. actions_20260115.json.
func (r *Repository) runPath(date time.Time) string {
	return filepath.Join(r.dir, fmt.Sprintf("actions_%s.json", date.Format("20060102")))
}

// LoadRun reads a previously generated action run for the given day.
func (r *Repository) LoadRun(date time.Time) (models.ActionRun, error) {
	var run models.ActionRun
	path := r.runPath(date)
	b, err := os.ReadFile(path)
	if err != nil {
		return run, err
	}
	if err := json.Unmarshal(b, &run); err != nil {
		return run, fmt.Errorf("parse %s: %w", path, err)
	}
	return run, nil
}

// SaveRun persists an action run, keyed by its date. Action IDs must survive
// this round trip unchanged so confirmation can reference them.
func (r *Repository) SaveRun(run models.ActionRun) error {
	date, err := time.Parse(models.DateLayout, run.Date)
	if err != nil {
		return fmt.Errorf("run has invalid date %q: %w", run.Date, err)
	}
	return writeJSONAtomic(r.runPath(date), run)
}

// writeJSONAtomic writes pretty-printed JSON via a temp file in the same
// directory, fsyncs, then renames over the destination.
func writeJSONAtomic(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(b); err != nil {
		return err
	}
	// Force to disk before the rename so a crash never leaves a torn file.
	if err := f.Sync(); err != nil {
		return err
	}
	// Close explicitly before renaming (required on Windows).
	f.Close()

	return os.Rename(tmp, path)
}
