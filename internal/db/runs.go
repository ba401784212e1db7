package db

import (
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/chartlab/internal/analysis"
	"github.com/banshee-data/chartlab/internal/dataset"
	"github.com/banshee-data/chartlab/internal/timeutil"
)

// insertBatchSize is the number of observation rows committed per transaction.
const insertBatchSize = 5000

// Run is one load of an engineered dataset into the store.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt *time.Time
	Rows       int
	SourcePath string
}

// nullFloat maps NaN to SQL NULL.
func nullFloat(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: !math.IsNaN(v)}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// RecordRun starts a new run stamped with the clock's current time.
func (db *DB) RecordRun(sourcePath string, clock timeutil.Clock) (*Run, error) {
	run := &Run{
		ID:         uuid.NewString(),
		StartedAt:  clock.Now().UTC(),
		SourcePath: sourcePath,
	}
	_, err := db.Exec(
		`INSERT INTO analysis_runs (run_id, started_at, source_path) VALUES (?, ?, ?)`,
		run.ID, run.StartedAt.Format(time.RFC3339Nano), run.SourcePath,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}
	return run, nil
}

// FinishRun stamps the run's completion time and row count.
func (db *DB) FinishRun(run *Run, rows int, clock timeutil.Clock) error {
	finished := clock.Now().UTC()
	res, err := db.Exec(
		`UPDATE analysis_runs SET finished_at = ?, row_count = ? WHERE run_id = ?`,
		finished.Format(time.RFC3339Nano), rows, run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", run.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", run.ID)
	}
	run.FinishedAt = &finished
	run.Rows = rows
	return nil
}

// Runs returns every run, newest first.
func (db *DB) Runs() ([]Run, error) {
	rows, err := db.Query(`SELECT run_id, started_at, finished_at, row_count, source_path
		FROM analysis_runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r        Run
			started  string
			finished sql.NullString
		)
		if err := rows.Scan(&r.ID, &started, &finished, &r.Rows, &r.SourcePath); err != nil {
			return nil, err
		}
		if r.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("run %s: invalid started_at: %w", r.ID, err)
		}
		if finished.Valid {
			t, err := time.Parse(time.RFC3339Nano, finished.String)
			if err != nil {
				return nil, fmt.Errorf("run %s: invalid finished_at: %w", r.ID, err)
			}
			r.FinishedAt = &t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// InsertObservations stores the engineered rows of a run, committing in
// batches so a multi-million row load does not hold one huge transaction.
func (db *DB) InsertObservations(runID string, obs []dataset.EngineeredRow) error {
	for start := 0; start < len(obs); start += insertBatchSize {
		end := min(start+insertBatchSize, len(obs))
		if err := db.insertObservationBatch(runID, obs[start:end]); err != nil {
			return fmt.Errorf("failed to insert observations %d-%d: %w", start, end, err)
		}
	}
	return nil
}

func (db *DB) insertObservationBatch(runID string, batch []dataset.EngineeredRow) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO chart_observations (
			run_id, track_id, region, date, rank, streams, macro_genre, mood,
			trend_score, party_score, chill_score, weeks_in_chart, peak_position
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range batch {
		r := &batch[i]
		if _, err := stmt.Exec(
			runID, r.TrackID, r.Region, r.Date.Format(time.DateOnly), r.Rank,
			nullFloat(r.Streams), nullString(r.MacroGenre), nullString(r.Mood),
			nullFloat(r.TrendScore), nullFloat(r.PartyScore), nullFloat(r.ChillScore),
			r.WeeksInChart, r.PeakPosition,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// CountObservations returns the number of stored observations of a run.
func (db *DB) CountObservations(runID string) (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM chart_observations WHERE run_id = ?`, runID).Scan(&n)
	return n, err
}

// InsertANOVA stores the regional ANOVA tests of a run.
func (db *DB) InsertANOVA(runID string, tests []analysis.FeatureTest) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, t := range tests {
		if _, err := tx.Exec(
			`INSERT INTO anova_results (run_id, feature, f_statistic, p_value, significant) VALUES (?, ?, ?, ?, ?)`,
			runID, t.Feature, nullFloat(finite(t.F)), nullFloat(t.P), t.Significant,
		); err != nil {
			return fmt.Errorf("failed to insert anova result for %s: %w", t.Feature, err)
		}
	}
	return tx.Commit()
}

// finite maps infinities to NaN so they are stored as NULL.
func finite(v float64) float64 {
	if math.IsInf(v, 0) {
		return math.NaN()
	}
	return v
}

// ANOVAResults returns the stored tests of a run in feature order of insertion.
func (db *DB) ANOVAResults(runID string) ([]analysis.FeatureTest, error) {
	rows, err := db.Query(`SELECT feature, f_statistic, p_value, significant
		FROM anova_results WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []analysis.FeatureTest
	for rows.Next() {
		var (
			t    analysis.FeatureTest
			f, p sql.NullFloat64
		)
		if err := rows.Scan(&t.Feature, &f, &p, &t.Significant); err != nil {
			return nil, err
		}
		t.F, t.P = math.NaN(), math.NaN()
		if f.Valid {
			t.F = f.Float64
		}
		if p.Valid {
			t.P = p.Float64
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// InsertClusters stores each region's profile and cluster assignment.
func (db *DB) InsertClusters(runID string, c *analysis.ClusterResult) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, p := range c.Profiles {
		m := func(name string) sql.NullFloat64 { return nullFloat(p.Mean(c.Features, name)) }
		if _, err := tx.Exec(
			`INSERT INTO region_clusters (
				run_id, region, cluster, danceability, energy, valence, tempo,
				acousticness, loudness, speechiness
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, p.Key, p.Cluster,
			m("danceability"), m("energy"), m("valence"), m("tempo"),
			m("acousticness"), m("loudness"), m("speechiness"),
		); err != nil {
			return fmt.Errorf("failed to insert cluster for %s: %w", p.Key, err)
		}
	}
	return tx.Commit()
}

// RegionClusters returns region -> cluster for a run.
func (db *DB) RegionClusters(runID string) (map[string]int, error) {
	rows, err := db.Query(`SELECT region, cluster FROM region_clusters WHERE run_id = ?`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var (
			region  string
			cluster int
		)
		if err := rows.Scan(&region, &cluster); err != nil {
			return nil, err
		}
		out[region] = cluster
	}
	return out, rows.Err()
}
