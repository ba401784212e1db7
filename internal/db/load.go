package db

import (
	"fmt"

	"github.com/banshee-data/chartlab/internal/analysis"
	"github.com/banshee-data/chartlab/internal/dataset"
	"github.com/banshee-data/chartlab/internal/fsutil"
	"github.com/banshee-data/chartlab/internal/monitoring"
	"github.com/banshee-data/chartlab/internal/timeutil"
)

// Load reads the engineered dataset at path into a new run together with its
// regional ANOVA and cluster assignments.
func (db *DB) Load(fsys fsutil.FileSystem, path string, opts analysis.Options, clock timeutil.Clock) (*Run, error) {
	monitoring.Section("Loading dataset into " + db.Path())

	rows, err := dataset.EngineeredSchema.Load(fsys, path)
	if err != nil {
		return nil, err
	}
	regional, err := analysis.RegionalAudio(rows, opts.Significance)
	if err != nil {
		return nil, fmt.Errorf("regional audio analysis: %w", err)
	}
	clusters, err := analysis.Clustering(rows, opts.Clusters)
	if err != nil {
		return nil, fmt.Errorf("clustering analysis: %w", err)
	}

	run, err := db.RecordRun(path, clock)
	if err != nil {
		return nil, err
	}
	monitoring.Logf("Run %s started", run.ID)

	if err := db.InsertObservations(run.ID, rows); err != nil {
		return nil, err
	}
	monitoring.Step(1, fmt.Sprintf("%d chart observations", len(rows)))
	if err := db.InsertANOVA(run.ID, regional.Tests); err != nil {
		return nil, err
	}
	monitoring.Step(2, fmt.Sprintf("%d ANOVA results", len(regional.Tests)))
	if err := db.InsertClusters(run.ID, clusters); err != nil {
		return nil, err
	}
	monitoring.Step(3, fmt.Sprintf("%d region clusters", len(clusters.Profiles)))

	if err := db.FinishRun(run, len(rows), clock); err != nil {
		return nil, err
	}
	monitoring.Logf("Run %s finished in %s", run.ID, run.FinishedAt.Sub(run.StartedAt))
	return run, nil
}
