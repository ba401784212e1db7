package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/chartlab/internal/dataset"
	"github.com/banshee-data/chartlab/internal/monitoring"
	"github.com/banshee-data/chartlab/internal/stats"
)

// ClusterFeatures describe a region's taste profile.
var ClusterFeatures = []string{
	"danceability", "energy", "valence", "tempo",
	"acousticness", "loudness", "speechiness",
}

// ClusterOptions configure the regional clustering.
type ClusterOptions struct {
	K       int
	Seed    int64
	NInit   int
	MaxIter int
}

// RegionProfile is a region's mean feature vector and its cluster.
type RegionProfile struct {
	GroupMeans
	Cluster int
}

// Cluster summarises the regions assigned to one cluster.
type Cluster struct {
	ID      int
	Regions []string
	Means   []float64 // mean of member profiles, aligned with ClusterFeatures
	Mood    string
}

// ClusterResult holds the regional clustering.
type ClusterResult struct {
	Features []string
	Profiles []RegionProfile
	Clusters []Cluster
}

// MoodLabel names a cluster by its energy/valence quadrant, marking highly
// acoustic clusters.
func MoodLabel(energy, valence, acousticness float64) string {
	highEnergy := energy > 0.6
	highValence := valence > 0.5

	var name string
	switch {
	case highEnergy && highValence:
		name = "Upbeat Party"
	case highEnergy:
		name = "Intense & Dark"
	case highValence:
		name = "Chill & Happy"
	default:
		name = "Reflective & Melancholy"
	}
	if acousticness > 0.6 {
		return name + " (Acoustic)"
	}
	return name
}

// Clustering groups regions by their standardised taste profiles with
// k-means. When there are fewer regions than clusters, k is reduced to the
// number of regions.
func Clustering(rows []dataset.EngineeredRow, opts ClusterOptions) (*ClusterResult, error) {
	profiles := meansBy(rows, regionKey, ClusterFeatures)
	if len(profiles) == 0 {
		return nil, fmt.Errorf("no regions to cluster")
	}
	k := opts.K
	if k > len(profiles) {
		monitoring.Logf("Only %d regions; reducing cluster count from %d", len(profiles), k)
		k = len(profiles)
	}

	raw := mat.NewDense(len(profiles), len(ClusterFeatures), nil)
	for i, p := range profiles {
		raw.SetRow(i, p.Means)
	}
	scaled := stats.StandardScale(raw)
	r, c := scaled.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if math.IsNaN(scaled.At(i, j)) {
				scaled.Set(i, j, 0)
			}
		}
	}

	km, err := stats.KMeans(scaled, stats.KMeansOptions{K: k, Seed: opts.Seed, NInit: opts.NInit, MaxIter: opts.MaxIter})
	if err != nil {
		return nil, fmt.Errorf("failed to cluster regions: %w", err)
	}

	res := &ClusterResult{Features: ClusterFeatures}
	for i, p := range profiles {
		res.Profiles = append(res.Profiles, RegionProfile{GroupMeans: p, Cluster: km.Labels[i]})
	}
	for id := 0; id < k; id++ {
		cl := Cluster{ID: id, Means: make([]float64, len(ClusterFeatures))}
		var members []RegionProfile
		for _, p := range res.Profiles {
			if p.Cluster == id {
				members = append(members, p)
				cl.Regions = append(cl.Regions, p.Key)
			}
		}
		for j := range ClusterFeatures {
			xs := make([]float64, 0, len(members))
			for _, m := range members {
				if !math.IsNaN(m.Means[j]) {
					xs = append(xs, m.Means[j])
				}
			}
			cl.Means[j] = math.NaN()
			if len(xs) > 0 {
				cl.Means[j] = stat.Mean(xs, nil)
			}
		}
		g := GroupMeans{Means: cl.Means}
		cl.Mood = MoodLabel(
			g.Mean(ClusterFeatures, "energy"),
			g.Mean(ClusterFeatures, "valence"),
			g.Mean(ClusterFeatures, "acousticness"),
		)
		res.Clusters = append(res.Clusters, cl)
	}
	return res, nil
}
