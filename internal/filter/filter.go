// Package filter reduces the raw Spotify charts export to the date range,
// regions, and chart depth the analysis uses.
package filter

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"time"

	"github.com/banshee-data/chartlab/internal/dataset"
	"github.com/banshee-data/chartlab/internal/fsutil"
	"github.com/banshee-data/chartlab/internal/monitoring"
)

var trackIDPattern = regexp.MustCompile(`track/([a-zA-Z0-9]+)`)

// ExtractTrackID returns the Spotify track id embedded in a track URL, or ""
// when the URL carries none.
func ExtractTrackID(url string) string {
	m := trackIDPattern.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	return m[1]
}

// Options selects which chart rows survive.
type Options struct {
	StartDate time.Time // inclusive
	Regions   []string
	TopRank   int // inclusive
}

// Result summarises one filter run.
type Result struct {
	InputRows   int
	AfterDate   int
	AfterRegion int
	AfterRank   int
	NoRank      int // rows dropped by the rank filter for an empty rank
	WithTrackID int
	Duplicates  int
	OutputRows  int

	InputFirst, InputLast   time.Time
	OutputFirst, OutputLast time.Time

	// AvailableRegions are the regions present after the date filter, sorted.
	AvailableRegions []string
	// RegionsKept are the requested regions that were available, in request order.
	RegionsKept []string
	// OutputRegions are the regions in the output, in order of first appearance.
	OutputRegions []string
}

// EstimatedSizeMB approximates the output size at ~200 bytes per row.
func (r *Result) EstimatedSizeMB() float64 {
	return float64(r.OutputRows) * 200 / 1_000_000
}

type dedupeKey struct {
	title  string
	date   time.Time
	region string
}

func widen(first, last *time.Time, t time.Time) {
	if first.IsZero() || t.Before(*first) {
		*first = t
	}
	if last.IsZero() || t.After(*last) {
		*last = t
	}
}

// Filter streams chart rows from r to w. Rows are kept when they are on or
// after StartDate, in one of Regions, and ranked at or above TopRank; rows
// with an empty rank are dropped. Each
// kept row gets a track id parsed from its URL; repeated (title, date,
// region) rows keep only the first occurrence.
func Filter(r io.Reader, w io.Writer, opts Options) (*Result, error) {
	res := &Result{}
	wanted := make(map[string]bool, len(opts.Regions))
	for _, region := range opts.Regions {
		wanted[region] = true
	}
	available := make(map[string]bool)
	seen := make(map[dedupeKey]struct{})
	outRegions := make(map[string]bool)

	out := dataset.ChartSchema.NewWriter(w)
	err := dataset.ChartSchema.Read(r, func(e dataset.ChartEntry) error {
		res.InputRows++
		widen(&res.InputFirst, &res.InputLast, e.Date)

		if e.Date.Before(opts.StartDate) {
			return nil
		}
		res.AfterDate++
		available[e.Region] = true

		if !wanted[e.Region] {
			return nil
		}
		res.AfterRegion++

		if e.Rank == dataset.MissingRank {
			res.NoRank++
			return nil
		}
		if e.Rank > opts.TopRank {
			return nil
		}
		res.AfterRank++

		e.TrackID = ExtractTrackID(e.URL)
		if e.TrackID != "" {
			res.WithTrackID++
		}

		key := dedupeKey{title: e.Title, date: e.Date, region: e.Region}
		if _, dup := seen[key]; dup {
			res.Duplicates++
			return nil
		}
		seen[key] = struct{}{}

		widen(&res.OutputFirst, &res.OutputLast, e.Date)
		if !outRegions[e.Region] {
			outRegions[e.Region] = true
			res.OutputRegions = append(res.OutputRegions, e.Region)
		}
		res.OutputRows++
		return out.Write(&e)
	})
	if err != nil {
		return nil, err
	}
	if err := out.Flush(); err != nil {
		return nil, fmt.Errorf("failed to write filtered charts: %w", err)
	}

	for region := range available {
		res.AvailableRegions = append(res.AvailableRegions, region)
	}
	sort.Strings(res.AvailableRegions)
	for _, region := range opts.Regions {
		if available[region] {
			res.RegionsKept = append(res.RegionsKept, region)
		}
	}
	return res, nil
}

// Run filters the file at in and writes the result to out.
func Run(fsys fsutil.FileSystem, in, out string, opts Options) (*Result, error) {
	monitoring.Section("Filtering Spotify charts dataset")

	if !fsys.Exists(in) {
		return nil, fmt.Errorf("could not find %s: please ensure the raw charts export exists: %w", in, os.ErrNotExist)
	}
	monitoring.Logf("Loading %s...", in)

	src, err := fsys.Open(in)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", in, err)
	}
	defer src.Close()

	dst, err := fsutil.CreateAll(fsys, out)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", out, err)
	}

	res, err := Filter(src, dst, opts)
	if err != nil {
		dst.Close()
		return nil, fmt.Errorf("failed to filter %s: %w", in, err)
	}
	if err := dst.Close(); err != nil {
		return nil, fmt.Errorf("failed to close %s: %w", out, err)
	}

	res.Log(opts)
	monitoring.Logf("Filtered dataset saved to: %s", out)
	return res, nil
}

// Log writes the per-step summary.
func (r *Result) Log(opts Options) {
	monitoring.Logf("Original rows: %d", r.InputRows)
	monitoring.Logf("Date range: %s to %s", fmtDate(r.InputFirst), fmtDate(r.InputLast))
	monitoring.Logf("Filtering by date (%s onwards)...", opts.StartDate.Format(dataset.DateLayout))
	monitoring.Logf("   After date filter: %d", r.AfterDate)
	monitoring.Logf("Available regions: %v", r.AvailableRegions)
	monitoring.Logf("   Keeping regions: %v", r.RegionsKept)
	monitoring.Logf("   After region filter: %d", r.AfterRegion)
	monitoring.Logf("Filtering by rank (top %d only)...", opts.TopRank)
	monitoring.Logf("   After rank filter: %d (%d without a rank)", r.AfterRank, r.NoRank)
	monitoring.Logf("   Track IDs extracted: %d / %d", r.WithTrackID, r.AfterRank)
	monitoring.Logf("   Removed %d duplicate rows", r.Duplicates)
	monitoring.Logf("Final rows: %d, date range %s to %s, regions %v",
		r.OutputRows, fmtDate(r.OutputFirst), fmtDate(r.OutputLast), r.OutputRegions)
	monitoring.Logf("Estimated size: ~%.1f MB", r.EstimatedSizeMB())
}

func fmtDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(dataset.DateLayout)
}
