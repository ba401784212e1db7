// Package dataset defines the typed tables that flow between pipeline stages
// and the CSV codec used to read and write them.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/chartlab/internal/fsutil"
)

// ErrMissingColumn is returned when a required column is absent from a header.
var ErrMissingColumn = errors.New("missing required column")

// DateLayout is the calendar date format written to every CSV.
const DateLayout = "2006-01-02"

// Field maps one CSV column onto a field of T.
type Field[T any] struct {
	Name     string
	Required bool
	format   func(*T) string
	parse    func(*T, string) error
}

// Require marks the column as mandatory when reading.
func (f Field[T]) Require() Field[T] {
	f.Required = true
	return f
}

// String maps a text column.
func String[T any](name string, ptr func(*T) *string) Field[T] {
	return Field[T]{
		Name:   name,
		format: func(r *T) string { return *ptr(r) },
		parse: func(r *T, s string) error {
			*ptr(r) = s
			return nil
		},
	}
}

// Float maps a numeric column. Empty or malformed cells read as NaN and NaN
// writes as an empty cell.
func Float[T any](name string, ptr func(*T) *float64) Field[T] {
	return Field[T]{
		Name:   name,
		format: func(r *T) string { return FormatFloat(*ptr(r)) },
		parse: func(r *T, s string) error {
			*ptr(r) = ParseFloat(s)
			return nil
		},
	}
}

// Int maps an integer column. Empty cells read as zero; "3.0" style cells are
// accepted.
func Int[T any](name string, ptr func(*T) *int) Field[T] {
	return Field[T]{
		Name:   name,
		format: func(r *T) string { return strconv.Itoa(*ptr(r)) },
		parse: func(r *T, s string) error {
			s = strings.TrimSpace(s)
			if s == "" {
				*ptr(r) = 0
				return nil
			}
			if v, err := strconv.Atoi(s); err == nil {
				*ptr(r) = v
				return nil
			}
			f, err := strconv.ParseFloat(s, 64)
			if err != nil || math.IsNaN(f) {
				return fmt.Errorf("invalid integer %q", s)
			}
			*ptr(r) = int(f)
			return nil
		},
	}
}

// IntOr maps an integer column whose empty cells read as missing, and
// missing writes back as an empty cell. Malformed cells are still errors.
func IntOr[T any](name string, ptr func(*T) *int, missing int) Field[T] {
	f := Int(name, ptr)
	parse := f.parse
	f.format = func(r *T) string {
		if v := *ptr(r); v != missing {
			return strconv.Itoa(v)
		}
		return ""
	}
	f.parse = func(r *T, s string) error {
		if strings.TrimSpace(s) == "" {
			*ptr(r) = missing
			return nil
		}
		return parse(r, s)
	}
	return f
}

// Date maps a YYYY-MM-DD column. A trailing time component is ignored.
func Date[T any](name string, ptr func(*T) *time.Time) Field[T] {
	return Field[T]{
		Name: name,
		format: func(r *T) string {
			t := *ptr(r)
			if t.IsZero() {
				return ""
			}
			return t.Format(DateLayout)
		},
		parse: func(r *T, s string) error {
			s = strings.TrimSpace(s)
			if s == "" {
				*ptr(r) = time.Time{}
				return nil
			}
			if len(s) > len(DateLayout) {
				s = s[:len(DateLayout)]
			}
			t, err := time.Parse(DateLayout, s)
			if err != nil {
				return fmt.Errorf("invalid date %q", s)
			}
			*ptr(r) = t
			return nil
		},
	}
}

// FormatFloat renders v in shortest form; NaN renders empty.
func FormatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ParseFloat parses a numeric cell, returning NaN for empty or malformed input.
func ParseFloat(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// Schema is an ordered list of column mappings for records of type T.
type Schema[T any] struct {
	fields []Field[T]
}

// NewSchema builds a schema; column order on write follows field order.
func NewSchema[T any](fields ...Field[T]) Schema[T] {
	return Schema[T]{fields: fields}
}

// Header returns the column names in write order.
func (s Schema[T]) Header() []string {
	h := make([]string, len(s.fields))
	for i, f := range s.fields {
		h[i] = f.Name
	}
	return h
}

// Encode renders one record in header order.
func (s Schema[T]) Encode(rec *T) []string {
	row := make([]string, len(s.fields))
	for i, f := range s.fields {
		row[i] = f.format(rec)
	}
	return row
}

// Read streams records from r, calling fn for each. Columns not in the schema
// are ignored; optional schema columns missing from the header read as empty.
func (s Schema[T]) Read(r io.Reader, fn func(T) error) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return fmt.Errorf("empty CSV: no header row")
	}
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}

	index := make([]int, len(s.fields))
	positions := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		if _, dup := positions[name]; !dup {
			positions[name] = i
		}
	}
	for i, f := range s.fields {
		pos, ok := positions[f.Name]
		if !ok {
			if f.Required {
				return fmt.Errorf("%w: %s", ErrMissingColumn, f.Name)
			}
			pos = -1
		}
		index[i] = pos
	}

	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		line++
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}

		var out T
		for i, f := range s.fields {
			cell := ""
			if pos := index[i]; pos >= 0 && pos < len(rec) {
				cell = rec[pos]
			}
			if err := f.parse(&out, cell); err != nil {
				return fmt.Errorf("line %d, column %s: %w", line, f.Name, err)
			}
		}
		if err := fn(out); err != nil {
			return err
		}
	}
}

// ReadAll reads every record from r.
func (s Schema[T]) ReadAll(r io.Reader) ([]T, error) {
	var out []T
	err := s.Read(r, func(rec T) error {
		out = append(out, rec)
		return nil
	})
	return out, err
}

// Load reads every record from a file.
func (s Schema[T]) Load(fsys fsutil.FileSystem, path string) ([]T, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	recs, err := s.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return recs, nil
}

// Save writes header and records to a file, creating parent directories.
func (s Schema[T]) Save(fsys fsutil.FileSystem, path string, recs []T) error {
	f, err := fsutil.CreateAll(fsys, path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := s.WriteAll(f, recs); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// WriteAll writes a header followed by every record.
func (s Schema[T]) WriteAll(w io.Writer, recs []T) error {
	wr := s.NewWriter(w)
	for i := range recs {
		if err := wr.Write(&recs[i]); err != nil {
			return err
		}
	}
	return wr.Flush()
}

// Writer writes records of one schema, emitting the header before the first row.
type Writer[T any] struct {
	schema Schema[T]
	csv    *csv.Writer
	wrote  bool
	rows   int
}

// NewWriter returns a streaming writer over w.
func (s Schema[T]) NewWriter(w io.Writer) *Writer[T] {
	return &Writer[T]{schema: s, csv: csv.NewWriter(w)}
}

func (w *Writer[T]) writeHeader() error {
	if w.wrote {
		return nil
	}
	w.wrote = true
	return w.csv.Write(w.schema.Header())
}

// Write appends one record.
func (w *Writer[T]) Write(rec *T) error {
	if err := w.writeHeader(); err != nil {
		return err
	}
	w.rows++
	return w.csv.Write(w.schema.Encode(rec))
}

// Rows returns the number of records written so far.
func (w *Writer[T]) Rows() int { return w.rows }

// Flush writes the header if nothing was written yet and flushes buffered rows.
func (w *Writer[T]) Flush() error {
	if err := w.writeHeader(); err != nil {
		return err
	}
	w.csv.Flush()
	return w.csv.Error()
}
