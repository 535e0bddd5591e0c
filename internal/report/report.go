// Package report collects one row per processed image and writes them out as
// the flower count CSV.
package report

import (
	"io"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/ironsheep/flowercount/internal/imaging"
	"github.com/pkg/errors"
)

// FileName is the CSV file written inside the results directory.
const FileName = "flower_count_raw.csv"

// Row is one line of the report.
type Row struct {
	// Date is the run date prefix, YYYYMMDD.
	Date string `csv:"Date"`

	// ID is the image file name as processed.
	ID string `csv:"ID"`

	// Count is the number of regions detected in the image.
	Count int `csv:"flowercount"`
}

// Table is an append-only, order-preserving list of rows.
// The zero value is an empty table ready to use.
type Table struct {
	rows []Row
}

// Append adds r after every row already in the table.
func (t *Table) Append(r Row) {
	t.rows = append(t.rows, r)
}

// Rows returns a copy of the rows in insertion order.
func (t *Table) Rows() []Row {
	if t == nil {
		return []Row{}
	}
	out := make([]Row, len(t.rows))
	copy(out, t.rows)
	return out
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Encode writes the table as CSV to w. The header is always written, so an
// empty table produces a header-only document.
func Encode(w io.Writer, t *Table) error {
	if err := gocsv.Marshal(t.Rows(), w); err != nil {
		return errors.Wrap(err, "failed to encode report")
	}
	return nil
}

// WriteCSV writes the table to dir/flower_count_raw.csv, creating dir if
// needed, and returns the file path. An existing report is replaced
// atomically.
func WriteCSV(dir string, t *Table) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "failed to create results directory %s", dir)
	}

	path := filepath.Join(dir, FileName)
	err := imaging.WriteAtomic(path, func(w io.Writer) error {
		return Encode(w, t)
	})
	if err != nil {
		return "", err
	}
	return path, nil
}
