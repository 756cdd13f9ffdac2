// Package output flattens survival examples into delimited rows,
// grounded on original_source/src.py/survival_data.py:503-520
// (print_survival_example).
package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ehr/survivalgen/internal/emr/record"
	"github.com/ehr/survivalgen/internal/emr/survival"
)

// Writer renders survival examples as pipe-delimited rows (configurable
// delimiter), one per line, with a header line written once.
type Writer struct {
	w         io.Writer
	delimiter string
}

// NewWriter returns a Writer using delimiter as the column separator.
func NewWriter(w io.Writer, delimiter string) *Writer {
	return &Writer{w: w, delimiter: delimiter}
}

// baseColumns names the fixed columns preceding any feature-vector
// columns, per spec.md §4.9.
var baseColumns = []string{"id", "date_lo", "date_hi", "lo", "hi", "len", "exp", "out"}

// WriteHeader writes the column header, appending fvHeader's names after
// the fixed columns.
func (w *Writer) WriteHeader(fvHeader []string) error {
	cols := append(append([]string{}, baseColumns...), fvHeader...)
	_, err := fmt.Fprintln(w.w, strings.Join(cols, w.delimiter))
	return err
}

// WriteExample writes one row for ex.
func (w *Writer) WriteExample(ex survival.Example) error {
	fields := []string{
		strconv.Itoa(ex.ID),
		ex.Dates.Lo.String(),
		ex.Dates.Hi.String(),
		strconv.Itoa(ex.LoDays),
		strconv.Itoa(ex.HiDays),
		strconv.Itoa(ex.LenDays),
		boolField(ex.Exposed),
		boolField(ex.Outcome),
	}
	for _, s := range ex.FeatureVector {
		fields = append(fields, scalarField(s))
	}
	_, err := fmt.Fprintln(w.w, strings.Join(fields, w.delimiter))
	return err
}

func boolField(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func scalarField(s record.Scalar) string {
	if s.IsAbsent() {
		return ""
	}
	return s.String()
}
