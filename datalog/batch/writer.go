package batch

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ValueSeparator joins the distinct values of one attribute column
const ValueSeparator = ";"

// Writer writes outcomes as CSV with the columns
//
//	query_id, is_acyclic, bool_answer, attr_<v>_answer...
//
// is_acyclic is empty when the query never reached the acyclicity test.
// bool_answer is only set for boolean queries. attr_<v>_answer holds the
// distinct values of v in the answer, in sorted tuple order.
type Writer struct {
	csv         *csv.Writer
	attributes  []string
	wroteHeader bool
}

// NewWriter creates a writer. Nil attributes select DefaultAttributes.
func NewWriter(w io.Writer, attributes []string) *Writer {
	if attributes == nil {
		attributes = DefaultAttributes
	}
	return &Writer{csv: csv.NewWriter(w), attributes: attributes}
}

// Columns returns the header row
func (w *Writer) Columns() []string {
	cols := []string{"query_id", "is_acyclic", "bool_answer"}
	for _, a := range w.attributes {
		cols = append(cols, "attr_"+a+"_answer")
	}
	return cols
}

// Write writes one outcome, preceded by the header on first use
func (w *Writer) Write(o Outcome) error {
	if !w.wroteHeader {
		if err := w.csv.Write(w.Columns()); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		w.wroteHeader = true
	}
	if err := w.csv.Write(w.record(o)); err != nil {
		return fmt.Errorf("failed to write %s: %w", o.ID, err)
	}
	return nil
}

// WriteReport writes every outcome of a report and flushes
func (w *Writer) WriteReport(r *Report) error {
	for _, o := range r.Outcomes {
		if err := w.Write(o); err != nil {
			return err
		}
	}
	return w.Flush()
}

// Flush writes buffered rows to the underlying writer
func (w *Writer) Flush() error {
	w.csv.Flush()
	return w.csv.Error()
}

func (w *Writer) record(o Outcome) []string {
	rec := make([]string, 0, 3+len(w.attributes))
	rec = append(rec, o.ID)

	switch {
	case o.Acyclic:
		rec = append(rec, "true")
	case o.Cyclic():
		rec = append(rec, "false")
	default:
		rec = append(rec, "")
	}

	res := o.Result
	if res != nil && res.IsBoolean() {
		rec = append(rec, strconv.FormatBool(res.Boolean))
	} else {
		rec = append(rec, "")
	}

	for _, a := range w.attributes {
		rec = append(rec, attributeAnswer(o, a))
	}
	return rec
}

func attributeAnswer(o Outcome, name string) string {
	if o.Result == nil || o.Result.IsBoolean() {
		return ""
	}
	rel := o.Result.Relation
	cols, ok := rel.VarMap[name]
	if !ok {
		return ""
	}

	seen := make(map[string]bool)
	var values []string
	for _, t := range rel.Sorted() {
		s := t[cols[0]].String()
		if !seen[s] {
			seen[s] = true
			values = append(values, s)
		}
	}
	return strings.Join(values, ValueSeparator)
}
