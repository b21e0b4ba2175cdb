package executor

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/liammertens/conjunctive-queries/datalog"
	"github.com/liammertens/conjunctive-queries/datalog/query"
)

// TableFormatter provides utilities for formatting query results as tables
type TableFormatter struct {
	// MaxWidth is the maximum width for a column
	MaxWidth int
	// TruncateString is the string to append when truncating
	TruncateString string
	// Sort orders rows before rendering
	Sort bool
}

// NewTableFormatter creates a new table formatter with default settings
func NewTableFormatter() *TableFormatter {
	return &TableFormatter{
		MaxWidth:       50,
		TruncateString: "...",
		Sort:           true,
	}
}

// FormatResult formats a query answer: a boolean or a markdown table
func (tf *TableFormatter) FormatResult(result *Result) string {
	if result.IsBoolean() {
		return fmt.Sprintf("_Answer: %t_", result.Boolean)
	}
	return tf.FormatRelation(result.Relation)
}

// FormatRelation formats a query result as a markdown table
func (tf *TableFormatter) FormatRelation(rel *query.QueryResult) string {
	if rel == nil {
		return "_Empty relation_"
	}

	tuples := rel.Tuples
	if tf.Sort {
		tuples = rel.Sorted()
	}
	return tf.formatTable(rel.Columns(), tuples)
}

// formatTable formats columns and tuples as a markdown table
func (tf *TableFormatter) formatTable(columns []string, tuples []datalog.Tuple) string {
	if len(tuples) == 0 {
		return fmt.Sprintf("_Columns: %v_\n\n_No rows_", columns)
	}

	tableString := &strings.Builder{}

	// Create alignment array with all columns using AlignNone for simple separators
	alignment := make([]tw.Align, len(columns))
	for i := range alignment {
		alignment[i] = tw.AlignNone
	}

	table := tablewriter.NewTable(tableString,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithAlignment(alignment),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)

	table.Header(append([]string(nil), columns...))

	for _, tuple := range tuples {
		row := make([]string, len(tuple))
		for j, val := range tuple {
			row[j] = tf.formatValue(val)
		}
		table.Append(row)
	}

	table.Render()

	// Add row count
	tableString.WriteString(fmt.Sprintf("\n_%d rows_\n", len(tuples)))

	return tableString.String()
}

// formatValue converts a value to a string representation
func (tf *TableFormatter) formatValue(val datalog.Value) string {
	s := val.String()
	if tf.MaxWidth > 0 && len(s) > tf.MaxWidth {
		cut := tf.MaxWidth - len(tf.TruncateString)
		if cut < 0 {
			cut = 0
		}
		// Keep whole runes
		for cut > 0 && !isRuneStart(s[cut]) {
			cut--
		}
		s = s[:cut] + tf.TruncateString
	}
	return s
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }

// RelationString returns a string representation of a relation
func RelationString(rel *query.QueryResult) string {
	formatter := NewTableFormatter()
	return formatter.FormatRelation(rel)
}
