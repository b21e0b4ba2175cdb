package annotations

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// RelationInfo represents the basic info about a relation for rendering
type RelationInfo struct {
	Attrs      []string
	TupleCount int
}

// RelationRenderer provides pretty-printing for relations
type RelationRenderer struct {
	useColor bool
}

// NewRelationRenderer creates a new relation renderer
func NewRelationRenderer(useColor bool) *RelationRenderer {
	return &RelationRenderer{useColor: useColor}
}

// RenderRelation renders a single relation as a string
func (r *RelationRenderer) RenderRelation(rel RelationInfo) string {
	return r.RenderRelationWithAttrs(rel.Attrs, rel.TupleCount)
}

// RenderRelations renders multiple relations as a string
func (r *RelationRenderer) RenderRelations(rels []RelationInfo) string {
	parts := make([]string, len(rels))
	for i, rel := range rels {
		parts[i] = r.RenderRelation(rel)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// RenderRelationWithAttrs renders a relation as its variable set followed
// by its size, e.g. {x,y}[3 tuples]. A negative count omits the size.
func (r *RelationRenderer) RenderRelationWithAttrs(attrs []string, tupleCount int) string {
	vars := "{" + strings.Join(attrs, ",") + "}"
	if r.useColor {
		vars = color.CyanString(vars)
	}
	if tupleCount < 0 {
		return vars
	}
	return fmt.Sprintf("%s[%s]", vars, r.colorizeCount("tuples", tupleCount))
}

// colorizeCount formats a count with color based on size
func (r *RelationRenderer) colorizeCount(label string, count int) string {
	if !r.useColor {
		return fmt.Sprintf("%d %s", count, label)
	}

	countStr := fmt.Sprintf("%d", count)

	// Color based on size
	switch {
	case count == 0:
		countStr = color.RedString(countStr)
	case count < 100:
		countStr = color.GreenString(countStr)
	case count < 10000:
		countStr = color.YellowString(countStr)
	default:
		countStr = color.RedString(countStr)
	}

	return fmt.Sprintf("%s %s", countStr, label)
}

// RenderBinary renders a two-input operator such as a join or semijoin
func (r *RelationRenderer) RenderBinary(op string, left, right, result RelationInfo) string {
	symbol := " " + op + " "
	if r.useColor {
		symbol = color.YellowString(symbol)
	}

	return fmt.Sprintf("%s%s%s → %s",
		r.RenderRelation(left), symbol, r.RenderRelation(right), r.RenderRelation(result))
}

// RenderTree renders a multi-line join tree with a header line
func (r *RelationRenderer) RenderTree(tree string) []string {
	lines := strings.Split(strings.TrimRight(tree, "\n"), "\n")

	header := "Join tree:"
	if r.useColor {
		header = color.BlueString(header)
	}

	result := []string{header}
	for _, line := range lines {
		if line == "" {
			continue
		}
		result = append(result, "  "+line)
	}
	return result
}
