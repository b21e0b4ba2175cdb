package annotations

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// OutputFormatter formats events for human-readable display.
type OutputFormatter struct {
	useColor bool
	writer   io.Writer
	renderer *RelationRenderer
}

// NewOutputFormatter creates a formatter with color support detection.
func NewOutputFormatter(w io.Writer) *OutputFormatter {
	if w == nil {
		w = os.Stdout
	}

	// Auto-detect color support
	useColor := false
	if f, ok := w.(*os.File); ok {
		useColor = isTerminal(f.Fd()) && !color.NoColor
	}

	return &OutputFormatter{
		useColor: useColor,
		writer:   w,
		renderer: NewRelationRenderer(useColor),
	}
}

// Handle implements the Handler interface - prints events as they occur
func (f *OutputFormatter) Handle(event Event) {
	output := f.Format(event)
	if output != "" {
		fmt.Fprintln(f.writer, output)
	}
}

// Format converts an event to a human-readable string.
func (f *OutputFormatter) Format(event Event) string {
	latency := f.formatLatency(event.Latency)

	switch event.Name {
	case QueryInvoked:
		return fmt.Sprintf("%s Query: %s", latency, truncateQuery(event.Data["query"].(string)))

	case QueryComplete:
		success := event.Data["success"].(bool)
		if !success {
			return fmt.Sprintf("%s %s Query failed: %v",
				latency,
				f.colorize("✗", color.FgRed),
				event.Data["error"])
		}
		if answer, ok := event.Data["boolean"].(bool); ok {
			return fmt.Sprintf("%s %s Query done: %v",
				latency,
				f.colorize("===", color.FgGreen),
				answer)
		}
		return fmt.Sprintf("%s %s Query done with %s.",
			latency,
			f.colorize("===", color.FgGreen),
			f.colorizeCount("tuples", event.Data["tuples.count"].(int)))

	case TreeBuilt:
		lines := f.renderer.RenderTree(event.Data["tree"].(string))
		return fmt.Sprintf("%s %s with %d roots\n%s",
			latency,
			f.colorize("Acyclic", color.FgGreen),
			event.Data["root.count"],
			strings.Join(lines, "\n"))

	case TreeCyclic:
		return fmt.Sprintf("%s %s %v",
			latency,
			f.colorize("Cyclic", color.FgRed),
			event.Data["error"])

	case PassBegin:
		return fmt.Sprintf("%s %s %s starting on %d nodes",
			latency,
			f.colorize("===", color.FgYellow),
			event.Data["pass"],
			event.Data["node.count"])

	case PassComplete:
		return fmt.Sprintf("%s %s completed with %s",
			latency,
			event.Data["pass"],
			f.colorizeCount("tuples", event.Data["tuple.count"].(int)))

	case LeafScan:
		atom := event.Data["atom"].(string)
		var atomStr string
		if f.useColor {
			atomStr = fmt.Sprintf("%s%s%s",
				color.BlueString("Scan("),
				color.CyanString(atom),
				color.BlueString(")"))
		} else {
			atomStr = fmt.Sprintf("Scan(%s)", atom)
		}

		rel := f.renderer.RenderRelationWithAttrs(stringsOf(event.Data["result.attrs"]), event.Data["result.size"].(int))
		return fmt.Sprintf("%s %s on %s%s%s",
			latency,
			atomStr,
			f.colorizeCount("rows", event.Data["relation.size"].(int)),
			f.arrow(),
			rel)

	case JoinHash, JoinSemi, JoinProduct:
		left := relationInfo(event.Data, "left")
		right := relationInfo(event.Data, "right")
		result := relationInfo(event.Data, "result")

		joinStr := f.renderer.RenderBinary(operatorSymbol(event.Name), left, right, result)

		// Flag explosive joins
		explosive := result.TupleCount > 100000 ||
			(result.TupleCount > 1000 && result.TupleCount > left.TupleCount*right.TupleCount/2)
		if event.Name != JoinSemi && explosive {
			return fmt.Sprintf("%s %s %s",
				latency,
				f.colorize("⚠️", color.FgYellow),
				joinStr)
		}
		return fmt.Sprintf("%s %s", latency, joinStr)

	case JoinIntersect:
		sizes, _ := event.Data["input.sizes"].([]int)
		attrs := stringsOf(event.Data["result.attrs"])
		inputs := make([]RelationInfo, len(sizes))
		for i, n := range sizes {
			inputs[i] = RelationInfo{Attrs: attrs, TupleCount: n}
		}
		return fmt.Sprintf("%s Intersect%s%s%s",
			latency,
			f.renderer.RenderRelations(inputs),
			f.arrow(),
			f.renderer.RenderRelation(relationInfo(event.Data, "result")))

	case ResultProjection:
		return fmt.Sprintf("%s Project %s%s%s",
			latency,
			f.renderer.RenderRelation(relationInfo(event.Data, "input")),
			f.arrow(),
			f.renderer.RenderRelation(relationInfo(event.Data, "result")))

	case BatchQuery:
		status := f.colorize("ok", color.FgGreen)
		if errMsg, ok := event.Data["error"]; ok {
			status = f.colorize(fmt.Sprintf("failed: %v", errMsg), color.FgRed)
		}
		return fmt.Sprintf("%s [%v] %v %s",
			latency,
			event.Data["run.id"],
			event.Data["query.id"],
			status)

	default:
		// Generic format for unknown events
		return fmt.Sprintf("%s %s %v", latency, event.Name, event.Data)
	}
}

// arrow returns the separator between an operation and its result
func (f *OutputFormatter) arrow() string {
	if f.useColor {
		return color.YellowString(" → ")
	}
	return " → "
}

func operatorSymbol(name string) string {
	switch name {
	case JoinSemi:
		return "⋉"
	case JoinProduct:
		return "×"
	default:
		return "⋈"
	}
}

// relationInfo reads the "<prefix>.attrs" and "<prefix>.size" keys
func relationInfo(data map[string]interface{}, prefix string) RelationInfo {
	info := RelationInfo{Attrs: stringsOf(data[prefix+".attrs"]), TupleCount: -1}
	if n, ok := data[prefix+".size"].(int); ok {
		info.TupleCount = n
	}
	return info
}

func stringsOf(v interface{}) []string {
	if s, ok := v.([]string); ok {
		return s
	}
	return nil
}

// formatLatency formats a duration as [XXXms] or [XXXµs] with color coding.
func (f *OutputFormatter) formatLatency(d time.Duration) string {
	// Use microseconds for sub-millisecond durations
	if d < time.Millisecond {
		us := d.Microseconds()
		s := fmt.Sprintf("[%dµs]", us)
		if !f.useColor {
			return s
		}
		return color.GreenString(s)
	}

	// Use floating-point milliseconds to preserve precision
	ms := float64(d.Microseconds()) / 1000.0
	s := fmt.Sprintf("[%.1fms]", ms)

	if !f.useColor {
		return s
	}

	switch {
	case ms < 50:
		return color.GreenString(s)
	case ms < 200:
		return color.YellowString(s)
	default:
		return color.RedString(s)
	}
}

// colorizeCount formats a count with a label, using color based on the label type.
func (f *OutputFormatter) colorizeCount(label string, count int) string {
	text := fmt.Sprintf("%d %s", count, label)

	if !f.useColor {
		return text
	}

	// Different colors for different types
	switch strings.ToLower(label) {
	case "relations":
		return color.CyanString(text)
	case "tuples":
		return color.MagentaString(text)
	case "rows":
		return color.BlueString(text)
	default:
		return text
	}
}

// colorize applies color if enabled.
func (f *OutputFormatter) colorize(text string, attrs ...color.Attribute) string {
	if !f.useColor {
		return text
	}
	return color.New(attrs...).Sprint(text)
}

// truncateQuery shortens long queries for display.
func truncateQuery(query string) string {
	// Remove extra whitespace
	query = strings.Join(strings.Fields(query), " ")

	const maxLen = 80
	if len(query) <= maxLen {
		return query
	}

	return query[:maxLen-3] + "..."
}

// ConsoleHandler creates a handler that prints formatted events to stdout.
func ConsoleHandler() Handler {
	formatter := NewOutputFormatter(os.Stdout)
	return func(event Event) {
		fmt.Fprintln(formatter.writer, formatter.Format(event))
	}
}

// isTerminal checks if the file descriptor is a terminal.
func isTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// NewPlainFormatter creates a formatter that never emits color codes
func NewPlainFormatter(w io.Writer) *OutputFormatter {
	return &OutputFormatter{
		writer:   w,
		renderer: NewRelationRenderer(false),
	}
}
