package formatter

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/penwyp/go-calltime/internal/core/model"
	"github.com/penwyp/go-calltime/internal/util"
)

type TableFormatter struct {
	opts Options
}

func NewTableFormatter(opts Options) *TableFormatter {
	return &TableFormatter{opts: opts}
}

func (f *TableFormatter) Format(w io.Writer, stats model.Statistics) error {
	tw := &tableWriter{w: w}

	tw.table(
		[]string{"Metric", "Value"},
		[][]string{
			{"Total Calls", util.FormatNumber(stats.Count)},
			{"Total Call Time", util.FormatHours(stats.Total) + " h"},
			{"Longest Call", util.FormatHours(stats.Longest) + " h"},
			{"Average Call", util.FormatHours(stats.Average) + " h"},
		},
		1,
	)

	if f.opts.Breakdown && len(stats.Calls) > 0 {
		rows := make([][]string, 0, len(stats.Calls))
		for i, call := range stats.Calls {
			rows = append(rows, []string{
				strconv.Itoa(i + 1),
				call.StartedAt.In(f.opts.location()).Format("2006-01-02 15:04"),
				util.FormatDuration(call.Duration),
				util.FormatHours(call.Duration),
			})
		}
		fmt.Fprintln(tw.w)
		tw.table([]string{"#", "Started", "Duration", "Hours"}, rows, 2)
	}

	if stats.Skipped > 0 {
		fmt.Fprintf(tw.w, "%d call(s) skipped: ended before they started\n", stats.Skipped)
	}
	return tw.err
}

// tableWriter draws box tables; columns at index >= rightFrom are right-aligned.
type tableWriter struct {
	w   io.Writer
	err error
}

func (t *tableWriter) printf(format string, args ...interface{}) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.w, format, args...)
}

func (t *tableWriter) table(headers []string, rows [][]string, rightFrom int) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if cw := runewidth.StringWidth(cell); cw > widths[i] {
				widths[i] = cw
			}
		}
	}

	t.border(widths, "┌", "┬", "┐")
	t.row(headers, widths, len(headers))
	t.border(widths, "├", "┼", "┤")
	for _, row := range rows {
		t.row(row, widths, rightFrom)
	}
	t.border(widths, "└", "┴", "┘")
}

func (t *tableWriter) border(widths []int, left, middle, right string) {
	parts := make([]string, len(widths))
	for i, width := range widths {
		parts[i] = strings.Repeat("─", width+2)
	}
	t.printf("%s%s%s\n", left, strings.Join(parts, middle), right)
}

func (t *tableWriter) row(values []string, widths []int, rightFrom int) {
	var b strings.Builder
	b.WriteString("│")
	for i, value := range values {
		b.WriteString(" ")
		if i >= rightFrom {
			b.WriteString(runewidth.FillLeft(value, widths[i]))
		} else {
			b.WriteString(runewidth.FillRight(value, widths[i]))
		}
		b.WriteString(" │")
	}
	t.printf("%s\n", b.String())
}
