package formatter

import (
	"io"
	"strings"

	"github.com/penwyp/go-calltime/internal/core/model"
	"github.com/penwyp/go-calltime/internal/util"
)

// SummaryFormatter prints a banner report with human-friendly durations.
type SummaryFormatter struct {
	opts Options
}

func NewSummaryFormatter(opts Options) *SummaryFormatter {
	return &SummaryFormatter{opts: opts}
}

func (f *SummaryFormatter) Format(w io.Writer, stats model.Statistics) error {
	tw := &tableWriter{w: w}
	rule := strings.Repeat("=", 60)

	tw.printf("%s\n", rule)
	tw.printf("Call Time Summary Report\n")
	tw.printf("%s\n\n", rule)

	if len(stats.Calls) > 0 {
		first, last := stats.Calls[0].StartedAt, stats.Calls[0].StartedAt
		for _, call := range stats.Calls[1:] {
			if call.StartedAt.Before(first) {
				first = call.StartedAt
			}
			if call.StartedAt.After(last) {
				last = call.StartedAt
			}
		}
		first, last = first.In(f.opts.location()), last.In(f.opts.location())
		if first.Format("2006-01-02") == last.Format("2006-01-02") {
			tw.printf("Date Range: %s\n\n", first.Format("2006-01-02"))
		} else {
			tw.printf("Date Range: %s to %s\n\n", first.Format("2006-01-02"), last.Format("2006-01-02"))
		}
	}

	tw.printf("Calls:\n")
	tw.printf("  Completed: %s\n", util.FormatNumber(stats.Count))
	if stats.Skipped > 0 {
		tw.printf("  Skipped:   %s\n", util.FormatNumber(stats.Skipped))
	}
	tw.printf("\n")

	tw.printf("Call Time:\n")
	tw.printf("  Total:   %s hours (%s)\n", util.FormatHours(stats.Total), util.FormatDuration(stats.Total))
	tw.printf("  Longest: %s hours (%s)\n", util.FormatHours(stats.Longest), util.FormatDuration(stats.Longest))
	tw.printf("  Average: %s hours (%s)\n", util.FormatHours(stats.Average), util.FormatDuration(stats.Average))

	if f.opts.Breakdown && len(stats.Calls) > 0 {
		tw.printf("\nCalls:\n")
		tw.printf("%s\n", strings.Repeat("-", 60))
		for _, call := range stats.Calls {
			tw.printf("  %s  %10s  %s\n",
				call.StartedAt.In(f.opts.location()).Format("2006-01-02 15:04"),
				util.FormatDuration(call.Duration),
				call.MessageId)
		}
	}

	tw.printf("\n%s\n", rule)
	return tw.err
}
