package formatter

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/penwyp/go-calltime/internal/core/model"
)

// Formatter renders call statistics to a writer.
type Formatter interface {
	Format(w io.Writer, stats model.Statistics) error
}

// Options tune what a formatter renders.
type Options struct {
	// Breakdown lists every call, not only the totals.
	Breakdown bool
	// Location is used for call start/end times; nil means UTC.
	Location *time.Location
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.UTC
	}
	return o.Location
}

// Formats lists the names accepted by NewFormatter.
var Formats = []string{"text", "table", "summary", "json", "csv"}

// NewFormatter returns the formatter registered under name.
func NewFormatter(name string, opts Options) (Formatter, error) {
	switch name {
	case "", "text":
		return NewTextFormatter(), nil
	case "table":
		return NewTableFormatter(opts), nil
	case "summary":
		return NewSummaryFormatter(opts), nil
	case "json":
		return NewJSONFormatter(opts), nil
	case "csv":
		return NewCSVFormatter(opts), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (valid: %v)", name, Formats)
	}
}

// Report is the machine-readable shape of the statistics.
type Report struct {
	TotalCalls     int       `json:"totalCalls"`
	TotalHours     float64   `json:"totalHours"`
	LongestHours   float64   `json:"longestHours"`
	AverageHours   float64   `json:"averageHours"`
	TotalSeconds   float64   `json:"totalSeconds"`
	LongestSeconds float64   `json:"longestSeconds"`
	AverageSeconds float64   `json:"averageSeconds"`
	SkippedCalls   int       `json:"skippedCalls"`
	Calls          []CallRow `json:"calls,omitempty"`
}

// CallRow is one call in the breakdown.
type CallRow struct {
	MessageId       string  `json:"messageId"`
	StartedAt       string  `json:"startedAt"`
	EndedAt         string  `json:"endedAt"`
	DurationSeconds float64 `json:"durationSeconds"`
}

// NewReport converts statistics for rendering.
func NewReport(stats model.Statistics, opts Options) Report {
	report := Report{
		TotalCalls:     stats.Count,
		TotalHours:     roundHours(stats.Total),
		LongestHours:   roundHours(stats.Longest),
		AverageHours:   roundHours(stats.Average),
		TotalSeconds:   stats.Total.Seconds(),
		LongestSeconds: stats.Longest.Seconds(),
		AverageSeconds: stats.Average.Seconds(),
		SkippedCalls:   stats.Skipped,
	}

	if opts.Breakdown {
		loc := opts.location()
		report.Calls = make([]CallRow, 0, len(stats.Calls))
		for _, call := range stats.Calls {
			report.Calls = append(report.Calls, CallRow{
				MessageId:       call.MessageId,
				StartedAt:       call.StartedAt.In(loc).Format(time.RFC3339),
				EndedAt:         call.EndedAt.In(loc).Format(time.RFC3339),
				DurationSeconds: call.Duration.Seconds(),
			})
		}
	}
	return report
}

func roundHours(d time.Duration) float64 {
	return math.Round(d.Hours()*100) / 100
}
