package formatter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/penwyp/go-calltime/internal/core/model"
	"github.com/penwyp/go-calltime/internal/util"
)

type CSVFormatter struct {
	opts Options
}

func NewCSVFormatter(opts Options) *CSVFormatter {
	return &CSVFormatter{opts: opts}
}

// Format writes a metric/value table, followed by one row per call when the
// breakdown is enabled.
func (f *CSVFormatter) Format(w io.Writer, stats model.Statistics) error {
	cw := csv.NewWriter(w)

	records := [][]string{
		{"Metric", "Value"},
		{"Total Calls", strconv.Itoa(stats.Count)},
		{"Total Hours", util.FormatHours(stats.Total)},
		{"Longest Hours", util.FormatHours(stats.Longest)},
		{"Average Hours", util.FormatHours(stats.Average)},
		{"Skipped Calls", strconv.Itoa(stats.Skipped)},
	}

	if f.opts.Breakdown {
		report := NewReport(stats, f.opts)
		records = append(records, []string{}, []string{"Message ID", "Started", "Ended", "Duration (s)"})
		for _, call := range report.Calls {
			records = append(records, []string{
				call.MessageId,
				call.StartedAt,
				call.EndedAt,
				fmt.Sprintf("%.0f", call.DurationSeconds),
			})
		}
	}

	for _, record := range records {
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
