package formatter

import (
	"fmt"
	"io"

	"github.com/penwyp/go-calltime/internal/core/model"
	"github.com/penwyp/go-calltime/internal/util"
)

// TextFormatter prints the four headline lines.
type TextFormatter struct{}

func NewTextFormatter() *TextFormatter {
	return &TextFormatter{}
}

func (f *TextFormatter) Format(w io.Writer, stats model.Statistics) error {
	_, err := fmt.Fprintf(w,
		"total calls: %d\ntotal call time: %s hours\nlongest call time: %s hours\naverage call time: %s hours\n",
		stats.Count,
		util.FormatHours(stats.Total),
		util.FormatHours(stats.Longest),
		util.FormatHours(stats.Average),
	)
	return err
}
