package formatter

import (
	"io"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-calltime/internal/core/model"
)

type JSONFormatter struct {
	opts Options
}

func NewJSONFormatter(opts Options) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

func (f *JSONFormatter) Format(w io.Writer, stats model.Statistics) error {
	data, err := sonic.MarshalIndent(NewReport(stats, f.opts), "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}
