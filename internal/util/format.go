package util

import (
	"fmt"
	"time"
)

// FormatHours renders a duration in hours with two decimals, e.g. "1.75".
func FormatHours(d time.Duration) string {
	return fmt.Sprintf("%.2f", d.Hours())
}

// FormatDuration renders a duration as "1h 5m 3s", dropping leading zero units.
func FormatDuration(d time.Duration) string {
	negative := d < 0
	if negative {
		d = -d
	}

	total := int64(d.Round(time.Second) / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	var out string
	switch {
	case hours > 0:
		out = fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	case minutes > 0:
		out = fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		out = fmt.Sprintf("%ds", seconds)
	}

	if negative {
		return "-" + out
	}
	return out
}

// FormatNumber inserts thousands separators, e.g. 12345 -> "12,345".
func FormatNumber(n int) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	var result []byte
	for i, digit := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			result = append(result, ',')
		}
		result = append(result, digit)
	}
	return string(result)
}
