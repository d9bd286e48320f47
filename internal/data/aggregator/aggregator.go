package aggregator

import (
	"errors"
	"fmt"
	"time"

	"github.com/penwyp/go-calltime/internal/core/model"
	"github.com/penwyp/go-calltime/internal/util"
)

// ErrNoCalls is returned when no concluded call exists to aggregate.
var ErrNoCalls = errors.New("no completed calls found")

// TimestampError reports a call whose start or end time cannot be parsed.
type TimestampError struct {
	MessageId string
	Value     string
	Err       error
}

func (e *TimestampError) Error() string {
	return fmt.Sprintf("message %s: %v", e.MessageId, e.Err)
}

func (e *TimestampError) Unwrap() error {
	return e.Err
}

// Aggregate computes duration statistics over the concluded calls in messages.
// Calls that are still ongoing are ignored. Calls ending before they start are
// skipped and counted in Statistics.Skipped.
func Aggregate(messages []model.Message) (model.Statistics, error) {
	var stats model.Statistics

	for _, msg := range messages {
		if !msg.IsEndedCall() {
			continue
		}

		record, err := callRecord(msg)
		if err != nil {
			return model.Statistics{}, err
		}

		if record.Duration < 0 {
			stats.Skipped++
			util.LogWarnf("Skipping call %s: ended %v before it started", msg.Id, -record.Duration)
			continue
		}

		stats.Calls = append(stats.Calls, record)
		stats.Total += record.Duration
		if record.Duration > stats.Longest {
			stats.Longest = record.Duration
		}
	}

	stats.Count = len(stats.Calls)
	if stats.Count == 0 {
		return stats, ErrNoCalls
	}
	stats.Average = stats.Total / time.Duration(stats.Count)

	util.LogDebugf("Aggregated %d calls (%d skipped): total=%v longest=%v average=%v",
		stats.Count, stats.Skipped, stats.Total, stats.Longest, stats.Average)
	return stats, nil
}

func callRecord(msg model.Message) (model.CallRecord, error) {
	started, err := util.ParseTimestamp(msg.Timestamp)
	if err != nil {
		return model.CallRecord{}, &TimestampError{MessageId: msg.Id, Value: msg.Timestamp, Err: err}
	}

	endedValue := *msg.Call.EndedTimestamp
	ended, err := util.ParseTimestamp(endedValue)
	if err != nil {
		return model.CallRecord{}, &TimestampError{MessageId: msg.Id, Value: endedValue, Err: err}
	}

	return model.CallRecord{
		MessageId: msg.Id,
		StartedAt: started,
		EndedAt:   ended,
		Duration:  ended.Sub(started),
	}, nil
}
