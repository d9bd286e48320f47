package model

import "time"

// CallRecord is one concluded call that contributed to the statistics.
type CallRecord struct {
	MessageId string        `json:"messageId"`
	StartedAt time.Time     `json:"startedAt"`
	EndedAt   time.Time     `json:"endedAt"`
	Duration  time.Duration `json:"duration"`
}

// Statistics summarizes the concluded calls of a channel.
type Statistics struct {
	Count   int           `json:"count"`
	Total   time.Duration `json:"total"`
	Longest time.Duration `json:"longest"`
	Average time.Duration `json:"average"`
	// Skipped counts calls dropped because they ended before they started.
	Skipped int          `json:"skipped"`
	Calls   []CallRecord `json:"calls,omitempty"`
}
