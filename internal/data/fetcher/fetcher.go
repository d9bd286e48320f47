package fetcher

import (
	"context"
	"fmt"

	"github.com/penwyp/go-calltime/internal/core/model"
	"github.com/penwyp/go-calltime/internal/util"
)

// PageSource returns one page of channel history older than before.
type PageSource interface {
	FetchPage(ctx context.Context, channelId, before string) ([]model.Message, error)
}

// ProgressFunc observes the accumulated message count after every page.
type ProgressFunc func(total int)

// Result describes one fetch cycle.
type Result struct {
	Requests    int
	NewMessages int
}

// Fetcher walks a channel's history backwards, merging it into the cached messages.
type Fetcher struct {
	source   PageSource
	pageSize int
	progress ProgressFunc
}

// New creates a Fetcher. progress may be nil.
func New(source PageSource, progress ProgressFunc) *Fetcher {
	return &Fetcher{
		source:   source,
		pageSize: model.PageSize,
		progress: progress,
	}
}

// Fetch pages from the newest message backwards until the API returns a short
// page. Messages whose id is already known are dropped. The cursor always
// advances from the raw page, so a page that dedups to nothing still moves
// the walk forward.
func (f *Fetcher) Fetch(ctx context.Context, channelId string, cached []model.Message) ([]model.Message, Result, error) {
	var result Result

	all := make([]model.Message, 0, len(cached))
	known := make(map[string]struct{}, len(cached))
	for _, msg := range cached {
		if _, dup := known[msg.Id]; dup {
			continue
		}
		known[msg.Id] = struct{}{}
		all = append(all, msg)
	}
	if dropped := len(cached) - len(all); dropped > 0 {
		util.LogWarnf("Dropped %d duplicate messages from cache of channel %s", dropped, channelId)
	}

	before := ""
	for {
		if err := ctx.Err(); err != nil {
			return nil, result, err
		}

		page, err := f.source.FetchPage(ctx, channelId, before)
		result.Requests++
		if err != nil {
			return nil, result, fmt.Errorf("failed to fetch page %d of channel %s: %w", result.Requests, channelId, err)
		}

		fresh := 0
		for _, msg := range page {
			if _, dup := known[msg.Id]; dup {
				continue
			}
			known[msg.Id] = struct{}{}
			all = append(all, msg)
			fresh++
		}
		result.NewMessages += fresh

		util.LogDebugf("Page %d of channel %s: %d messages, %d new", result.Requests, channelId, len(page), fresh)
		if f.progress != nil {
			f.progress(len(all))
		}

		if len(page) < f.pageSize {
			break
		}

		next := page[len(page)-1].Id
		if next == before {
			return nil, result, fmt.Errorf("pagination stalled at cursor %s in channel %s", before, channelId)
		}
		before = next
	}

	util.LogInfof("Fetched channel %s: %d requests, %d new messages, %d total",
		channelId, result.Requests, result.NewMessages, len(all))
	return all, result, nil
}
