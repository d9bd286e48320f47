package analyzer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/penwyp/go-calltime/internal/data/aggregator"
	"github.com/penwyp/go-calltime/internal/data/cache"
	"github.com/penwyp/go-calltime/internal/data/client"
	"github.com/penwyp/go-calltime/internal/data/fetcher"
	"github.com/penwyp/go-calltime/internal/presentation/formatter"
	"github.com/penwyp/go-calltime/internal/util"
)

type Config struct {
	ChannelId    string
	Token        string
	BaseURL      string
	CacheDir     string
	OutputFormat string
	Timezone     string
	Breakdown    bool
	// Reset discards the channel cache before fetching.
	Reset bool
	// Offline reports from the cache without contacting the API.
	Offline bool
	// NoCache keeps the history in memory only.
	NoCache bool
	// Request behaviour
	Timeout     time.Duration
	MaxAttempts int
}

// Option overrides a collaborator of the Analyzer.
type Option func(*Analyzer)

// WithStore replaces the file cache.
func WithStore(store cache.Store) Option {
	return func(a *Analyzer) { a.store = store }
}

// WithPageSource replaces the HTTP client.
func WithPageSource(source fetcher.PageSource) Option {
	return func(a *Analyzer) { a.source = source }
}

// WithProgress writes a "got N messages" line per fetched page to w.
func WithProgress(w io.Writer) Option {
	return func(a *Analyzer) { a.progress = w }
}

// Analyzer runs load -> fetch -> save -> aggregate -> format for one channel.
type Analyzer struct {
	config    *Config
	store     cache.Store
	source    fetcher.PageSource
	formatter formatter.Formatter
	progress  io.Writer
}

func New(config *Config, opts ...Option) (*Analyzer, error) {
	if config.ChannelId == "" {
		return nil, errors.New("channel id is required (set --channel or CHANNEL_ID)")
	}
	if config.Token == "" && !config.Offline {
		return nil, errors.New("access token is required (set --token or DISCORD_TOKEN)")
	}

	if config.Reset && config.Offline {
		return nil, errors.New("--reset and --offline cannot be combined: there would be nothing to report")
	}
	if config.NoCache && config.Offline {
		return nil, errors.New("--no-cache and --offline cannot be combined: there would be nothing to report")
	}

	loc, err := util.LoadLocation(config.Timezone)
	if err != nil {
		return nil, err
	}

	f, err := formatter.NewFormatter(config.OutputFormat, formatter.Options{
		Breakdown: config.Breakdown,
		Location:  loc,
	})
	if err != nil {
		return nil, err
	}

	a := &Analyzer{
		config:    config,
		formatter: f,
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.store == nil {
		if config.NoCache {
			a.store = cache.NewMemoryStore()
		} else {
			a.store = cache.NewFileStore(config.CacheDir)
		}
	}
	if a.source == nil {
		a.source = client.New(client.Config{
			BaseURL:     config.BaseURL,
			Token:       config.Token,
			Timeout:     config.Timeout,
			MaxAttempts: config.MaxAttempts,
		})
	}
	return a, nil
}

// Run executes the pipeline and writes the report to out.
func (a *Analyzer) Run(ctx context.Context, out io.Writer) error {
	startTime := time.Now()
	channelId := a.config.ChannelId
	util.LogInfof("Starting call time analysis of channel %s", channelId)

	// Phase 1: Load cache
	if a.config.Reset {
		if err := a.store.Clear(channelId); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		util.LogInfo("Cache cleared")
	}

	cached, err := a.store.Load(channelId)
	if err != nil {
		return err
	}
	util.LogDebugf("Phase 1 - Loaded %d cached messages", len(cached))

	// Phase 2: Fetch and persist
	messages := cached
	if a.config.Offline {
		util.LogInfo("Offline mode, skipping fetch")
	} else {
		fetchStart := time.Now()
		messages, _, err = fetcher.New(a.source, a.reportProgress).Fetch(ctx, channelId, cached)
		if err != nil {
			return err
		}
		util.LogDebugf("Phase 2 - Fetch duration: %v", time.Since(fetchStart))

		if err := a.store.Save(channelId, messages); err != nil {
			return fmt.Errorf("failed to save cache: %w", err)
		}
	}

	// Phase 3: Aggregate
	stats, err := aggregator.Aggregate(messages)
	if err != nil {
		return err
	}
	util.LogDebugf("Phase 3 - Aggregated %d calls from %d messages", stats.Count, len(messages))

	// Phase 4: Format and output
	if err := a.formatter.Format(out, stats); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	util.LogDebugf("Total duration: %v", time.Since(startTime))
	return nil
}

func (a *Analyzer) reportProgress(total int) {
	if a.progress != nil {
		fmt.Fprintf(a.progress, "got %d messages\n", total)
	}
}

