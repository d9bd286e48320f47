package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/penwyp/go-calltime/internal/analyzer"
	"github.com/penwyp/go-calltime/internal/data/aggregator"
	"github.com/penwyp/go-calltime/internal/data/cache"
	"github.com/penwyp/go-calltime/internal/presentation/formatter"
	"github.com/penwyp/go-calltime/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

const (
	defaultLogFile = "~/.go-calltime/logs/app.log"
	defaultEnvFile = ".env"
)

// Keys resolved through viper: flag, then environment, then the .env file.
const (
	keyChannel = "channel_id"
	keyToken   = "discord_token"
)

func newRootCmd() *cobra.Command {
	v := viper.New()

	var (
		debug        bool
		logFile      string
		envFile      string
		cacheDir     string
		baseURL      string
		outputFormat string
		formatAlias  string
		timezone     string
		timeout      time.Duration
		retries      int
		breakdown    bool
		reset        bool
		offline      bool
		noCache      bool
	)

	cmd := &cobra.Command{
		Use:   "go-calltime [flags]",
		Short: "Call time statistics for a chat channel",
		Long: `go-calltime downloads the message history of a channel, keeps it in a local
cache, and reports how much time was spent in calls.

The channel id and access token are read from --channel/--token, the
CHANNEL_ID/DISCORD_TOKEN environment variables, or a .env file.

Examples:
  go-calltime --channel 123456789012345678          # Fetch new messages and report
  go-calltime -o table --breakdown                  # List every call in a table
  go-calltime --offline -o json                     # Report from the cache only
  go-calltime --reset                               # Refetch the whole history`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Handle format alias
			if cmd.Flags().Changed("format") {
				outputFormat = formatAlias
			}

			level := "info"
			if debug {
				level = "debug"
			}
			initLogging(cmd.ErrOrStderr(), level, logFile, debug)

			if err := loadEnvFile(v, envFile, cmd.Flags().Changed("env-file")); err != nil {
				return err
			}

			config := &analyzer.Config{
				ChannelId:    strings.TrimSpace(v.GetString(keyChannel)),
				Token:        strings.TrimSpace(v.GetString(keyToken)),
				BaseURL:      baseURL,
				CacheDir:     cacheDir,
				OutputFormat: outputFormat,
				Timezone:     timezone,
				Breakdown:    breakdown,
				Reset:        reset,
				Offline:      offline,
				NoCache:      noCache,
				Timeout:      timeout,
				MaxAttempts:  retries,
			}

			a, err := analyzer.New(config, analyzer.WithProgress(progressWriter(cmd, outputFormat)))
			if err != nil {
				return err
			}

			if err := a.Run(cmd.Context(), cmd.OutOrStdout()); err != nil {
				if errors.Is(err, aggregator.ErrNoCalls) {
					return fmt.Errorf("%w in channel %s", err, config.ChannelId)
				}
				return err
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.String("channel", "", "Channel id (env CHANNEL_ID)")
	flags.String("token", "", "Access token sent in the authorization header (env DISCORD_TOKEN)")
	flags.StringVar(&envFile, "env-file", defaultEnvFile, "Dotenv file with CHANNEL_ID/DISCORD_TOKEN")

	flags.StringVar(&cacheDir, "cache-dir", cache.DefaultDir, "Directory holding one cache file per channel")
	flags.StringVar(&baseURL, "base-url", "", "API base URL (default https://discord.com/api/v9)")
	flags.DurationVar(&timeout, "timeout", 30*time.Second, "Per-request timeout")
	flags.IntVar(&retries, "retries", 3, "Attempts per page before giving up on network errors")

	flags.StringVarP(&outputFormat, "output", "o", "text",
		fmt.Sprintf("Output format (%s)", strings.Join(formatter.Formats, ", ")))
	flags.StringVar(&formatAlias, "format", "", "Alias for --output")
	flags.StringVar(&timezone, "timezone", "Local", "Timezone for call times (e.g., UTC, Europe/London)")
	flags.BoolVarP(&breakdown, "breakdown", "b", false, "List every call")

	flags.BoolVarP(&reset, "reset", "r", false, "Discard the channel cache before fetching")
	flags.BoolVar(&offline, "offline", false, "Report from the cache without contacting the API")
	flags.BoolVar(&noCache, "no-cache", false, "Fetch the whole history without reading or writing the cache")

	flags.BoolVar(&debug, "debug", false, "Enable debug mode")
	flags.StringVar(&logFile, "log-file", defaultLogFile, "Log file path (empty disables file logging)")
	flags.MarkHidden("log-file")

	v.BindPFlag(keyChannel, flags.Lookup("channel"))
	v.BindPFlag(keyToken, flags.Lookup("token"))
	v.BindEnv(keyChannel, "CHANNEL_ID")
	v.BindEnv(keyToken, "DISCORD_TOKEN")

	return cmd
}

// Execute runs the root command, cancelling in-flight requests on Ctrl-C.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRootCmd().ExecuteContext(ctx)
}

func initLogging(stderr io.Writer, level, logFile string, debug bool) {
	if logFile != "" {
		logFile = expandPath(logFile)
		if err := ensureDir(filepath.Dir(logFile)); err != nil {
			fmt.Fprintf(stderr, "warning: cannot create log directory: %v\n", err)
			logFile = ""
		}
	}
	if err := util.InitLogger(level, logFile, debug); err != nil {
		fmt.Fprintf(stderr, "warning: %v\n", err)
		util.InitLogger(level, "", debug)
	}
}

// loadEnvFile merges a dotenv file below flags and the real environment.
// A missing default file is fine; a missing explicit one is an error.
func loadEnvFile(v *viper.Viper, path string, explicit bool) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil
		}
		return fmt.Errorf("failed to read env file: %w", err)
	}

	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to parse env file %s: %w", path, err)
	}
	util.LogDebugf("Loaded configuration from %s", path)
	return nil
}

// progressWriter keeps machine-readable output clean: progress goes to stdout
// for the text report, otherwise to stderr when a person is watching it.
func progressWriter(cmd *cobra.Command, outputFormat string) io.Writer {
	if outputFormat == "" || outputFormat == "text" {
		return cmd.OutOrStdout()
	}
	if f, ok := cmd.ErrOrStderr().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return f
	}
	return nil
}

// Helper functions

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}
