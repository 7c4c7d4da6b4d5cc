package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mobil-koeln/stopsync/internal/catalog"
	"github.com/mobil-koeln/stopsync/internal/channel"
	"github.com/mobil-koeln/stopsync/internal/companion"
	"github.com/mobil-koeln/stopsync/internal/config"
	"github.com/mobil-koeln/stopsync/internal/nextbus"
	"github.com/mobil-koeln/stopsync/internal/output"
	"github.com/mobil-koeln/stopsync/internal/tui"
)

var version = "0.1.0"

//go:embed demo_catalog.yaml
var demoCatalog []byte

func main() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "stopsync",
	Short: "Sync a transit stop catalog from a companion over a message channel",
	Long: `stopsync crawls a hierarchical transit stop catalog from a companion
process, one request at a time, and fetches live arrival predictions for
individual stops.

The companion answers over a message channel:
  loopback   in-process companion serving a fixture (default)
  redis      rmq queues on a Redis server
  stomp      queues on a STOMP broker

Quick Start:
  1. Launch TUI:                    stopsync (or stopsync tui)
  2. Crawl and print the catalog:   stopsync sync
  3. Show a prediction:             stopsync prediction 506 5278
  4. Run a companion on Redis:      stopsync companion --channel redis --nextbus`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		// If no subcommand is provided, launch TUI
		if len(args) == 0 {
			return runTUI(cmd, args)
		}
		return cmd.Help()
	},
}

// Global flags
var (
	flagColor     string
	flagDebug     bool
	flagLogFormat string
	flagChannel   string
	flagFixture   string
	flagNextBus   bool
	flagPrefix    string
)

// Command flags
var (
	flagSyncTimeout    time.Duration
	flagPredictTimeout time.Duration
	flagRetries        int
	flagJSON           bool
	flagDropRate       float64
	flagShowTags       bool
	flagRoute          string
	flagWatch          bool
	flagWarm           bool
	flagWorkers        int
)

// Loaded by setup before any command runs
var (
	cfg    config.Config
	logger zerolog.Logger
)

func init() {
	// Add subcommands
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(predictionCmd)
	rootCmd.AddCommand(companionCmd)
	rootCmd.AddCommand(tuiCmd)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&flagColor, "color", "auto", "Color output: auto, always, never")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "Log format: console, json")
	rootCmd.PersistentFlags().StringVarP(&flagChannel, "channel", "c", "loopback", "Message channel: loopback, redis, stomp")
	rootCmd.PersistentFlags().StringVarP(&flagFixture, "fixture", "f", "", "YAML catalog served by the companion (default: built-in demo catalog)")
	rootCmd.PersistentFlags().BoolVar(&flagNextBus, "nextbus", false, "Answer predictions from the live NextBus feed")
	rootCmd.PersistentFlags().StringVar(&flagPrefix, "queue-prefix", "", "Broker queue name prefix")

	// Sync flags
	syncCmd.Flags().DurationVar(&flagSyncTimeout, "timeout", 10*time.Second, "Timeout of a single crawl attempt")
	syncCmd.Flags().IntVar(&flagRetries, "retries", 3, "Number of times a stalled crawl is restarted")
	syncCmd.Flags().BoolVar(&flagJSON, "json", false, "Output as JSON")
	syncCmd.Flags().Float64Var(&flagDropRate, "drop-rate", 0, "Fraction of loopback requests to drop (0-1)")
	syncCmd.Flags().BoolVar(&flagShowTags, "tags", false, "Show stop and direction tags")
	syncCmd.Flags().StringVarP(&flagRoute, "route", "r", "", "Only show stops of this route")

	// Prediction flags
	predictionCmd.Flags().DurationVar(&flagPredictTimeout, "timeout", 5*time.Second, "Time to wait for the companion")
	predictionCmd.Flags().BoolVar(&flagJSON, "json", false, "Output as JSON")
	predictionCmd.Flags().BoolVarP(&flagWatch, "watch", "w", false, "Watch mode: refresh every 30 seconds")

	// Companion flags
	companionCmd.Flags().BoolVar(&flagWarm, "warm", false, "Fetch every prediction before serving")
	companionCmd.Flags().IntVar(&flagWorkers, "workers", 4, "Concurrent requests while warming")
}

// setup loads the environment configuration, applies flag overrides and
// configures the global logger
func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if flagDebug {
		cfg.Debug = true
	}
	switch flagLogFormat {
	case "":
	case config.LogFormatJSON, config.LogFormatConsole:
		cfg.LogFormat = flagLogFormat
	default:
		return fmt.Errorf("unknown log format %q (use console or json)", flagLogFormat)
	}
	if flagPrefix != "" {
		cfg.QueuePrefix = flagPrefix
	}

	logger = config.SetupLogging(os.Stderr, cfg.LogFormat, cfg.Debug)
	return nil
}

// getColorMode returns the color mode based on flag
func getColorMode() output.ColorMode {
	return output.ParseColorMode(flagColor)
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Crawl the stop catalog and print it",
	Long: `Crawl the complete stop catalog from the companion and print it.

Each crawl attempt that does not finish within --timeout is restarted from
the beginning, with exponential backoff, up to --retries times.

Examples:
  stopsync sync                            # Crawl the built-in demo catalog
  stopsync sync --route 510                # Only show route 510
  stopsync sync --drop-rate 0.2            # Exercise retries on a lossy channel
  stopsync sync --channel redis --json     # Crawl over Redis, JSON output`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

var predictionCmd = &cobra.Command{
	Use:   "prediction <route_tag> <stop_tag>",
	Short: "Show the next arrivals of a route at a stop",
	Long: `Ask the companion for the next arrivals of a route at a stop.

Examples:
  stopsync prediction 506 5278             # Next 506 cars at College St
  stopsync prediction 510 7306 --watch     # Refresh every 30 seconds`,
	Args: cobra.ExactArgs(2),
	RunE: runPrediction,
}

var companionCmd = &cobra.Command{
	Use:   "companion",
	Short: "Serve the stop catalog over a broker channel",
	Long: `Run the companion side of the protocol: answer catalog and prediction
requests arriving on a Redis or STOMP channel.

Examples:
  stopsync companion --channel redis                      # Serve the demo catalog
  stopsync companion --channel stomp --fixture stops.yaml
  stopsync companion --channel redis --nextbus --warm     # Live predictions`,
	Args: cobra.NoArgs,
	RunE: runCompanion,
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive terminal UI",
	Long: `Launch an interactive terminal UI for browsing the stop catalog.

Keyboard shortcuts:
  Tab/Shift+Tab  Switch between panels
  j/k or ↑/↓     Navigate lists
  Enter          Select / request prediction
  a              Toggle auto-refresh of the prediction
  r              Resync the catalog
  Esc            Go back
  /              Filter by route
  q              Quit`,
	RunE: runTUI,
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx, cancel := output.SignalContext(cmd.Context())
	defer cancel()

	w, err := openWatch(ctx)
	if err != nil {
		return err
	}
	defer w.Close()

	go func() { _ = w.loop.Run(ctx) }()

	list, err := crawl(ctx, w.engine, w.loop, flagSyncTimeout, flagRetries)
	if err != nil {
		return err
	}
	defer list.Destroy()

	// JSON output
	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	}

	output.RenderCatalog(os.Stdout, list, output.TableOptions{
		Colors:   output.NewColors(getColorMode()),
		ShowTags: flagShowTags,
		Route:    flagRoute,
	})
	return nil
}

func runPrediction(cmd *cobra.Command, args []string) error {
	routeTag, stopTag := args[0], args[1]

	ctx, cancel := output.SignalContext(cmd.Context())
	defer cancel()

	w, err := openWatch(ctx)
	if err != nil {
		return err
	}
	defer w.Close()

	go func() { _ = w.loop.Run(ctx) }()

	// Route and direction titles are only known for the built-in companion
	var stop *catalog.Stop
	if w.catalog != nil {
		stop = w.catalog.FindStop(routeTag, stopTag)
	}

	render := func(ctx context.Context, out io.Writer) error {
		p, label, err := predict(ctx, w.engine, w.loop, routeTag, stopTag, flagPredictTimeout)
		if err != nil {
			return err
		}
		output.RenderPrediction(out, routeTag, stopTag, stop, p, label, output.TableOptions{
			Colors: output.NewColors(getColorMode()),
		})
		return nil
	}

	// Watch mode
	if flagWatch {
		return output.Watch(ctx, os.Stdout, 30*time.Second, render)
	}

	if flagJSON {
		p, label, err := predict(ctx, w.engine, w.loop, routeTag, stopTag, flagPredictTimeout)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			RouteTag     string             `json:"routeTag"`
			StopTag      string             `json:"stopTag"`
			Prediction   catalog.Prediction `json:"prediction"`
			MinutesLabel string             `json:"minutesLabel"`
		}{routeTag, stopTag, p, label})
	}

	return render(ctx, os.Stdout)
}

func runCompanion(cmd *cobra.Command, args []string) error {
	if flagChannel == channelLoopback {
		return fmt.Errorf("the companion needs a broker channel, use --channel redis or --channel stomp")
	}

	ctx, cancel := output.SignalContext(cmd.Context())
	defer cancel()

	list, predictor, err := loadCompanion()
	if err != nil {
		return err
	}
	defer list.Destroy()

	if flagWarm {
		n, err := companion.Warm(ctx, predictor, list, flagWorkers)
		if err != nil {
			log.Warn().Err(err).Msg("Some predictions could not be fetched")
		}
		log.Info().Int("stops", n).Msg("Warmed predictions")
	}

	loop := channel.NewLoop()
	ch, closeConn, err := openBroker(ctx, channel.RoleCompanion, loop)
	if err != nil {
		return err
	}
	defer closeConn()

	log.Info().
		Str("channel", flagChannel).
		Str("prefix", cfg.QueuePrefix).
		Int("sections", list.SectionCount()).
		Int("stops", list.StopTotal()).
		Msg("Companion serving")

	responder := companion.NewResponder(list, predictor, companion.WithLogger(logger))
	return companion.NewServer(ch, loop, responder, logger).Serve(ctx)
}

func runTUI(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Logs would corrupt the alternate screen
	if cfg.Debug {
		f, err := os.OpenFile("stopsync-debug.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open debug log: %w", err)
		}
		defer func() { _ = f.Close() }()
		logger = config.SetupLogging(f, config.LogFormatJSON, true)
	} else {
		logger = config.SetupLogging(io.Discard, cfg.LogFormat, false)
	}

	w, err := openWatch(ctx)
	if err != nil {
		return err
	}
	defer w.Close()

	model := tui.New(tui.NewSession(w.engine, w.loop))
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	w.loop.Stop()
	return err
}

// loadCompanion builds the catalog a companion serves and the source of its
// predictions
func loadCompanion() (*catalog.StopList, companion.Predictor, error) {
	var (
		fixture *companion.Fixture
		err     error
	)
	if flagFixture == "" {
		fixture, err = companion.ParseFixture(demoCatalog)
	} else {
		fixture, err = companion.LoadFixture(flagFixture)
	}
	if err != nil {
		return nil, nil, err
	}

	list, err := fixture.Catalog()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid fixture: %w", err)
	}

	if flagNextBus {
		client := nextbus.NewClient(
			nextbus.WithDefaultCache(),
			nextbus.WithAgency(cfg.NextBusAgency),
		)
		return list, client, nil
	}
	return list, fixture.Predictor(), nil
}
