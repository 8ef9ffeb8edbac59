package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/hyperengineering/kennel/internal/apiclient"
	"github.com/hyperengineering/kennel/internal/config"
	"github.com/hyperengineering/kennel/internal/provider"
)

// Version is set at build time via ldflags: -ldflags "-X main.Version=1.0.0"
var Version = "dev"

// globals holds the persistent flags shared by every subcommand.
type globals struct {
	json    bool
	metrics bool
	apiURL  string
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:          "kennel",
		Short:        "Kennel - breeding records client",
		Long:         "Manage dogs, heat cycles, litters and health records against a kennel API.",
		Version:      Version,
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVar(&g.json, "json", false,
		"Output in JSON format")
	root.PersistentFlags().BoolVar(&g.metrics, "metrics", false,
		"Print API client metrics to stderr when the command finishes")
	root.PersistentFlags().StringVar(&g.apiURL, "api-url", "",
		"Kennel API base URL (overrides config and KENNEL_API_URL)")

	root.AddCommand(
		newDogsCmd(g),
		newHeatsCmd(g),
		newLittersCmd(g),
		newHealthCmd(g),
		newDashboardCmd(g),
		newServeCmd(g),
	)
	return root
}

// session is the client side of one command invocation: configuration,
// logger, API client and the provider tree built on top of it.
type session struct {
	cfg      *config.Config
	logger   *slog.Logger
	client   *apiclient.Client
	tree     *provider.Tree
	registry *prometheus.Registry
	g        *globals
	stderr   io.Writer
}

// openSession loads configuration and builds the provider tree. Nothing is
// fetched until the caller navigates.
func openSession(cmd *cobra.Command, g *globals) (*session, error) {
	cfg, err := loadConfig(g)
	if err != nil {
		return nil, err
	}
	if err := cfg.RequireAPI(); err != nil {
		return nil, err
	}

	logger := newLogger(cmd.ErrOrStderr(), cfg)
	reg := prometheus.NewRegistry()

	client, err := apiclient.New(apiclient.Config{
		BaseURL: cfg.API.URL,
		Token:   cfg.API.Token,
		Timeout: time.Duration(cfg.API.Timeout),
		Logger:  logger,
		Metrics: apiclient.NewMetrics(reg),
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("api client initialized", "url", cfg.API.URL)

	return &session{
		cfg:      cfg,
		logger:   logger,
		client:   client,
		tree:     provider.NewTree(client, provider.Routes(cfg.Routes), logger),
		registry: reg,
		g:        g,
		stderr:   cmd.ErrOrStderr(),
	}, nil
}

// close unmounts every provider and, with --metrics, dumps the request
// counters.
func (s *session) close() {
	s.tree.Close()
	if s.g.metrics {
		if err := writeMetrics(s.stderr, s.registry); err != nil {
			s.logger.Warn("metrics dump failed", "error", err)
		}
	}
}

func loadConfig(g *globals) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if g.apiURL != "" {
		cfg.API.URL = g.apiURL
	}
	return cfg, nil
}

// newLogger builds the process logger. Debug forces the debug level.
func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	level := parseLogLevel(cfg.Log.Level)
	if cfg.Debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if strings.EqualFold(cfg.Log.Format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func writeMetrics(w io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

// printJSON marshals v to JSON and writes to the given writer.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newTabWriter returns a configured tabwriter for aligned columns.
func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}
