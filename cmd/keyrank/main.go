package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"keyrank/internal/config"
	"keyrank/internal/domain"
	"keyrank/internal/logging"
	"keyrank/internal/service"
	"keyrank/internal/tui"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	if len(os.Args) > 1 && os.Args[1] == "fuse" {
		err = runFuse(os.Args[2:], os.Stdout)
	} else {
		err = run(ctx, os.Args[1:], os.Stdout)
	}
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "keyrank:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("keyrank", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "Path to YAML config file (optional; uses ./keyrank.yaml or ~/.config/keyrank/config.yaml)")
	mode := fs.String("mode", "", "Ranking unit: phrase or sentence (overrides config)")
	top := fs.Int("top", 0, "Number of results per document (overrides config)")
	useTUI := fs.Bool("tui", false, "Browse results in the terminal UI")
	asJSON := fs.Bool("json", false, "Print full reports as JSON")
	metricsAddr := fs.String("metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: keyrank [flags] file1.txt [file2.txt ...]")
		fmt.Fprintln(fs.Output(), "       keyrank fuse [--method rrf|weighted|hybrid] list1.json list2.json ...")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	inputs := fs.Args()
	if len(inputs) == 0 {
		fs.Usage()
		return errors.New("no input files")
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if *mode != "" {
		cfg.Extractor.Mode = *mode
	}
	if *top > 0 {
		cfg.Selector.TopK = *top
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.New(cfg.Log)
	if *useTUI {
		// keep the terminal clean while the UI owns it
		logger = logger.Level(zerolog.ErrorLevel)
	}
	if *metricsAddr != "" {
		serveMetrics(*metricsAddr, logger)
	}

	engine, err := service.FromConfig(cfg, logger)
	if err != nil {
		return err
	}

	docs, err := readDocuments(inputs)
	if err != nil {
		return err
	}

	if *useTUI {
		m := tui.New(engine, docs, domain.Mode(cfg.Extractor.Mode))
		_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
		return err
	}

	for _, d := range docs {
		rep, err := engine.Run(ctx, d.Text, domain.Mode(cfg.Extractor.Mode))
		if err != nil {
			return err
		}
		if *asJSON {
			if err := writeJSON(stdout, map[string]any{"document": d.Name, "report": rep}); err != nil {
				return err
			}
			continue
		}
		printReport(stdout, d.Name, rep)
	}
	return nil
}

func loadConfig(path string) (*config.AppConfig, error) {
	if path == "" {
		cfg, _, err := config.LoadDefault()
		return cfg, err
	}
	return config.Load(path)
}

func serveMetrics(addr string, logger zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Str("addr", addr).Msg("metrics server stopped")
		}
	}()
	logger.Info().Str("addr", addr).Msg("serving metrics")
}

// readDocuments expands globs and reads every matching file.
func readDocuments(paths []string) ([]tui.Document, error) {
	var docs []tui.Document
	for _, p := range paths {
		matches, _ := filepath.Glob(p)
		if matches == nil {
			matches = []string{p}
		}
		for _, m := range matches {
			data, err := os.ReadFile(m)
			if err != nil {
				return nil, err
			}
			docs = append(docs, tui.Document{Name: m, Text: string(data)})
		}
	}
	if len(docs) == 0 {
		return nil, errors.New("no documents found")
	}
	return docs, nil
}
