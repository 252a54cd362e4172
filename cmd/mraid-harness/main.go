package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/woxQAQ/creative-bridge/internal/config"
	"github.com/woxQAQ/creative-bridge/internal/harness"
	"github.com/woxQAQ/creative-bridge/internal/trace"
	"go.uber.org/zap"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error); overrides the config")
	creativeName := flag.String("creative", "", "Creative to run (defaults to the first by name)")
	dumpPath := flag.String("dump", "", "Print a trace file as JSON lines and exit")
	flag.Parse()

	if *dumpPath != "" {
		if err := dump(*dumpPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.LoadHarnessConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting mraid-harness",
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("date", date),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	h, err := harness.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create harness", zap.Error(err))
	}

	result, runErr := h.Run(ctx, *creativeName)
	if err := h.Close(context.WithoutCancel(ctx)); err != nil {
		logger.Error("Failed to close harness", zap.Error(err))
	}
	if runErr != nil {
		logger.Fatal("Run failed", zap.Error(runErr))
	}

	logger.Info("Run complete",
		zap.String("creative", result.Creative),
		zap.String("state", string(result.State)),
		zap.Bool("use_custom_close", result.UseCustomClose),
		zap.Duration("elapsed", result.Elapsed),
	)
}

func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	cfg.Level = lvl
	return cfg.Build()
}

func dump(path string) error {
	records, err := trace.ReadFile(path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	for _, rec := range records {
		if err := enc.Encode(struct {
			trace.Record
			Direction string `json:"Direction"`
		}{rec, rec.Direction.String()}); err != nil {
			return err
		}
	}
	return nil
}
