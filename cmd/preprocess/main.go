// Command preprocess transforms a raw attendance log (CSV or xlsx) into
// the leakage-safe feature table the next-day attendance classifier trains
// on.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"presensi/internal/anomaly"
	"presensi/internal/attendance"
	"presensi/internal/config"
	"presensi/internal/dataset"
	"presensi/internal/features"
	"presensi/internal/infrastructure"
	"presensi/internal/pipeline"
)

func main() {
	if err := run(); err != nil {
		slog.Error("preprocessing failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	inPath := flag.String("in", "", "input attendance log (.csv or .xlsx)")
	outPath := flag.String("out", "features.csv", "output feature table (CSV)")
	configPath := flag.String("config", "", "optional YAML config file")
	gateMode := flag.String("gate", "", "anomaly gate placement: pre|post|off (overrides config)")
	flagVariant := flag.String("flag-variant", "", "streak/count flag: telat|alpa (overrides config)")
	labelVariant := flag.String("label-variant", "", "labeling variant: strict|overwrite (overrides config)")
	contamination := flag.Float64("contamination", 0, "expected anomaly fraction (overrides config)")
	seed := flag.Int64("seed", -1, "outlier model seed (overrides config)")
	threshold := flag.Float64("threshold", -1, "low-activity threshold percent (overrides config)")
	flag.Parse()

	if *inPath == "" {
		return fmt.Errorf("missing required -in flag")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	applyFlagOverrides(cfg, *gateMode, *flagVariant, *labelVariant, *contamination, *seed, *threshold)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}

	ctx := context.Background()
	shutdownTracing, err := infrastructure.InitializeTracing(ctx, cfg.Logging.Tracing, logger)
	if err != nil {
		return fmt.Errorf("initialize tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(ctx); err != nil {
			logger.Warn("tracing shutdown failed", slog.String("error", err.Error()))
		}
	}()

	logger.Info("starting attendance preprocessing",
		slog.String("input", *inPath),
		slog.String("output", *outPath),
		slog.String("gate_mode", cfg.Pipeline.GateMode),
		slog.String("flag_variant", cfg.Pipeline.FlagVariant),
	)

	events, err := readLog(*inPath)
	if err != nil {
		return err
	}

	variant := features.FlagVariant(cfg.Pipeline.FlagVariant)
	runner, err := pipeline.Build(pipeline.Options{
		LabelVariant:      attendance.LabelVariant(cfg.Pipeline.LabelVariant),
		FlagVariant:       variant,
		GateMode:          anomaly.Mode(cfg.Pipeline.GateMode),
		Contamination:     cfg.Pipeline.Contamination,
		Seed:              cfg.Pipeline.Seed,
		ActivityThreshold: cfg.Pipeline.ActivityThresholdPct,
		Concurrency:       cfg.Pipeline.Concurrency,
	}, logger)
	if err != nil {
		return err
	}

	result, err := runner.Run(ctx, events)
	if err != nil {
		return err
	}

	if err := dataset.WriteFeatureTable(*outPath, result.Rows, variant); err != nil {
		return fmt.Errorf("write feature table: %w", err)
	}

	logger.Info("preprocessing finished",
		slog.String("run_id", result.RunID),
		slog.Int("input_rows", len(events)),
		slog.Int("output_rows", len(result.Rows)),
		slog.Duration("elapsed", result.Duration),
	)
	return nil
}

// readLog dispatches on the input extension.
func readLog(path string) ([]attendance.Event, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return dataset.ReadXLSX(path)
	case ".csv":
		return dataset.ReadCSV(path)
	default:
		return nil, fmt.Errorf("unsupported input format: %s", path)
	}
}

// applyFlagOverrides copies explicitly-set CLI flags over the loaded
// config. Zero-ish defaults mean "not set" for the numeric flags.
func applyFlagOverrides(cfg *config.Config, gate, flagVariant, labelVariant string, contamination float64, seed int64, threshold float64) {
	if gate != "" {
		cfg.Pipeline.GateMode = gate
	}
	if flagVariant != "" {
		cfg.Pipeline.FlagVariant = flagVariant
	}
	if labelVariant != "" {
		cfg.Pipeline.LabelVariant = labelVariant
	}
	if contamination > 0 {
		cfg.Pipeline.Contamination = contamination
	}
	if seed >= 0 {
		cfg.Pipeline.Seed = seed
	}
	if threshold >= 0 {
		cfg.Pipeline.ActivityThresholdPct = threshold
	}
}
