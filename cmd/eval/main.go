// Command eval scores the transcript parser against golden datasets.
//
// Usage:
//
//	go run ./cmd/eval --dataset ./testdata/golden.json --output report.json
//
// Without --dataset the built-in sample dataset is used.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	transcript "github.com/iKozay/TrackMyDegree-sub000"
	"github.com/iKozay/TrackMyDegree-sub000/eval"
)

func main() {
	var (
		datasetPath = flag.String("dataset", "", "Path to a JSON dataset (default: built-in sample)")
		configPath  = flag.String("config", "", "Path to config file (YAML or JSON)")
		outputPath  = flag.String("output", "", "Write the JSON report to this path")
		verbose     = flag.Bool("verbose", false, "Enable debug logging")
		minPass     = flag.Float64("min-pass", 0, "Exit non-zero when the pass rate (0-100) is below this")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := run(*datasetPath, *configPath, *outputPath, *minPass); err != nil {
		slog.Error("eval failed", "error", err)
		os.Exit(1)
	}
}

func run(datasetPath, configPath, outputPath string, minPass float64) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := transcript.DefaultConfig()
	if configPath != "" {
		loaded, err := transcript.LoadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	// Scoring never needs stored results.
	cfg.DisableStore = true

	ds := eval.SampleDataset()
	if datasetPath != "" {
		loaded, err := eval.LoadDataset(datasetPath)
		if err != nil {
			return err
		}
		ds = loaded
	}

	engine, err := transcript.New(cfg)
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}
	defer engine.Close()

	slog.Info("eval: starting", "dataset", ds.Name, "cases", len(ds.Cases))
	report, err := eval.NewEvaluator(engine).Run(ctx, ds)
	if err != nil {
		return err
	}

	fmt.Print(eval.FormatReport(report))

	if outputPath != "" {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding report: %w", err)
		}
		if err := os.WriteFile(outputPath, data, 0o644); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		slog.Info("eval: report written", "path", outputPath)
	}

	if report.TotalTests > 0 {
		rate := float64(report.Passed) / float64(report.TotalTests) * 100
		if rate < minPass {
			return fmt.Errorf("pass rate %.1f%% below minimum %.1f%%", rate, minPass)
		}
	}
	return nil
}
