// Command bd-report ranks a directory of entity bundles offline and exports
// the ranking and launch plans as CSV and Excel files.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"brewsignal/internal/config"
	"brewsignal/internal/exporter"
	"brewsignal/internal/infrastructure"
	"brewsignal/internal/services"
)

const (
	formatCSV  = "csv"
	formatXLSX = "xlsx"
	formatBoth = "both"
)

type options struct {
	dir        string
	outDir     string
	format     string
	configPath string
	plans      bool
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		slog.Error("bd-report failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("bd-report", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.dir, "dir", "", "directory of entity bundle files (.json, .yaml, .yml)")
	fs.StringVar(&opts.outDir, "out-dir", "", "output directory (defaults to export.dir from the configuration)")
	fs.StringVar(&opts.format, "format", formatBoth, "csv | xlsx | both")
	fs.StringVar(&opts.configPath, "config", "", "YAML configuration file")
	fs.BoolVar(&opts.plans, "plans", false, "also write launch-grid and milestone CSVs per entity")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	if opts.dir == "" {
		return opts, errors.New("-dir is required")
	}
	opts.format = strings.ToLower(opts.format)
	switch opts.format {
	case formatCSV, formatXLSX, formatBoth:
	default:
		return opts, fmt.Errorf("unsupported format %q", opts.format)
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	cfg, err := config.LoadFrom(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.outDir == "" {
		opts.outDir = cfg.Export.Dir
	}

	logger, closer, err := infrastructure.NewLogger(cfg.Logging, stderr)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer closer.Close()
	logger = infrastructure.WithComponent(logger, "bd-report")

	logger.Info("Starting report",
		slog.String("input_dir", opts.dir),
		slog.String("output_dir", opts.outDir),
		slog.String("format", opts.format))

	bundles, err := loadBundles(opts.dir)
	if err != nil {
		return err
	}
	logger.Info("Bundles loaded", slog.Int("count", len(bundles)))

	svc, err := services.NewEvaluationService(cfg.Engine, services.Options{
		RankConcurrency: cfg.Service.RankConcurrency,
	}, logger)
	if err != nil {
		return err
	}

	report, err := buildReport(ctx, svc, bundles, cfg.Service.RankConcurrency)
	if err != nil {
		return err
	}
	if err := printRanking(stdout, report.Ranking, cfg.Export.TimeFormat); err != nil {
		return err
	}

	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	if opts.format == formatCSV || opts.format == formatBoth {
		csvWriter := exporter.NewCSVWriter(opts.outDir, logger)
		if err := csvWriter.WriteTable("ranking.csv", exporter.RankingTable(report.Ranking, cfg.Export.TimeFormat)); err != nil {
			return err
		}
		if opts.plans {
			for _, p := range report.Plans {
				if p.Plan.Empty {
					continue
				}
				id := fileSafe(p.EntityID)
				if err := csvWriter.WriteTable("plan_"+id+".csv", exporter.GridTable(p.Plan, cfg.Export.TimeFormat)); err != nil {
					return err
				}
				if err := csvWriter.WriteTable("milestones_"+id+".csv", exporter.MilestoneTable(p.Plan, cfg.Export.TimeFormat)); err != nil {
					return err
				}
			}
		}
	}

	if opts.format == formatXLSX || opts.format == formatBoth {
		xlsxWriter := exporter.NewXLSXWriter(opts.outDir, cfg.Export.SheetName, cfg.Export.TimeFormat, logger)
		if err := xlsxWriter.WriteReport("ranking.xlsx", report); err != nil {
			return err
		}
	}

	logger.Info("Report completed",
		slog.Int("entities", len(report.Ranking)),
		slog.String("output_dir", filepath.Clean(opts.outDir)))
	return nil
}

// fileSafe replaces characters that are awkward in file names
func fileSafe(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, s)
}
