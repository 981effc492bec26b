package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aluiziolira/dailyfetch/archive"
	"github.com/aluiziolira/dailyfetch/config"
	"github.com/aluiziolira/dailyfetch/downloader"
	"github.com/aluiziolira/dailyfetch/fetch"
	"github.com/aluiziolira/dailyfetch/models"
	"github.com/aluiziolira/dailyfetch/pipeline"
	"github.com/google/uuid"
	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"
)

type options struct {
	Config   string `short:"c" long:"config" env:"DAILYFETCH_CONFIG" default:"config.json" description:"Sources file (JSON, or YAML by extension)"`
	Out      string `short:"o" long:"out" env:"DAILYFETCH_OUT" default:"data" description:"Archive root directory"`
	Names    string `long:"names" env:"DAILYFETCH_NAMES" description:"Comma separated source names (default: all)"`
	Date     string `long:"date" description:"Target or reference date, YYYY-MM-DD (default: today)"`
	Days     int    `long:"days" default:"0" description:"Range backfill over N days from today; negative walks back, positive forward"`
	Offsets  bool   `long:"offsets" description:"Use each source's gaps list relative to the reference date"`
	Timezone string `long:"timezone" env:"DAILYFETCH_TZ" default:"UTC" description:"Reference timezone for today"`

	Timeout      time.Duration `long:"timeout" env:"DAILYFETCH_TIMEOUT" default:"30s" description:"Timeout for every HTTP request"`
	MaxRetries   int           `long:"max-retries" default:"2" description:"Attempts per image"`
	RetryMin     time.Duration `long:"retry-delay-min" default:"3s" description:"Minimum delay between image attempts"`
	RetryMax     time.Duration `long:"retry-delay-max" default:"10s" description:"Maximum delay between image attempts"`
	PaceMin      time.Duration `long:"pace-delay-min" default:"3s" description:"Minimum delay between a JSON document and its image"`
	PaceMax      time.Duration `long:"pace-delay-max" default:"10s" description:"Maximum delay between a JSON document and its image"`
	DayMin       time.Duration `long:"day-delay-min" default:"1s" description:"Minimum delay between backfill days"`
	DayMax       time.Duration `long:"day-delay-max" default:"5s" description:"Maximum delay between backfill days"`
	AbsentCache  int           `long:"absent-cache" default:"1024" description:"How many 404 URLs to remember during a run (0 disables)"`
	Report       string        `long:"report" env:"DAILYFETCH_REPORT" description:"Append one record per attempt to this file"`
	ReportFormat string        `long:"report-format" default:"csv" choice:"csv" choice:"json" description:"Report format"`
	MetricsFile  string        `long:"metrics-file" env:"DAILYFETCH_METRICS_FILE" description:"Write Prometheus metrics in textfile format"`
	Verbose      bool          `short:"v" long:"verbose" env:"DAILYFETCH_VERBOSE" description:"Enable debug logging"`
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}

	var opts options
	if _, err := flags.NewParser(&opts, flags.Default).Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}

	cfg := buildConfig(opts)
	runID := uuid.NewString()
	logger, level := newLogger(cfg.Verbose)
	logger = logger.With(slog.String("run_id", runID))
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	code := run(ctx, cfg, runID, logger)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, cfg *config.Config, runID string, log *slog.Logger) int {
	osFS := afero.NewOsFs()
	sources, err := config.LoadSources(osFS, cfg.ConfigFile, log)
	if err != nil {
		if errors.Is(err, config.ErrConfigMissing) {
			log.Warn("no config file, nothing to do", slog.String("path", cfg.ConfigFile))
		} else {
			log.Error("load config", slog.Any("error", err))
		}
		return 1
	}

	loc, err := cfg.Location()
	if err != nil {
		log.Error("invalid timezone", slog.Any("error", err))
		return 1
	}

	absent, err := downloader.NewAbsentCache(cfg.AbsentCacheSize)
	if err != nil {
		log.Error("initialising absent cache", slog.Any("error", err))
		return 1
	}

	metrics := fetch.NewMetrics()
	fetcher := fetch.NewFetcher(cfg.Timeout, metrics, log)
	store := archive.NewStoreWithFS(osFS, log)
	images := downloader.NewImageDownloader(fetcher, store, downloader.ImageOptions{
		MaxRetries: cfg.MaxRetries,
		Timeout:    cfg.Timeout,
		Backoff:    downloader.NewPacer(cfg.RetryDelayMin, cfg.RetryDelayMax, nil),
		Absent:     absent,
		Metrics:    metrics,
	}, log)
	jsons := downloader.NewJSONDownloader(fetcher, store, images,
		downloader.NewPacer(cfg.PaceDelayMin, cfg.PaceDelayMax, nil), cfg.Timeout, log)
	orch := pipeline.NewOrchestrator(cfg.OutputDir, store, images, jsons, log)

	var report pipeline.RecordWriter
	if cfg.ReportFile != "" {
		report, err = pipeline.NewReportWriter(cfg.ReportFormat, cfg.ReportFile)
		if err != nil {
			log.Error("creating report writer", slog.Any("error", err))
			return 1
		}
		defer func() {
			if err := report.Close(); err != nil {
				log.Error("close report", slog.Any("error", err))
			}
		}()
	}

	driver := pipeline.NewDriver(sources, orch, pipeline.DriverOptions{
		Root:     cfg.OutputDir,
		RunID:    runID,
		Location: loc,
		DayPace:  downloader.NewPacer(cfg.DayDelayMin, cfg.DayDelayMax, nil),
		Report:   report,
		Metrics:  metrics,
	}, log)

	log.Info("starting run",
		slog.String("mode", string(cfg.Mode())),
		slog.String("config", cfg.ConfigFile),
		slog.String("out", cfg.OutputDir),
		slog.Int("sources", len(sources)),
	)

	var result *models.RunResult
	switch cfg.Mode() {
	case models.ModeRange:
		result, err = driver.RunRange(ctx, cfg.Names, cfg.Days)
	case models.ModeOffsets:
		result, err = driver.RunOffsets(ctx, cfg.Names, cfg.Date)
	default:
		result, err = driver.RunSingle(ctx, cfg.Names, cfg.Date)
	}

	if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
		log.Error("write metrics file", slog.Any("error", err))
	}
	if result != nil {
		printSummary(result)
	}
	if err != nil {
		log.Error("run aborted", slog.Any("error", err))
		return 1
	}
	return 0
}

func buildConfig(opts options) *config.Config {
	cfg := config.DefaultConfig()
	cfg.ConfigFile = opts.Config
	cfg.OutputDir = opts.Out
	cfg.Names = splitNames(opts.Names)
	cfg.Date = opts.Date
	cfg.Days = opts.Days
	cfg.Offsets = opts.Offsets
	cfg.Timezone = opts.Timezone
	cfg.Timeout = opts.Timeout
	cfg.MaxRetries = opts.MaxRetries
	cfg.RetryDelayMin = opts.RetryMin
	cfg.RetryDelayMax = opts.RetryMax
	cfg.PaceDelayMin = opts.PaceMin
	cfg.PaceDelayMax = opts.PaceMax
	cfg.DayDelayMin = opts.DayMin
	cfg.DayDelayMax = opts.DayMax
	cfg.AbsentCacheSize = opts.AbsentCache
	cfg.ReportFile = opts.Report
	cfg.ReportFormat = strings.ToLower(opts.ReportFormat)
	cfg.MetricsFile = opts.MetricsFile
	cfg.Verbose = opts.Verbose
	return cfg
}

func splitNames(value string) []string {
	var names []string
	for _, name := range strings.Split(value, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func printSummary(result *models.RunResult) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Printf("Run complete (%s)\n", result.Mode)
	fmt.Printf("  Run ID:        %s\n", result.RunID)
	fmt.Printf("  Days:          %d\n", result.Days)
	fmt.Printf("  Attempts:      %d\n", result.Attempts)
	fmt.Printf("  Saved:         %d\n", result.Saved)
	fmt.Printf("  Absent (404):  %d\n", result.Absent)
	fmt.Printf("  Skipped:       %d\n", result.Skipped)
	fmt.Printf("  Failed:        %d\n", result.Failed)
	fmt.Printf("  Duration:      %v\n", result.EndTime.Sub(result.StartTime).Round(time.Millisecond))
	fmt.Println(separator)
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stderr) {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
