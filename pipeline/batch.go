package pipeline

import (
	"context"
	"log/slog"
	"slices"
	"sort"
	"time"

	"github.com/aluiziolira/dailyfetch/archive"
	"github.com/aluiziolira/dailyfetch/downloader"
	"github.com/aluiziolira/dailyfetch/fetch"
	"github.com/aluiziolira/dailyfetch/models"
)

// RecordWriter receives one record per attempt.
type RecordWriter interface {
	Write(rec models.Record) error
	Close() error
}

// DriverOptions configures a Driver.
type DriverOptions struct {
	Root     string
	RunID    string
	Location *time.Location
	Now      func() time.Time
	DayPace  *downloader.Pacer
	Report   RecordWriter
	Metrics  *fetch.Metrics
}

// Driver iterates a Downloader over sources and dates.
type Driver struct {
	sources models.Sources
	dl      Downloader
	opts    DriverOptions
	log     *slog.Logger
}

// NewDriver builds a batch driver.
func NewDriver(sources models.Sources, dl Downloader, opts DriverOptions, log *slog.Logger) *Driver {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.DayPace == nil {
		opts.DayPace = downloader.NewPacer(time.Second, 5*time.Second, nil)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Driver{sources: sources, dl: dl, opts: opts, log: log}
}

// RunSingle downloads one date for the selected sources. An empty date
// means today in the reference timezone; no names means every source.
// Disabled sources are still processed.
func (d *Driver) RunSingle(ctx context.Context, names []string, date string) (*models.RunResult, error) {
	result := d.begin(models.ModeSingle)
	day, err := d.resolveDate(date)
	if err != nil {
		return result, err
	}
	names = d.selectNames(names)
	d.log.Info("Download single date", slog.String("date", day.Format(models.DateLayout)), slog.Any("names", names))
	result.Days = 1

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return d.finish(result), err
		}
		d.attempt(ctx, result, name, d.sources[name], day, true)
	}
	return d.finish(result), nil
}

// RunOffsets downloads, for each selected source, the dates reference+gap
// for every gap configured on the source.
func (d *Driver) RunOffsets(ctx context.Context, names []string, date string) (*models.RunResult, error) {
	result := d.begin(models.ModeOffsets)
	ref, err := d.resolveDate(date)
	if err != nil {
		return result, err
	}
	names = d.selectNames(names)
	d.log.Info("Download offsets", slog.String("reference", ref.Format(models.DateLayout)), slog.Any("names", names))

	days := make(map[string]struct{})
	for _, name := range names {
		desc := d.sources[name]
		for _, gap := range desc.Offsets() {
			if err := ctx.Err(); err != nil {
				return d.finish(result), err
			}
			day := models.AddDays(ref, gap)
			days[models.DateStamp(day)] = struct{}{}
			d.attempt(ctx, result, name, desc, day, true)
		}
	}
	result.Days = len(days)
	return d.finish(result), nil
}

// RunRange walks |days| dates starting today, backwards when days is
// negative and forwards when positive. Only enabled sources take part and
// downloads are not paced individually; instead the driver sleeps between
// days that saw at least one successful download.
func (d *Driver) RunRange(ctx context.Context, names []string, days int) (*models.RunResult, error) {
	result := d.begin(models.ModeRange)
	today := models.Today(d.opts.Now(), d.opts.Location)

	var enabled []string
	for _, name := range d.selectNames(names) {
		if !d.sources[name].Enabled() {
			d.log.Info("Skip disabled source", slog.String("name", name))
			continue
		}
		enabled = append(enabled, name)
	}
	d.log.Info("Download batch", slog.Any("names", enabled), slog.Int("days", days), slog.String("today", today.Format(models.DateLayout)))

	for _, date := range RangeDates(today, days) {
		if err := ctx.Err(); err != nil {
			return d.finish(result), err
		}
		d.log.Info("Download date", slog.String("date", date.Format(models.DateLayout)))
		result.Days++

		success := 0
		for _, name := range enabled {
			if err := ctx.Err(); err != nil {
				return d.finish(result), err
			}
			if d.attempt(ctx, result, name, d.sources[name], date, false).Succeeded() {
				success++
			}
		}

		if success > 0 && result.Days < abs(days) {
			if err := d.opts.DayPace.Wait(ctx); err != nil {
				return d.finish(result), err
			}
		}
	}
	return d.finish(result), nil
}

// RangeDates lists the |days| dates visited by a range run.
func RangeDates(today time.Time, days int) []time.Time {
	step := 1
	if days < 0 {
		step = -1
	}
	dates := make([]time.Time, 0, abs(days))
	for gap := 0; gap < abs(days); gap++ {
		dates = append(dates, models.AddDays(today, step*gap))
	}
	return dates
}

func (d *Driver) attempt(ctx context.Context, result *models.RunResult, name string, desc models.SourceDescriptor, date time.Time, paced bool) models.Outcome {
	d.log.Info("Process name", slog.String("name", name), slog.String("date", date.Format(models.DateLayout)))
	start := time.Now()
	outcome := d.dl.DownloadOne(ctx, name, desc, date, paced)
	result.Add(outcome)
	d.opts.Metrics.IncDownload(name, outcome.String())

	if d.opts.Report != nil {
		paths := archive.Resolve(d.opts.Root, name, date)
		rec := models.Record{
			RunID:     d.opts.RunID,
			Mode:      result.Mode,
			Source:    name,
			Date:      date.Format(models.DateLayout),
			Outcome:   outcome.String(),
			URL:       desc.URLFor(date),
			ImagePath: paths.Image,
			Duration:  time.Since(start),
		}
		if desc.Format == models.FormatJSON {
			rec.JSONPath = paths.JSON
		}
		if err := d.opts.Report.Write(rec); err != nil {
			d.log.Error("write report record", slog.Any("error", err))
		}
	}
	return outcome
}

func (d *Driver) selectNames(names []string) []string {
	if len(names) == 0 {
		return d.sources.Names()
	}
	selected := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := d.sources[name]; !ok {
			d.log.Warn("unknown source name", slog.String("name", name))
			continue
		}
		selected = append(selected, name)
	}
	sort.Strings(selected)
	return slices.Compact(selected)
}

func (d *Driver) resolveDate(date string) (time.Time, error) {
	if date == "" {
		return models.Today(d.opts.Now(), d.opts.Location), nil
	}
	return models.ParseDate(date, d.opts.Location)
}

func (d *Driver) begin(mode models.Mode) *models.RunResult {
	return &models.RunResult{RunID: d.opts.RunID, Mode: mode, StartTime: d.opts.Now()}
}

func (d *Driver) finish(result *models.RunResult) *models.RunResult {
	result.EndTime = d.opts.Now()
	d.opts.Metrics.MarkRun(result.EndTime)
	return result
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
