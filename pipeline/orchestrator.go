// Package pipeline drives per-source downloads across dates.
package pipeline

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aluiziolira/dailyfetch/archive"
	"github.com/aluiziolira/dailyfetch/downloader"
	"github.com/aluiziolira/dailyfetch/fetch"
	"github.com/aluiziolira/dailyfetch/models"
)

// Downloader runs one (source, date) attempt.
type Downloader interface {
	DownloadOne(ctx context.Context, name string, d models.SourceDescriptor, date time.Time, paced bool) models.Outcome
}

// Orchestrator resolves paths, checks for existing files and dispatches by format.
type Orchestrator struct {
	root      string
	store     *archive.Store
	images    *downloader.ImageDownloader
	jsons     *downloader.JSONDownloader
	userAgent func() string
	log       *slog.Logger
}

// NewOrchestrator builds an orchestrator writing below root.
func NewOrchestrator(root string, store *archive.Store, images *downloader.ImageDownloader, jsons *downloader.JSONDownloader, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		root:      root,
		store:     store,
		images:    images,
		jsons:     jsons,
		userAgent: fetch.RandomDesktopUA,
		log:       log,
	}
}

// SetUserAgent replaces the User-Agent generator.
func (o *Orchestrator) SetUserAgent(fn func() string) {
	if fn != nil {
		o.userAgent = fn
	}
}

// DownloadOne fetches the image of source name for date.
// It returns OutcomeSkipped without any request when the files already exist.
func (o *Orchestrator) DownloadOne(ctx context.Context, name string, d models.SourceDescriptor, date time.Time, paced bool) models.Outcome {
	paths := archive.Resolve(o.root, name, date)
	if o.store.Exists(paths.Image) && (d.Format != models.FormatJSON || o.store.Exists(paths.JSON)) {
		o.log.Debug("Exists save file, ignore", slog.String("path", paths.Image))
		return models.OutcomeSkipped
	}

	header := http.Header{}
	header.Set("User-Agent", o.userAgent())
	header.Set("Referer", d.Site)

	url := d.URLFor(date)

	switch d.Format {
	case models.FormatImage:
		return o.images.Download(ctx, url, header, paths.Image)
	case models.FormatJSON:
		return o.jsons.Download(ctx, url, header, paths.Image, paths.JSON, d.Keys, paced)
	default:
		o.log.Warn("unknown source format", slog.String("name", name), slog.String("format", string(d.Format)))
		return models.OutcomeFailed
	}
}
