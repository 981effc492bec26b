// Package downloader fetches daily images with bounded retries and
// resolves images embedded in JSON documents.
package downloader

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aluiziolira/dailyfetch/archive"
	"github.com/aluiziolira/dailyfetch/fetch"
	"github.com/aluiziolira/dailyfetch/models"
)

// DefaultMaxRetries is the number of attempts per image.
const DefaultMaxRetries = 2

// ImageOptions configures an ImageDownloader.
type ImageOptions struct {
	MaxRetries int
	Timeout    time.Duration
	Backoff    *Pacer
	Absent     *AbsentCache
	Metrics    *fetch.Metrics
}

// ImageDownloader fetches an image with bounded retries and saves it.
type ImageDownloader struct {
	getter     fetch.Getter
	store      *archive.Store
	maxRetries int
	timeout    time.Duration
	backoff    *Pacer
	absent     *AbsentCache
	metrics    *fetch.Metrics
	log        *slog.Logger
}

// NewImageDownloader builds an image downloader.
func NewImageDownloader(getter fetch.Getter, store *archive.Store, opts ImageOptions, log *slog.Logger) *ImageDownloader {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.Timeout <= 0 {
		opts.Timeout = fetch.DefaultTimeout
	}
	if opts.Backoff == nil {
		opts.Backoff = NewPacer(3*time.Second, 10*time.Second, nil)
	}
	if log == nil {
		log = slog.Default()
	}
	return &ImageDownloader{
		getter:     getter,
		store:      store,
		maxRetries: opts.MaxRetries,
		timeout:    opts.Timeout,
		backoff:    opts.Backoff,
		absent:     opts.Absent,
		metrics:    opts.Metrics,
		log:        log,
	}
}

// Download fetches url into dest.
//
// A 200 saves the body and yields OutcomeSaved. A 404 yields
// OutcomeConfirmedAbsent without writing or retrying. Anything else is
// retried after a randomized backoff until MaxRetries attempts were made;
// there is no sleep after the last attempt.
func (d *ImageDownloader) Download(ctx context.Context, url string, header http.Header, dest string) models.Outcome {
	if d.absent.Contains(url) {
		d.log.Info("url already confirmed absent", slog.String("url", url))
		return models.OutcomeConfirmedAbsent
	}

	for attempt := 1; attempt <= d.maxRetries; attempt++ {
		resp := d.getter.Get(ctx, url, header, d.timeout)

		switch {
		case resp.OK():
			if err := d.store.Write(dest, resp.Body); err != nil {
				d.log.Error("save image", slog.String("path", dest), slog.Any("error", err))
				return models.OutcomeFailed
			}
			return models.OutcomeSaved
		case resp.NotFound():
			d.log.Info("image not published", slog.String("url", url))
			d.absent.Add(url)
			return models.OutcomeConfirmedAbsent
		}

		d.log.Warn("image attempt failed",
			slog.String("url", url),
			slog.Int("attempt", attempt),
			slog.Int("status", resp.Status),
			slog.Any("error", resp.Err),
		)
		if attempt == d.maxRetries {
			break
		}
		d.metrics.IncRetries()
		if err := d.backoff.Wait(ctx); err != nil {
			d.log.Warn("retry wait interrupted", slog.Any("error", err))
			return models.OutcomeFailed
		}
	}

	return models.OutcomeFailed
}
