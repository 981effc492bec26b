package downloader

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aluiziolira/dailyfetch/archive"
	"github.com/aluiziolira/dailyfetch/fetch"
	"github.com/aluiziolira/dailyfetch/models"
	"github.com/aluiziolira/dailyfetch/parser"
)

// JSONDownloader fetches a JSON document, keeps it as a sidecar and
// downloads the image URL found under a key path.
type JSONDownloader struct {
	getter  fetch.Getter
	store   *archive.Store
	images  *ImageDownloader
	pace    *Pacer
	timeout time.Duration
	log     *slog.Logger
}

// NewJSONDownloader builds a JSON downloader delegating images to images.
// pace is used between the JSON and image requests when pacing is requested.
func NewJSONDownloader(getter fetch.Getter, store *archive.Store, images *ImageDownloader, pace *Pacer, timeout time.Duration, log *slog.Logger) *JSONDownloader {
	if pace == nil {
		pace = NewPacer(3*time.Second, 10*time.Second, nil)
	}
	if timeout <= 0 {
		timeout = fetch.DefaultTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &JSONDownloader{
		getter:  getter,
		store:   store,
		images:  images,
		pace:    pace,
		timeout: timeout,
		log:     log,
	}
}

// Download resolves the embedded image of the document at url.
// The JSON request is not retried. The sidecar is written before the key
// path is applied, so it survives a failed extraction.
func (d *JSONDownloader) Download(ctx context.Context, url string, header http.Header, imageDest, jsonDest string, keys []string, paced bool) models.Outcome {
	resp := d.getter.Get(ctx, url, header, d.timeout)
	if !resp.OK() {
		d.log.Warn("json request failed",
			slog.String("url", url),
			slog.Int("status", resp.Status),
			slog.Any("error", resp.Err),
		)
		return models.OutcomeFailed
	}

	doc, err := parser.Decode(resp.Body)
	if err != nil {
		d.log.Warn("malformed json", slog.String("url", url), slog.Any("error", err))
		return models.OutcomeFailed
	}

	if err := d.store.Write(jsonDest, resp.Body); err != nil {
		d.log.Error("save json", slog.String("path", jsonDest), slog.Any("error", err))
		return models.OutcomeFailed
	}

	imageURL, err := parser.ExtractURL(doc, keys)
	if err != nil {
		d.log.Warn("no image url in json",
			slog.String("url", url),
			slog.Any("keys", keys),
			slog.Any("error", err),
		)
		return models.OutcomeFailed
	}

	if paced {
		if err := d.pace.Wait(ctx); err != nil {
			d.log.Warn("pace wait interrupted", slog.Any("error", err))
			return models.OutcomeFailed
		}
	}

	return d.images.Download(ctx, imageURL, header, imageDest)
}
