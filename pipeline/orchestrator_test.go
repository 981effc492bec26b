package pipeline

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/aluiziolira/dailyfetch/archive"
	"github.com/aluiziolira/dailyfetch/downloader"
	"github.com/aluiziolira/dailyfetch/fetch"
	"github.com/aluiziolira/dailyfetch/models"
	"github.com/jarcoal/httpmock"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

var march7 = time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func noSleep(context.Context, time.Duration) error { return nil }

type orchestratorFixture struct {
	orch      *Orchestrator
	fs        afero.Fs
	transport *httpmock.MockTransport
}

func newOrchestratorFixture(t *testing.T) *orchestratorFixture {
	t.Helper()
	log := discardLogger()
	fs := afero.NewMemMapFs()
	store := archive.NewStoreWithFS(fs, log)

	transport := httpmock.NewMockTransport()
	f := fetch.NewFetcher(time.Second, nil, log)
	f.WithTransport(transport)

	images := downloader.NewImageDownloader(f, store, downloader.ImageOptions{
		MaxRetries: 2,
		Backoff:    downloader.NewPacer(3*time.Second, 10*time.Second, noSleep),
	}, log)
	jsons := downloader.NewJSONDownloader(f, store, images, downloader.NewPacer(3*time.Second, 10*time.Second, noSleep), time.Second, log)

	orch := NewOrchestrator("/data", store, images, jsons, log)
	orch.SetUserAgent(func() string { return "agent/1.0" })
	return &orchestratorFixture{orch: orch, fs: fs, transport: transport}
}

func imageSource() models.SourceDescriptor {
	return models.SourceDescriptor{
		Base:   "http://img.test",
		Path:   "{base}/{year}/{month}/{day}.jpg",
		Site:   "http://site.test",
		Format: models.FormatImage,
	}
}

func jsonSource() models.SourceDescriptor {
	return models.SourceDescriptor{
		Base:   "http://api.test",
		Path:   "{base}/daily?d={year}-{month}-{day}",
		Site:   "http://site.test",
		Format: models.FormatJSON,
		Keys:   []string{"data", "image", "url"},
	}
}

func TestDownloadOneImageIdempotent(t *testing.T) {
	fx := newOrchestratorFixture(t)
	fx.transport.RegisterResponder("GET", "http://img.test/2024/03/07.jpg", func(req *http.Request) (*http.Response, error) {
		require.Equal(t, "http://site.test", req.Header.Get("Referer"))
		require.Equal(t, "agent/1.0", req.Header.Get("User-Agent"))
		return httpmock.NewBytesResponse(http.StatusOK, []byte("jpeg")), nil
	})

	first := fx.orch.DownloadOne(context.Background(), "alpha", imageSource(), march7, true)
	require.Equal(t, models.OutcomeSaved, first)
	require.True(t, first.Succeeded())

	second := fx.orch.DownloadOne(context.Background(), "alpha", imageSource(), march7, true)
	require.Equal(t, models.OutcomeSkipped, second)
	require.False(t, second.Succeeded())
	require.Equal(t, 1, fx.transport.GetTotalCallCount(), "second call must not hit the network")

	data, err := afero.ReadFile(fx.fs, "/data/alpha/2024/20240307.jpg")
	require.NoError(t, err)
	require.Equal(t, "jpeg", string(data))
}

func TestDownloadOneJSON(t *testing.T) {
	fx := newOrchestratorFixture(t)
	fx.transport.RegisterResponder("GET", "http://api.test/daily?d=2024-03-07",
		httpmock.NewStringResponder(http.StatusOK, `{"data":{"image":{"url":"http://cdn.test/y.jpg"}}}`))
	fx.transport.RegisterResponder("GET", "http://cdn.test/y.jpg", httpmock.NewStringResponder(http.StatusOK, "jpeg"))

	got := fx.orch.DownloadOne(context.Background(), "beta", jsonSource(), march7, true)
	require.Equal(t, models.OutcomeSaved, got)

	for _, path := range []string{"/data/beta/2024/20240307.jpg", "/data/beta-json/2024/20240307.json"} {
		exists, err := afero.Exists(fx.fs, path)
		require.NoError(t, err)
		require.True(t, exists, path)
	}

	require.Equal(t, models.OutcomeSkipped, fx.orch.DownloadOne(context.Background(), "beta", jsonSource(), march7, true))
	require.Equal(t, 2, fx.transport.GetTotalCallCount())
}

func TestDownloadOneJSONNeedsSidecarToSkip(t *testing.T) {
	fx := newOrchestratorFixture(t)
	require.NoError(t, afero.WriteFile(fx.fs, "/data/beta/2024/20240307.jpg", []byte("old"), 0o644))
	fx.transport.RegisterResponder("GET", "http://api.test/daily?d=2024-03-07",
		httpmock.NewStringResponder(http.StatusOK, `{"data":{}}`))

	got := fx.orch.DownloadOne(context.Background(), "beta", jsonSource(), march7, false)
	require.Equal(t, models.OutcomeFailed, got)
	require.Equal(t, 1, fx.transport.GetTotalCallCount())

	exists, _ := afero.Exists(fx.fs, "/data/beta-json/2024/20240307.json")
	require.True(t, exists, "sidecar is kept even though the key path failed")
}

func TestDownloadOneNotFoundCountsAsSuccess(t *testing.T) {
	fx := newOrchestratorFixture(t)
	fx.transport.RegisterResponder("GET", "http://img.test/2024/03/07.jpg", httpmock.NewStringResponder(http.StatusNotFound, ""))

	got := fx.orch.DownloadOne(context.Background(), "alpha", imageSource(), march7, true)
	require.Equal(t, models.OutcomeConfirmedAbsent, got)
	require.True(t, got.Succeeded())
	require.Equal(t, 1, fx.transport.GetTotalCallCount())
}

func TestDownloadOneUnknownFormat(t *testing.T) {
	fx := newOrchestratorFixture(t)
	src := imageSource()
	src.Format = "html"

	require.Equal(t, models.OutcomeFailed, fx.orch.DownloadOne(context.Background(), "alpha", src, march7, true))
	require.Equal(t, 0, fx.transport.GetTotalCallCount())
}
