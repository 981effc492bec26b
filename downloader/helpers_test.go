package downloader

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aluiziolira/dailyfetch/archive"
	"github.com/aluiziolira/dailyfetch/fetch"
	"github.com/spf13/afero"
)

type scriptedGetter struct {
	responses map[string][]fetch.Response
	calls     []string
	timeouts  []time.Duration
}

func newScriptedGetter() *scriptedGetter {
	return &scriptedGetter{responses: make(map[string][]fetch.Response)}
}

func (g *scriptedGetter) on(url string, responses ...fetch.Response) {
	g.responses[url] = append(g.responses[url], responses...)
}

// Get replays the queued responses for url; the last one repeats.
func (g *scriptedGetter) Get(_ context.Context, url string, _ http.Header, timeout time.Duration) fetch.Response {
	g.calls = append(g.calls, url)
	g.timeouts = append(g.timeouts, timeout)
	queue := g.responses[url]
	if len(queue) == 0 {
		return fetch.Response{Status: fetch.StatusTransportFailure}
	}
	resp := queue[0]
	if len(queue) > 1 {
		g.responses[url] = queue[1:]
	}
	return resp
}

type sleepRecorder struct {
	durations []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.durations = append(s.durations, d)
	return nil
}

func ok(body string) fetch.Response {
	return fetch.Response{Status: http.StatusOK, Body: []byte(body)}
}

func status(code int) fetch.Response {
	return fetch.Response{Status: code}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newMemStore() (*archive.Store, afero.Fs) {
	fs := afero.NewMemMapFs()
	return archive.NewStoreWithFS(fs, discardLogger()), fs
}
