package lucida

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lucidaflow/internal/lucidatest"
	"lucidaflow/pkg/config"
	"lucidaflow/pkg/errors"
	"lucidaflow/pkg/logger"
	"lucidaflow/pkg/ratelimit"
)

var testStart = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestClient(t *testing.T, srv *lucidatest.Server, opts ...Option) (*Client, *ratelimit.ManualClock) {
	t.Helper()

	return newTestClientWithConfig(t, srv, config.DefaultConfig(), opts...)
}

func newTestClientWithConfig(t *testing.T, srv *lucidatest.Server, cfg *config.Config, opts ...Option) (*Client, *ratelimit.ManualClock) {
	t.Helper()

	cfg.Lucida.BaseURL = srv.URL()
	cfg.Download.Directory = t.TempDir()

	clock := ratelimit.NewManualClock(testStart)
	base := []Option{WithClock(clock), WithLogger(logger.NewNopLogger())}
	return NewClient(cfg, append(base, opts...)...), clock
}

func daftPunkTracks(n int) []lucidatest.Track {
	tracks := make([]lucidatest.Track, n)
	for i := range tracks {
		tracks[i] = lucidatest.Track{
			Title:   fmt.Sprintf("Track %d", i+1),
			Artists: []string{"Daft Punk"},
			Album:   "Discovery",
			URL:     fmt.Sprintf("https://music.amazon.com/tracks/%d", i+1),
		}
	}
	return tracks
}

func TestSearchReturnsTracks(t *testing.T) {
	srv := lucidatest.NewServer()
	defer srv.Close()
	srv.SetSearchPage(lucidatest.SearchPageDOM(daftPunkTracks(5)...))

	client, _ := newTestClient(t, srv)
	result, err := client.Search(context.Background(), "Daft Punk", "amazon_music", 10)
	require.NoError(t, err)

	assert.Equal(t, "Daft Punk", result.Query)
	assert.Equal(t, "amazon_music", result.Service)
	assert.Empty(t, result.Error)
	require.Len(t, result.Tracks, 5)
	assert.Equal(t, "Track 1", result.Tracks[0].Name)
	assert.Equal(t, "Daft Punk", result.Tracks[0].Artist)
	assert.Equal(t, "Discovery", result.Tracks[0].Album)
	assert.Equal(t, "https://music.amazon.com/tracks/1", result.Tracks[0].URL)
	assert.NotNil(t, result.Albums)
	assert.NotNil(t, result.Artists)
}

func TestSearchBuildsURL(t *testing.T) {
	tests := []struct {
		service string
		want    string
	}{
		{"amazon_music", "?service=amazon&country=US&query=Daft%20Punk"},
		{"qobuz", "?service=qobuz&country=GB&query=Daft%20Punk"},
		{"TIDAL", "?service=tidal&country=US&query=Daft%20Punk"},
	}

	for _, tt := range tests {
		t.Run(tt.service, func(t *testing.T) {
			srv := lucidatest.NewServer()
			defer srv.Close()
			srv.SetSearchPage(lucidatest.SearchPageDOM())

			client, _ := newTestClient(t, srv)
			result, err := client.Search(context.Background(), "Daft Punk", tt.service, 10)
			require.NoError(t, err)

			assert.Equal(t, "/search"+tt.want, srv.TrimBase(result.SearchURL))
			assert.Empty(t, result.Tracks)

			reqs := srv.Requests()
			require.Len(t, reqs, 1)
			assert.Equal(t, "/search", reqs[0].Path)
			assert.Equal(t, "Daft Punk", reqs[0].Query.Get("query"))
			assert.Equal(t, config.DefaultUserAgent, reqs[0].Header.Get("User-Agent"))
		})
	}
}

func TestSearchTruncatesToLimit(t *testing.T) {
	srv := lucidatest.NewServer()
	defer srv.Close()
	srv.SetSearchPage(lucidatest.SearchPageJSON(daftPunkTracks(8)...))

	client, _ := newTestClient(t, srv)

	result, err := client.Search(context.Background(), "Daft Punk", "tidal", 3)
	require.NoError(t, err)
	require.Len(t, result.Tracks, 3)
	assert.Equal(t, "Track 3", result.Tracks[2].Name)

	result, err = client.Search(context.Background(), "Daft Punk", "tidal", 0)
	require.NoError(t, err)
	assert.Len(t, result.Tracks, 8)
}

func TestSearchRejectsUnknownServiceWithoutRequest(t *testing.T) {
	srv := lucidatest.NewServer()
	defer srv.Close()

	client, clock := newTestClient(t, srv)
	result, err := client.Search(context.Background(), "Daft Punk", "napster", 10)

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrorTypeValidation))
	assert.Contains(t, result.Error, "napster")
	assert.Equal(t, errors.ErrorTypeValidation, result.ErrorType)
	assert.Equal(t, "Daft Punk", result.Query)
	assert.Equal(t, "napster", result.Service)
	assert.Empty(t, result.Tracks)

	assert.Zero(t, srv.RequestCount())
	assert.Zero(t, client.Stats().TotalRequests)
	assert.Empty(t, clock.Sleeps())
}

func TestRateLimitedResponseHonoursRetryAfter(t *testing.T) {
	srv := lucidatest.NewServer()
	defer srv.Close()
	srv.Fail("/search", http.StatusTooManyRequests, map[string]string{"Retry-After": "7"}, 1)

	client, clock := newTestClient(t, srv)
	result, err := client.Search(context.Background(), "Daft Punk", "tidal", 10)

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrorTypeRateLimit))
	assert.Equal(t, errors.ErrorTypeRateLimit, result.ErrorType)
	assert.Equal(t, 7*time.Second, clock.LastSleep())
	assert.Equal(t, 1, client.Stats().ConsecutiveErrors)
}

func TestRateLimitedResponseWithoutHeaderUsesDefault(t *testing.T) {
	srv := lucidatest.NewServer()
	defer srv.Close()
	srv.Fail("/search", http.StatusTooManyRequests, nil, 1)

	client, clock := newTestClient(t, srv)
	_, err := client.Search(context.Background(), "Daft Punk", "tidal", 10)

	require.Error(t, err)
	assert.Equal(t, 60*time.Second, clock.LastSleep())
}

func TestRetryAfterParsing(t *testing.T) {
	srv := lucidatest.NewServer()
	defer srv.Close()
	client, _ := newTestClient(t, srv)

	assert.Equal(t, 60*time.Second, client.retryAfter(""))
	assert.Equal(t, 60*time.Second, client.retryAfter("soon"))
	assert.Equal(t, 3*time.Second, client.retryAfter(" 3 "))
	assert.Equal(t, time.Duration(0), client.retryAfter("-5"))
	assert.Equal(t, 30*time.Second, client.retryAfter(testStart.Add(30*time.Second).Format(http.TimeFormat)))
	assert.Equal(t, time.Duration(0), client.retryAfter(testStart.Add(-time.Minute).Format(http.TimeFormat)))
}

func TestServerErrorThenSuccessResetsErrors(t *testing.T) {
	srv := lucidatest.NewServer()
	defer srv.Close()
	srv.SetSearchPage(lucidatest.SearchPageDOM(daftPunkTracks(1)...))
	srv.Fail("/search", http.StatusInternalServerError, nil, 2)

	client, clock := newTestClient(t, srv)

	for i := 1; i <= 2; i++ {
		result, err := client.Search(context.Background(), "Daft Punk", "tidal", 10)
		require.Error(t, err)
		assert.Equal(t, errors.ErrorTypeServerError, result.ErrorType)
		assert.Equal(t, i, client.Stats().ConsecutiveErrors)
	}

	result, err := client.Search(context.Background(), "Daft Punk", "tidal", 10)
	require.NoError(t, err)
	assert.Len(t, result.Tracks, 1)
	assert.Zero(t, client.Stats().ConsecutiveErrors)

	// third wait applied backoff for two consecutive errors
	assert.Contains(t, clock.Sleeps(), 8*time.Second)
}

func TestClientErrorResetsConsecutiveErrors(t *testing.T) {
	srv := lucidatest.NewServer()
	defer srv.Close()

	client, _ := newTestClient(t, srv)

	srv.Fail("/search", http.StatusInternalServerError, nil, 1)
	_, err := client.Search(context.Background(), "Daft Punk", "tidal", 10)
	require.Error(t, err)
	require.Equal(t, 1, client.Stats().ConsecutiveErrors)

	srv.Fail("/search", http.StatusNotFound, nil, 1)
	result, err := client.Search(context.Background(), "Daft Punk", "tidal", 10)

	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeClientError, result.ErrorType)
	assert.Zero(t, client.Stats().ConsecutiveErrors)
	assert.Equal(t, 2, client.Stats().TotalRequests)
}

func TestTrackInfo(t *testing.T) {
	srv := lucidatest.NewServer()
	defer srv.Close()
	srv.SetTrackPage(lucidatest.TrackPage("One More Time", "Daft Punk", "Discovery", ""))

	client, _ := newTestClient(t, srv)
	trackURL := "https://tidal.com/browse/track/123"
	info, err := client.TrackInfo(context.Background(), trackURL)
	require.NoError(t, err)

	assert.Equal(t, trackURL, info.URL)
	require.NotNil(t, info.Name)
	assert.Equal(t, "One More Time", *info.Name)
	require.NotNil(t, info.Artist)
	assert.Equal(t, "Daft Punk", *info.Artist)
	require.NotNil(t, info.Album)
	assert.Equal(t, "Discovery", *info.Album)
	assert.Nil(t, info.Duration)
	assert.Nil(t, info.Quality)

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, trackURL, reqs[0].Query.Get("url"))
}

func TestTrackInfoPartial(t *testing.T) {
	srv := lucidatest.NewServer()
	defer srv.Close()
	srv.SetTrackPage(lucidatest.TrackPage("One More Time", "", "", ""))

	client, _ := newTestClient(t, srv)
	info, err := client.TrackInfo(context.Background(), "https://tidal.com/browse/track/123")
	require.NoError(t, err)

	require.NotNil(t, info.Name)
	assert.Equal(t, "One More Time", *info.Name)
	assert.Nil(t, info.Artist)
	assert.Nil(t, info.Album)
	assert.Empty(t, info.Error)
}

func TestTrackInfoRequiresURL(t *testing.T) {
	srv := lucidatest.NewServer()
	defer srv.Close()

	client, _ := newTestClient(t, srv)
	info, err := client.TrackInfo(context.Background(), "  ")

	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeValidation, info.ErrorType)
	assert.Zero(t, srv.RequestCount())
}

func TestDownloadUsesContentDisposition(t *testing.T) {
	srv := lucidatest.NewServer()
	defer srv.Close()
	srv.SetTrackPage(lucidatest.TrackPage("Song", "Artist", "", "/files/abc"))
	srv.AddFile("/files/abc", lucidatest.File{
		Body: []byte("fLaC-payload"),
		Headers: map[string]string{
			"Content-Type":        "audio/flac",
			"Content-Disposition": `attachment; filename="song.flac"`,
		},
	})

	client, _ := newTestClient(t, srv)
	result, err := client.Download(context.Background(), "https://tidal.com/browse/track/123", "")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, filepath.Join(client.storage.GetOutputDir(), "song.flac"), result.Filepath)
	assert.Equal(t, int64(len("fLaC-payload")), result.Size)

	data, err := os.ReadFile(result.Filepath)
	require.NoError(t, err)
	assert.Equal(t, "fLaC-payload", string(data))

	assert.Equal(t, 2, srv.RequestCount())
	assert.Equal(t, 2, client.Stats().TotalRequests)
}

func TestDownloadNamesFromTrackURL(t *testing.T) {
	srv := lucidatest.NewServer()
	defer srv.Close()
	srv.SetTrackPage(lucidatest.TrackPage("Song", "", "", srv.URL()+"/files/abc"))
	srv.AddFile("/files/abc", lucidatest.File{
		Body:    []byte("audio"),
		Headers: map[string]string{"Content-Type": "audio/flac"},
	})

	client, _ := newTestClient(t, srv)
	result, err := client.Download(context.Background(), "https://tidal.com/browse/track/12345", "")
	require.NoError(t, err)

	assert.Equal(t, "12345.flac", filepath.Base(result.Filepath))
}

func TestDownloadWithoutLinkMakesOneRequest(t *testing.T) {
	srv := lucidatest.NewServer()
	defer srv.Close()
	srv.SetTrackPage(lucidatest.TrackPage("Song", "Artist", "Album", ""))

	client, _ := newTestClient(t, srv)
	result, err := client.Download(context.Background(), "https://tidal.com/browse/track/123", "")

	require.Error(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, errors.ErrorTypeParsing, result.ErrorType)
	assert.Contains(t, result.Error, "could not find download link")
	assert.Equal(t, 1, srv.RequestCount())
	assert.Equal(t, 1, client.Stats().TotalRequests)
}

func TestDownloadToOutputPathCreatesParents(t *testing.T) {
	srv := lucidatest.NewServer()
	defer srv.Close()
	srv.SetTrackPage(lucidatest.TrackPage("Song", "", "", "/files/abc"))
	srv.AddFile("/files/abc", lucidatest.File{Body: []byte("audio")})

	client, _ := newTestClient(t, srv)
	dest := filepath.Join(t.TempDir(), "a", "b", "out.mp3")
	result, err := client.Download(context.Background(), "https://tidal.com/browse/track/123", dest)
	require.NoError(t, err)

	assert.Equal(t, dest, result.Filepath)
	assert.FileExists(t, dest)
}

func TestDownloadFileFailure(t *testing.T) {
	srv := lucidatest.NewServer()
	defer srv.Close()
	srv.SetTrackPage(lucidatest.TrackPage("Song", "", "", "/files/abc"))
	srv.Fail("/files/abc", http.StatusBadGateway, nil, 0)

	client, _ := newTestClient(t, srv)
	result, err := client.Download(context.Background(), "https://tidal.com/browse/track/123", "")

	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeServerError, result.ErrorType)
	assert.Equal(t, 1, client.Stats().ConsecutiveErrors)

	entries, err := os.ReadDir(client.storage.GetOutputDir())
	if err == nil {
		assert.Empty(t, entries)
	}
}

func TestDownloadCancelledMidStreamLeavesNoFile(t *testing.T) {
	srv := lucidatest.NewServer()
	defer srv.Close()
	srv.SetTrackPage(lucidatest.TrackPage("Song", "", "", "/files/abc"))
	srv.AddFile("/files/abc", lucidatest.File{
		Body:    []byte("partial-audio"),
		Headers: map[string]string{"Content-Disposition": `attachment; filename="song.flac"`},
		Stall:   true,
	})

	client, _ := newTestClient(t, srv)
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	result, err := client.Download(ctx, "https://tidal.com/browse/track/123", "")
	require.Error(t, err)
	assert.False(t, result.Success)

	entries, err := os.ReadDir(client.storage.GetOutputDir())
	require.NoError(t, err)
	assert.Empty(t, entries, "neither the file nor a temporary file may remain")
}

func TestPageRequestTimesOut(t *testing.T) {
	srv := lucidatest.NewServer()
	defer srv.Close()
	srv.Stall("/search")

	cfg := config.DefaultConfig()
	cfg.Lucida.Timeout = 200 * time.Millisecond
	client, _ := newTestClientWithConfig(t, srv, cfg)

	start := time.Now()
	result, err := client.Search(context.Background(), "Daft Punk", "tidal", 10)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeNetwork, errors.TypeOf(err))
	assert.Equal(t, errors.ErrorTypeNetwork, result.ErrorType)
	assert.Less(t, elapsed, 5*time.Second)
	assert.NotContains(t, err.Error(), "network error: network error")
}

func TestDownloadTimesOut(t *testing.T) {
	srv := lucidatest.NewServer()
	defer srv.Close()
	srv.SetTrackPage(lucidatest.TrackPage("Song", "", "", "/files/slow"))
	srv.AddFile("/files/slow", lucidatest.File{
		Body:    []byte("first chunk"),
		Headers: map[string]string{"Content-Disposition": `attachment; filename="slow.flac"`},
		Stall:   true,
	})

	cfg := config.DefaultConfig()
	cfg.Download.Timeout = 200 * time.Millisecond
	client, _ := newTestClientWithConfig(t, srv, cfg)

	start := time.Now()
	result, err := client.Download(context.Background(), "https://tidal.com/browse/track/9", "")
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeNetwork, errors.TypeOf(err))
	assert.False(t, result.Success)
	assert.Less(t, elapsed, 5*time.Second)

	entries, err := os.ReadDir(client.storage.GetOutputDir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStatsReportsLimits(t *testing.T) {
	srv := lucidatest.NewServer()
	defer srv.Close()

	client, _ := newTestClient(t, srv)
	stats := client.Stats()

	assert.Equal(t, 30, stats.Limits.PerMinute)
	assert.Equal(t, 500, stats.Limits.PerHour)
	assert.Equal(t, 2.0, stats.Limits.MinDelaySeconds)
	assert.Zero(t, stats.TotalRequests)
}

func TestClientsShareRegistryBudget(t *testing.T) {
	srv := lucidatest.NewServer()
	defer srv.Close()
	srv.SetSearchPage(lucidatest.SearchPageDOM())

	clock := ratelimit.NewManualClock(testStart)
	registry := ratelimit.NewRegistry(ratelimit.DefaultPolicy(), ratelimit.WithClock(clock))

	a, _ := newTestClient(t, srv, WithRegistry(registry))
	b, _ := newTestClient(t, srv, WithRegistry(registry))

	_, err := a.Search(context.Background(), "x", "tidal", 1)
	require.NoError(t, err)
	_, err = b.Search(context.Background(), "y", "tidal", 1)
	require.NoError(t, err)

	assert.Equal(t, 1, registry.Len())
	assert.Equal(t, 2, a.Stats().TotalRequests)
	assert.Equal(t, 2*time.Second, clock.LastSleep())
}

func TestDownloadReportsProgress(t *testing.T) {
	srv := lucidatest.NewServer()
	defer srv.Close()
	srv.SetTrackPage(lucidatest.TrackPage("Song", "", "", "/files/abc"))
	srv.AddFile("/files/abc", lucidatest.File{Body: []byte("0123456789")})

	var last, total int64
	client, _ := newTestClient(t, srv, WithProgress(func(written, expected int64) {
		last, total = written, expected
	}))

	result, err := client.Download(context.Background(), "https://tidal.com/browse/track/123", "")
	require.NoError(t, err)
	assert.Equal(t, int64(10), last)
	assert.Equal(t, int64(10), total)
	assert.Equal(t, result.Size, last)
}
