package ui

import (
	"bytes"
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"lucidaflow/pkg/logger"
	"lucidaflow/pkg/lucida"
	"lucidaflow/pkg/ratelimit"
)

func TestPrinterWithoutTerminalIsPlain(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	assert.False(t, p.Color())

	p.Success("done")
	p.Error("failed", stderrors.New("boom"))
	p.Info("Service", "tidal")

	assert.Equal(t, "✓ done\n✗ failed: boom\nService: tidal\n", buf.String())
	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestTracksTable(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.Tracks([]lucida.Track{
		{Name: "One More Time", Artist: "Daft Punk", Album: "Discovery", URL: "https://tidal.com/track/1"},
		{Name: "Untitled", URL: "https://tidal.com/track/2"},
	})

	out := buf.String()
	assert.Contains(t, out, "One More Time")
	assert.Contains(t, out, "https://tidal.com/track/2")
	assert.Contains(t, out, "2 results")
}

func TestTrackInfoTable(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	name := "Digital Love"
	p.TrackInfo(&lucida.TrackInfo{URL: "https://tidal.com/track/3", Name: &name})

	out := buf.String()
	assert.Contains(t, out, "Digital Love")
	assert.Contains(t, out, "Artist")
	assert.NotContains(t, out, "Duration")
}

func TestStatsAndServicesTables(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.Stats(lucida.Stats{
		Stats:  ratelimit.Stats{RequestsLastMinute: 3, RequestsLastHour: 12, TotalRequests: 12},
		Limits: lucida.Limits{PerMinute: 30, PerHour: 500, MinDelaySeconds: 2},
	})
	p.Services(lucida.Services())

	out := buf.String()
	assert.Contains(t, out, "Requests (last hour)")
	assert.Contains(t, out, "500")
	assert.Contains(t, out, "2.0s")
	assert.Contains(t, out, "amazon_music")
	assert.Contains(t, out, "7 services")
}

func TestProgressDisplayWithoutTerminal(t *testing.T) {
	var buf bytes.Buffer
	d := NewProgressDisplay(NewPrinter(&buf), "song.flac")

	d.Update(512, 1024)
	d.Update(1024, 1024)
	assert.Empty(t, buf.String())

	d.Complete("/tmp/song.flac", 1024)
	assert.Contains(t, buf.String(), "Saved /tmp/song.flac")
	assert.Contains(t, buf.String(), "1024 bytes (1.0 KB)")
}

func TestProgressLine(t *testing.T) {
	p := &Printer{out: &bytes.Buffer{}}
	d := NewProgressDisplay(p, "song.flac")
	d.written, d.total = 512, 1024

	line := d.line(d.startTime.Add(time.Second))
	assert.Contains(t, line, "━━━━━━━━━━──────────")
	assert.Contains(t, line, "512 B/1.0 KB")
	assert.Contains(t, line, "512 B/s")
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "999 B", FormatBytes(999))
	assert.Equal(t, "1.5 KB", FormatBytes(1536))
	assert.Equal(t, "2.0 MB", FormatBytes(2*1024*1024))

	assert.Equal(t, "42s", FormatDuration(42*time.Second))
	assert.Equal(t, "2m5s", FormatDuration(125*time.Second))
	assert.Equal(t, "1h30m", FormatDuration(90*time.Minute))
}

type recordingSender struct {
	titles []string
}

func (r *recordingSender) Send(_ context.Context, title, _ string) error {
	r.titles = append(r.titles, title)
	return stderrors.New("no display")
}

func TestNotifier(t *testing.T) {
	var buf bytes.Buffer
	sender := &recordingSender{}
	n := NewNotifierWithSender(NewPrinter(&buf), sender)
	log := logger.NewTestLogger()
	n.SetLogger(log)

	n.Success(context.Background(), "Download complete", "song.flac")
	n.Error(context.Background(), "Download failed", "no link")

	assert.Equal(t, []string{"Download complete", "Download failed"}, sender.titles)
	assert.Contains(t, buf.String(), "✓ Download complete: song.flac")
	assert.Contains(t, buf.String(), "✗ Download failed: no link")

	failures := log.GetMessagesByLevel("WARN")
	assert.Len(t, failures, 2)
	assert.True(t, log.HasMessage("Desktop notification failed"))

	log.Clear()
	silent := NewNotifierWithSender(NewPrinter(&buf), nil)
	silent.SetLogger(log)
	silent.Success(context.Background(), "Download complete", "song.flac")
	assert.True(t, log.HasMessage("No desktop notifier available"))

	assert.Nil(t, SenderFor("plan9"))
	assert.NotNil(t, SenderFor("linux"))
}
