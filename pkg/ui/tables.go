package ui

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"lucidaflow/pkg/lucida"
)

func newTable(p *Printer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(p.out)
	if p.color {
		t.SetStyle(table.StyleRounded)
	} else {
		t.SetStyle(table.StyleLight)
	}
	return t
}

// Tracks prints search hits as a numbered table
func (p *Printer) Tracks(tracks []lucida.Track) {
	t := newTable(p)
	t.AppendHeader(table.Row{"#", "Title", "Artist", "Album", "URL"})
	for i, tr := range tracks {
		t.AppendRow(table.Row{i + 1, tr.Name, orDash(tr.Artist), orDash(tr.Album), tr.URL})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d results", len(tracks))})
	t.Render()
}

// TrackInfo prints the located fields of a track page
func (p *Printer) TrackInfo(info *lucida.TrackInfo) {
	t := newTable(p)
	t.AppendRows([]table.Row{
		{"URL", info.URL},
		{"Title", deref(info.Name)},
		{"Artist", deref(info.Artist)},
		{"Album", deref(info.Album)},
	})
	if info.Duration != nil {
		t.AppendRow(table.Row{"Duration", *info.Duration})
	}
	if info.Quality != nil {
		t.AppendRow(table.Row{"Quality", *info.Quality})
	}
	t.Render()
}

// Services prints the supported service identifiers
func (p *Printer) Services(services []string) {
	t := newTable(p)
	t.AppendHeader(table.Row{"Service"})
	for _, s := range services {
		t.AppendRow(table.Row{s})
	}
	t.AppendFooter(table.Row{fmt.Sprintf("%d services", len(services))})
	t.Render()
}

// Stats prints the limiter snapshot next to its limits
func (p *Printer) Stats(stats lucida.Stats) {
	t := newTable(p)
	t.AppendHeader(table.Row{"Metric", "Value", "Limit"})
	t.AppendRows([]table.Row{
		{"Requests (last minute)", stats.RequestsLastMinute, stats.Limits.PerMinute},
		{"Requests (last hour)", stats.RequestsLastHour, stats.Limits.PerHour},
		{"Consecutive errors", stats.ConsecutiveErrors, ""},
		{"Tracked requests", stats.TotalRequests, ""},
		{"Minimum delay", fmt.Sprintf("%.1fs", stats.Limits.MinDelaySeconds), ""},
	})
	t.Render()
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
