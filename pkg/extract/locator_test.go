package extract

import (
	"bytes"
	"testing"

	"lucidaflow/internal/lucidatest"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, page string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(page)))
	require.NoError(t, err)
	return doc
}

func TestClassPattern(t *testing.T) {
	doc := parse(t, `<div class="wrap"><span class="Song_Name big">  Around the World </span><span class="songname">second</span></div>`)

	assert.Equal(t, "Around the World", NewClassPattern(`track.?title|song.?name`).Locate(doc))
	assert.Equal(t, "", NewClassPattern(`artist`).Locate(doc))
}

func TestClassPatternSpanningTokens(t *testing.T) {
	fields, err := DefaultTrackFields().Locate([]byte(`<h1 class="song name">Around the World</h1><p class="track title">second</p>`))
	require.NoError(t, err)
	assert.Equal(t, "Around the World", fields.Name)

	doc := parse(t, `<h2 class="big headline">Custom</h2>`)
	assert.Equal(t, "Custom", NewClassPattern(`^headline$`).Locate(doc))
}

func TestTrackFieldsLocate(t *testing.T) {
	page := lucidatest.TrackPage("Veridis Quo", "Daft Punk", "Discovery", "/dl/1")

	fields, err := DefaultTrackFields().Locate([]byte(page))
	require.NoError(t, err)
	assert.Equal(t, PageFields{Name: "Veridis Quo", Artist: "Daft Punk", Album: "Discovery"}, fields)
}

func TestTrackFieldsPartial(t *testing.T) {
	page := lucidatest.TrackPage("", "Daft Punk", "", "")

	fields, err := DefaultTrackFields().Locate([]byte(page))
	require.NoError(t, err)
	assert.Empty(t, fields.Name)
	assert.Equal(t, "Daft Punk", fields.Artist)
	assert.Empty(t, fields.Album)
}

func TestTrackFieldsCustomLocator(t *testing.T) {
	fields := TrackFields{Title: NewClassPattern(`^headline$`)}

	got, err := fields.Locate([]byte(`<h2 class="headline">Custom</h2><p class="artist">A</p>`))
	require.NoError(t, err)
	assert.Equal(t, PageFields{Name: "Custom"}, got)
}

func TestDownloadLink(t *testing.T) {
	tests := []struct {
		name     string
		page     string
		expected string
	}{
		{
			name:     "class match wins over earlier href match",
			page:     `<a href="/download/old">download</a><a class="btn Download-Btn" href="/files/7.flac">Get</a>`,
			expected: "https://lucida.to/files/7.flac",
		},
		{
			name:     "href containing download",
			page:     `<a href="/about">About</a><a href="/api/DOWNLOAD?id=3">Save</a>`,
			expected: "https://lucida.to/api/DOWNLOAD?id=3",
		},
		{
			name:     "text is download",
			page:     `<a href="https://cdn.example/f/9">  Download </a>`,
			expected: "https://cdn.example/f/9",
		},
		{
			name:     "class match without href falls back",
			page:     `<a class="download">soon</a><a href="/x/download/2">here</a>`,
			expected: "https://lucida.to/x/download/2",
		},
		{
			name:     "text containing download",
			page:     `<a href="/about">About</a><a href="/get/123">Download FLAC</a>`,
			expected: "https://lucida.to/get/123",
		},
		{
			name:     "first text match wins",
			page:     `<a href="/help">Downloads help</a><a href="/get/5">Download</a>`,
			expected: "https://lucida.to/help",
		},
		{
			name:     "none",
			page:     `<a href="/about">About</a><a href="/help">Help</a>`,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link, err := FindDownloadLink(DownloadLink{}, []byte(tt.page), base)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, link)
		})
	}
}

func TestResolveURL(t *testing.T) {
	assert.Equal(t, "https://lucida.to/a/b", ResolveURL(base, "/a/b"))
	assert.Equal(t, "https://x.example/y", ResolveURL(base, "https://x.example/y"))
	assert.Equal(t, "https://lucida.to/rel", ResolveURL(base+"/", "rel"))
}
