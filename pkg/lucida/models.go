package lucida

import (
	"lucidaflow/pkg/errors"
	"lucidaflow/pkg/extract"
	"lucidaflow/pkg/ratelimit"
)

// Track is a single search hit
type Track = extract.Track

// Album is a search hit for a whole release. The site has not been seen to
// populate album results; the field is kept so the result shape is stable.
type Album struct {
	Name   string `json:"name"`
	Artist string `json:"artist"`
	URL    string `json:"url"`
}

// Artist is a search hit for an artist; see Album
type Artist struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// SearchResult is returned by Client.Search. On failure Error is set and
// Query and Service still echo the request.
type SearchResult struct {
	Query     string           `json:"query"`
	Service   string           `json:"service"`
	SearchURL string           `json:"search_url,omitempty"`
	Tracks    []Track          `json:"tracks"`
	Albums    []Album          `json:"albums"`
	Artists   []Artist         `json:"artists"`
	Error     string           `json:"error,omitempty"`
	ErrorType errors.ErrorType `json:"error_type,omitempty"`
}

// TrackInfo is returned by Client.TrackInfo. Fields the page did not expose are nil.
type TrackInfo struct {
	URL       string           `json:"url"`
	Name      *string          `json:"name"`
	Artist    *string          `json:"artist"`
	Album     *string          `json:"album"`
	Duration  *string          `json:"duration"`
	Quality   *string          `json:"quality"`
	Error     string           `json:"error,omitempty"`
	ErrorType errors.ErrorType `json:"error_type,omitempty"`
}

// DownloadResult is returned by Client.Download
type DownloadResult struct {
	Success   bool             `json:"success"`
	Filepath  string           `json:"filepath,omitempty"`
	Size      int64            `json:"size,omitempty"`
	Error     string           `json:"error,omitempty"`
	ErrorType errors.ErrorType `json:"error_type,omitempty"`
}

// SizeMB returns the size in megabytes rounded to two decimals
func (r *DownloadResult) SizeMB() float64 {
	return float64(int64(float64(r.Size)/(1024*1024)*100+0.5)) / 100
}

// Limits echoes the configured limiter policy
type Limits struct {
	PerMinute       int     `json:"per_minute"`
	PerHour         int     `json:"per_hour"`
	MinDelaySeconds float64 `json:"min_delay_seconds"`
}

// Stats is the limiter snapshot plus the limits it enforces
type Stats struct {
	ratelimit.Stats
	Limits Limits `json:"limits"`
}
