package extract

import "strings"

// Track is a single search hit. Name is always non-empty; the other fields
// are empty strings when the page did not provide them.
type Track struct {
	Name   string `json:"name"`
	Artist string `json:"artist"`
	Album  string `json:"album"`
	URL    string `json:"url"`
}

// keepNamed drops tracks without a name, preserving order
func keepNamed(tracks []Track) []Track {
	out := tracks[:0]
	for _, t := range tracks {
		if strings.TrimSpace(t.Name) != "" {
			out = append(out, t)
		}
	}
	return out
}
