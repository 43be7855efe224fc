package extract

import (
	"bytes"
	"net/url"
	"strings"

	"lucidaflow/pkg/errors"

	"github.com/PuerkitoBio/goquery"
)

const (
	trackResultSelector = "div.search-result-track"
	metadataSelector    = "div.metadata"
)

// DOM scrapes rendered track-result blocks. Each block holds a metadata div with
// the title in h1, artist in h2, album in h3 and the track link on the first anchor.
type DOM struct {
	BaseURL string
}

// NewDOM returns a DOM strategy resolving links against baseURL
func NewDOM(baseURL string) *DOM {
	return &DOM{BaseURL: baseURL}
}

func (s *DOM) Name() string {
	return "dom"
}

// Extract returns every block that has a title, in document order
func (s *DOM) Extract(doc []byte) ([]Track, error) {
	root, err := goquery.NewDocumentFromReader(bytes.NewReader(doc))
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeParsing, err, "parse markup")
	}

	var tracks []Track
	root.Find(trackResultSelector).Each(func(_ int, item *goquery.Selection) {
		meta := item.Find(metadataSelector).First()
		if meta.Length() == 0 {
			return
		}

		title := meta.Find("h1").First()
		if title.Length() == 0 {
			return
		}

		t := Track{
			Name:   strings.TrimSpace(title.Text()),
			Artist: strings.TrimSpace(meta.Find("h2").First().Text()),
			Album:  strings.TrimSpace(meta.Find("h3").First().Text()),
		}
		if href, ok := meta.Find("a[href]").First().Attr("href"); ok {
			t.URL = ResolveURL(s.BaseURL, href)
		}
		tracks = append(tracks, t)
	})

	return tracks, nil
}

// ResolveURL resolves ref against base; ref is returned unchanged if either fails to parse
func ResolveURL(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
