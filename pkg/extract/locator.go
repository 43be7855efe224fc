package extract

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// FieldLocator finds a single text field on a track page.
// Implementations return "" when nothing matches; they never fail.
type FieldLocator interface {
	Locate(doc *goquery.Document) string
}

// ClassPattern matches the first element, in document order, whose class
// attribute or one of its class tokens matches Pattern and returns its trimmed text.
type ClassPattern struct {
	Pattern *regexp.Regexp
}

// NewClassPattern compiles expr case-insensitively
func NewClassPattern(expr string) *ClassPattern {
	return &ClassPattern{Pattern: regexp.MustCompile("(?i)" + expr)}
}

func (c *ClassPattern) Locate(doc *goquery.Document) string {
	var text string
	doc.Find("[class]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		if c.matches(class) {
			text = strings.TrimSpace(s.Text())
			return false
		}
		return true
	})
	return text
}

func (c *ClassPattern) matches(class string) bool {
	if c.Pattern.MatchString(class) {
		return true
	}
	for _, token := range strings.Fields(class) {
		if c.Pattern.MatchString(token) {
			return true
		}
	}
	return false
}

// TrackFields holds the locators used for the track info page
type TrackFields struct {
	Title  FieldLocator
	Artist FieldLocator
	Album  FieldLocator
}

// DefaultTrackFields matches the class names the track page currently uses
func DefaultTrackFields() TrackFields {
	return TrackFields{
		Title:  NewClassPattern(`track.?title|song.?name`),
		Artist: NewClassPattern(`artist`),
		Album:  NewClassPattern(`album`),
	}
}

// PageFields is what the locators found; empty means not found
type PageFields struct {
	Name   string
	Artist string
	Album  string
}

// Locate runs every configured locator over the page. Nil locators are skipped.
func (f TrackFields) Locate(page []byte) (PageFields, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return PageFields{}, err
	}

	var out PageFields
	if f.Title != nil {
		out.Name = f.Title.Locate(doc)
	}
	if f.Artist != nil {
		out.Artist = f.Artist.Locate(doc)
	}
	if f.Album != nil {
		out.Album = f.Album.Locate(doc)
	}
	return out, nil
}

// LinkLocator finds the download link on a resolver page
type LinkLocator interface {
	// Locate returns an absolute link, or "" when the page has none
	Locate(doc *goquery.Document, baseURL string) string
}

// DownloadLink prefers an anchor whose class matches "download"; otherwise it takes
// the first anchor whose href or visible text contains "download".
type DownloadLink struct{}

var downloadClass = regexp.MustCompile(`(?i)download`)

func (DownloadLink) Locate(doc *goquery.Document, baseURL string) string {
	var link string

	doc.Find("a[class]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		if !downloadClass.MatchString(class) {
			return true
		}
		if href, ok := s.Attr("href"); ok && href != "" {
			link = ResolveURL(baseURL, href)
		}
		return false
	})
	if link != "" {
		return link
	}

	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		if strings.Contains(strings.ToLower(href), "download") ||
			strings.Contains(strings.ToLower(s.Text()), "download") {
			link = ResolveURL(baseURL, href)
			return false
		}
		return true
	})
	return link
}

// FindDownloadLink parses page and applies the locator
func FindDownloadLink(locator LinkLocator, page []byte, baseURL string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return "", err
	}
	return locator.Locate(doc, baseURL), nil
}
