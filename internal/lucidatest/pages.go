package lucidatest

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"
)

// Track is a search hit used to build fixture pages
type Track struct {
	Title   string
	Artists []string
	Album   string
	URL     string
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// SearchPageJSON renders a search page whose results live only in the inlined
// state array. Keys are unquoted and a trailing comma is left in, as on the live site.
func SearchPageJSON(tracks ...Track) string {
	entries := make([]string, 0, len(tracks))
	for _, t := range tracks {
		artists := make([]string, 0, len(t.Artists))
		for _, a := range t.Artists {
			artists = append(artists, fmt.Sprintf("{name:%s}", quote(a)))
		}
		entries = append(entries, fmt.Sprintf(
			"{title:%s,artists:[%s],album:{title:%s},url:%s,}",
			quote(t.Title), strings.Join(artists, ","), quote(t.Album), quote(t.URL),
		))
	}

	state := fmt.Sprintf(
		`[null,{type:"data",data:{results:{success:true,results:{tracks:[%s],albums:[],artists:[]}}},uses:{url:1}}]`,
		strings.Join(entries, ","),
	)
	return wrapState(state, "")
}

// SearchPageFailure renders a page whose state reports success=false.
// dom is appended to the body so callers can check the fallback.
func SearchPageFailure(message, dom string) string {
	state := fmt.Sprintf(
		`[null,{type:"data",data:{results:{success:false,error:%s}}}]`,
		quote(message),
	)
	return wrapState(state, dom)
}

// SearchPageRawState wraps an arbitrary state literal, which may be malformed
func SearchPageRawState(state, dom string) string {
	return wrapState(state, dom)
}

func wrapState(state, body string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html><head><title>lucida</title></head>
<body>%s
<script>
	{
		__sveltekit_x = { base: "" };
		const element = document.currentScript.parentElement;
		const data = %s;
		Promise.all([import("./app.js")]).then(([kit]) => kit.start(element, { node_ids: [0, 2], data }));
	}
</script>
</body></html>`, body, state)
}

// SearchPageDOM renders a search page with result blocks and no state array.
// A Track with an empty Title renders a block without an h1.
func SearchPageDOM(tracks ...Track) string {
	return fmt.Sprintf("<!DOCTYPE html><html><body>%s</body></html>", ResultBlocks(tracks...))
}

// ResultBlocks renders one div.search-result-track per track
func ResultBlocks(tracks ...Track) string {
	var b strings.Builder
	for _, t := range tracks {
		b.WriteString(`<div class="search-result-track"><img src="/cover.jpg"><div class="metadata">`)
		if t.Title != "" {
			fmt.Fprintf(&b, `<h1><a href="%s">%s</a></h1>`, html.EscapeString(t.URL), html.EscapeString(t.Title))
		}
		fmt.Fprintf(&b, "<h2>%s</h2>", html.EscapeString(strings.Join(t.Artists, ", ")))
		if t.Album != "" {
			fmt.Fprintf(&b, "<h3>%s</h3>", html.EscapeString(t.Album))
		}
		b.WriteString("</div></div>\n")
	}
	return b.String()
}

// TrackPage renders a resolver page. Empty fields are omitted; an empty
// downloadHref renders no download link at all.
func TrackPage(title, artist, album, downloadHref string) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><body><div class="page">`)
	if title != "" {
		fmt.Fprintf(&b, `<h1 class="track-title">%s</h1>`, html.EscapeString(title))
	}
	if artist != "" {
		fmt.Fprintf(&b, `<p class="meta artist-name">%s</p>`, html.EscapeString(artist))
	}
	if album != "" {
		fmt.Fprintf(&b, `<p class="album-title">%s</p>`, html.EscapeString(album))
	}
	b.WriteString(`<a href="/about">About</a>`)
	if downloadHref != "" {
		fmt.Fprintf(&b, `<a class="btn download-button" href="%s">Get it</a>`, html.EscapeString(downloadHref))
	}
	b.WriteString("</div></body></html>")
	return b.String()
}
