// Package extract pulls structured track data out of lucida.to pages.
//
// Search pages are read with two strategies in fixed order. The first scans
// for the inlined SvelteKit state array and decodes it as JSON5; the second,
// used only when the first yields nothing, walks the rendered result blocks
// with goquery. Track and download pages are read with small locator types so
// that selectors can change without touching the client.
package extract
