// Package lucida is a client for the lucida.to music download site.
//
// A Client performs three operations against one origin: Search scrapes the
// search page for tracks, TrackInfo reads metadata from a track's resolver page,
// and Download follows the resolver page's download link and streams the file
// to disk. Every request waits on a ratelimit.Limiter first and reports its
// outcome back, so a 429 or 5xx slows down the next request.
//
// Basic usage:
//
//	cfg := config.DefaultConfig()
//	client := lucida.NewClient(cfg)
//
//	result, err := client.Search(ctx, "Daft Punk", "tidal", 10)
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, t := range result.Tracks {
//		fmt.Println(t.Name, t.URL)
//	}
package lucida
