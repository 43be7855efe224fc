package extract

import (
	"strings"

	"lucidaflow/pkg/errors"

	"github.com/yosuke-furukawa/json5/encoding/json5"
)

// EmbeddedJSON reads tracks from the page-state array inlined in the HTML.
// The array is JavaScript rather than strict JSON, so it is decoded with JSON5.
type EmbeddedJSON struct {
	Marker string
}

// NewEmbeddedJSON returns the strategy for the default SvelteKit marker
func NewEmbeddedJSON() *EmbeddedJSON {
	return &EmbeddedJSON{Marker: DataMarker}
}

func (s *EmbeddedJSON) Name() string {
	return "embedded_json"
}

// Extract follows data[1].data.results; a results object with success=false
// yields no tracks. Entries are mapped field by field with empty strings for gaps.
func (s *EmbeddedJSON) Extract(doc []byte) ([]Track, error) {
	marker := s.Marker
	if marker == "" {
		marker = DataMarker
	}

	start, end, err := ScanArray(doc, marker)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeParsing, err, "locate embedded data")
	}

	var nodes []interface{}
	if err := json5.Unmarshal(doc[start:end], &nodes); err != nil {
		return nil, errors.Wrap(errors.ErrorTypeParsing, err, "decode embedded data")
	}

	if len(nodes) < 2 {
		return nil, errors.New(errors.ErrorTypeParsing, 0, "embedded data has %d nodes", len(nodes))
	}

	results := object(object(object(nodes[1])["data"])["results"])
	if results == nil {
		return nil, errors.New(errors.ErrorTypeParsing, 0, "embedded data has no results")
	}
	if ok, _ := results["success"].(bool); !ok {
		msg := str(results, "error")
		if msg == "" {
			msg = "unknown error"
		}
		return nil, errors.New(errors.ErrorTypeParsing, 0, "search reported failure: %s", msg)
	}

	raw, _ := object(results["results"])["tracks"].([]interface{})
	tracks := make([]Track, 0, len(raw))
	for _, entry := range raw {
		t := object(entry)
		if t == nil {
			continue
		}
		tracks = append(tracks, Track{
			Name:   str(t, "title"),
			Artist: artistNames(t["artists"]),
			Album:  str(object(t["album"]), "title"),
			URL:    str(t, "url"),
		})
	}

	return tracks, nil
}

func artistNames(v interface{}) string {
	list, _ := v.([]interface{})
	names := make([]string, 0, len(list))
	for _, a := range list {
		names = append(names, str(object(a), "name"))
	}
	return strings.Join(names, ", ")
}

func object(v interface{}) map[string]interface{} {
	m, _ := v.(map[string]interface{})
	return m
}

func str(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}
