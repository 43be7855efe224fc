package lucida

import (
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var quotedFilename = regexp.MustCompile(`filename="(.+)"`)

// FilenameFor derives the on-disk name for a download: the Content-Disposition
// filename, else the last segment of trackURL with an extension inferred from
// Content-Type when it has none, else a timestamped fallback.
func FilenameFor(header http.Header, trackURL string, now time.Time) string {
	if name := dispositionFilename(header.Get("Content-Disposition")); name != "" {
		return name
	}

	if segment := lastSegment(trackURL); segment != "" {
		if !strings.Contains(segment, ".") {
			segment += extensionFor(header.Get("Content-Type"))
		}
		return segment
	}

	return fmt.Sprintf("download_%d.bin", now.Unix())
}

func dispositionFilename(value string) string {
	if value == "" {
		return ""
	}

	var name string
	if _, params, err := mime.ParseMediaType(value); err == nil {
		name = params["filename"]
	}
	if name == "" {
		if m := quotedFilename.FindStringSubmatch(value); m != nil {
			name = m[1]
		}
	}

	// Never let the server choose a directory
	name = filepath.Base(filepath.Clean("/" + strings.ReplaceAll(name, "\\", "/")))
	if name == "/" || name == "." {
		return ""
	}
	return name
}

func lastSegment(rawURL string) string {
	trimmed := strings.TrimRight(rawURL, "/")
	if u, err := url.Parse(trimmed); err == nil && u.Host != "" {
		trimmed = strings.TrimRight(u.Path, "/")
	}
	segment := path.Base("/" + trimmed)
	if segment == "/" || segment == "." {
		return ""
	}
	return segment
}

func extensionFor(contentType string) string {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "flac"):
		return ".flac"
	case strings.Contains(ct, "mp3"), strings.Contains(ct, "mpeg"):
		return ".mp3"
	case strings.Contains(ct, "aac"), strings.Contains(ct, "m4a"), strings.Contains(ct, "mp4"):
		return ".m4a"
	default:
		return ".bin"
	}
}

// MediaTypeFor maps a saved file's extension to the type served back to clients
func MediaTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".flac":
		return "audio/flac"
	case ".mp3":
		return "audio/mpeg"
	case ".m4a":
		return "audio/mp4"
	default:
		return "application/octet-stream"
	}
}
