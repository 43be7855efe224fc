package extract

import (
	"bytes"
	"errors"
)

// DataMarker introduces the page-state array SvelteKit inlines into search pages
const DataMarker = "const data = ["

// arrayTerminator follows the closing bracket of the inlined array
const arrayTerminator = "];"

var (
	// ErrMarkerNotFound means the document carries no embedded array
	ErrMarkerNotFound = errors.New("embedded data marker not found")
	// ErrUnterminated means the array never closed before end of input
	ErrUnterminated = errors.New("embedded data array is unterminated")
)

type scanState int

const (
	stateDefault scanState = iota
	stateString
	stateEscaped
)

// ScanArray locates the array literal that follows marker in src. The marker must
// end with the opening bracket. The returned range [start, end) covers the literal
// from its opening "[" through the matching "]" that is immediately followed by "];".
// Brackets and braces inside double-quoted strings are ignored, and a backslash
// inside a string escapes the next byte.
func ScanArray(src []byte, marker string) (start, end int, err error) {
	idx := bytes.Index(src, []byte(marker))
	if idx < 0 {
		return 0, 0, ErrMarkerNotFound
	}
	start = idx + len(marker) - 1

	state := stateDefault
	depth := 0
	for i := start; i < len(src); i++ {
		c := src[i]

		switch state {
		case stateEscaped:
			state = stateString
		case stateString:
			switch c {
			case '\\':
				state = stateEscaped
			case '"':
				state = stateDefault
			}
		default:
			switch c {
			case '"':
				state = stateString
			case '[', '{':
				depth++
			case ']', '}':
				depth--
				if depth == 0 && bytes.HasPrefix(src[i:], []byte(arrayTerminator)) {
					return start, i + 1, nil
				}
			}
		}
	}

	return 0, 0, ErrUnterminated
}
