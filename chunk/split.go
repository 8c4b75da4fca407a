package chunk

import (
	"strings"
	"unicode"
)

const (
	// DefaultSize is the window size in characters.
	DefaultSize = 2000
	// DefaultOverlap is how many characters consecutive chunks share.
	DefaultOverlap = 200
	// DefaultMinSize is the smallest chunk worth emitting; shorter trailing
	// fragments are discarded.
	DefaultMinSize = 100

	// boundaryWindow is how far back from the window edge a sentence
	// terminator is searched for.
	boundaryWindow = 100
)

// Options configures the splitter. Zero values fall back to the defaults.
type Options struct {
	Size    int
	Overlap int
	MinSize int
}

// DefaultOptions returns the standard splitter configuration.
func DefaultOptions() Options {
	return Options{Size: DefaultSize, Overlap: DefaultOverlap, MinSize: DefaultMinSize}
}

func (o Options) withDefaults() Options {
	if o.Size <= 0 {
		o.Size = DefaultSize
	}
	if o.Overlap < 0 || o.Overlap >= o.Size {
		o.Overlap = DefaultOverlap
		if o.Overlap >= o.Size {
			o.Overlap = o.Size / 10
		}
	}
	if o.MinSize <= 0 {
		o.MinSize = DefaultMinSize
	}
	return o
}

// Split divides text into overlapping, size-bounded segments.
//
// Empty or whitespace-only input yields no segments. Text that fits in a
// single window yields exactly one trimmed segment. Otherwise a window of
// opts.Size characters slides over the text; each window's right edge is
// pulled back to the nearest sentence terminator within its last 100
// characters, or failing that to the nearest preceding space, so segments
// never end mid-word. Trimmed segments shorter than opts.MinSize are
// discarded. The next window starts opts.Overlap characters before the
// previous end, so consecutive kept segments share context.
func Split(text string, opts Options) []string {
	opts = opts.withDefaults()

	if strings.TrimSpace(text) == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= opts.Size {
		return []string{strings.TrimSpace(text)}
	}

	var segments []string
	start := 0
	for start < len(runes) {
		end := start + opts.Size
		last := false
		if end >= len(runes) {
			end = len(runes)
			last = true
		} else {
			end = adjustBoundary(runes, start, end)
		}

		segment := strings.TrimSpace(string(runes[start:end]))
		if len([]rune(segment)) >= opts.MinSize {
			segments = append(segments, segment)
		}

		if last {
			break
		}
		next := end - opts.Overlap
		if next <= start {
			// Degenerate window (no boundary progress); move hard.
			next = end
		}
		start = next
	}

	return segments
}

// adjustBoundary pulls the window's right edge back so the cut lands after a
// sentence terminator, or at a space. The search is limited to the last
// boundaryWindow characters; a window with no whitespace at all keeps the
// hard cut.
func adjustBoundary(runes []rune, start, end int) int {
	floor := end - boundaryWindow
	if floor < start {
		floor = start
	}

	// Prefer a sentence terminator followed by whitespace.
	for i := end - 1; i > floor; i-- {
		if isSentenceTerminator(runes[i-1]) && unicode.IsSpace(runes[i]) {
			return i
		}
	}

	// Otherwise the nearest preceding space anywhere in the window.
	for i := end - 1; i > start; i-- {
		if unicode.IsSpace(runes[i]) {
			return i
		}
	}

	return end
}

func isSentenceTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
