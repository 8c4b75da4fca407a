package normalize

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	tagPattern     = regexp.MustCompile(`<[^>]*>`)
	numericEntity  = regexp.MustCompile(`&#(\d{1,7});`)
	spaceRuns      = regexp.MustCompile(`[ \t\r\f\v]+`)
	blankLineRuns  = regexp.MustCompile(`\n[ \t]*(\n[ \t]*)+`)
	trailingSpaces = regexp.MustCompile(`[ \t]+\n`)
)

// namedEntities covers the entities that show up in practice in pasted or
// webhook-delivered markup. Anything rarer is left as-is.
var namedEntities = map[string]string{
	"&amp;":  "&",
	"&lt;":   "<",
	"&gt;":   ">",
	"&quot;": `"`,
	"&#39;":  "'",
	"&apos;": "'",
	"&nbsp;": " ",
}

// StripMarkup reduces opaque markup to best-effort plain text: tags are
// removed, common entities decoded, and whitespace runs collapsed.
// It never fails; non-markup input passes through with whitespace cleanup.
func StripMarkup(s string) string {
	out := tagPattern.ReplaceAllString(s, " ")

	for entity, replacement := range namedEntities {
		out = strings.ReplaceAll(out, entity, replacement)
	}
	out = numericEntity.ReplaceAllStringFunc(out, func(m string) string {
		code, err := strconv.Atoi(m[2 : len(m)-1])
		if err != nil || code <= 0 || code > 0x10FFFF {
			return m
		}
		return string(rune(code))
	})

	return collapseWhitespace(out)
}

// collapseWhitespace collapses horizontal whitespace runs to single spaces
// and runs of blank lines to a single blank line, then trims.
func collapseWhitespace(s string) string {
	s = spaceRuns.ReplaceAllString(s, " ")
	s = trailingSpaces.ReplaceAllString(s, "\n")
	s = blankLineRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// collapseBlankLines is the lighter cleanup used after tree flattening,
// where intentional newlines must survive.
func collapseBlankLines(s string) string {
	s = trailingSpaces.ReplaceAllString(s, "\n")
	s = blankLineRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
