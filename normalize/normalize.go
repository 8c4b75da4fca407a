package normalize

import (
	"encoding/json"
	"strings"
)

// Text returns the canonical plain-text form of a document's content.
// When a rich editor state is present it takes precedence over the plain
// content; otherwise the plain content is cleaned up and returned.
func Text(content, richState string) string {
	if strings.TrimSpace(richState) != "" {
		return Flatten(richState)
	}
	return collapseWhitespace(content)
}

// node is the tolerant shape of a structured editor tree. Unknown fields
// are ignored; missing fields leave their zero values.
type node struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	Children []node `json:"children"`
}

// richRoot matches editor states that nest the tree under a "root" key.
type richRoot struct {
	Root *node `json:"root"`
}

// blockLevel nodes are followed by a blank-line separator when flattened.
var blockLevel = map[string]bool{
	"paragraph": true,
	"heading":   true,
	"quote":     true,
	"listitem":  true,
	"code":      true,
}

// Flatten converts a structured block/inline tree (JSON editor state) into
// plain text. Inline text nodes are concatenated, explicit line-break nodes
// become newlines, and block-level nodes are separated by a blank line.
// Input that does not parse as a tree falls back to StripMarkup.
func Flatten(richState string) string {
	trimmed := strings.TrimSpace(richState)
	if trimmed == "" {
		return ""
	}

	var root node
	if wrapped := (richRoot{}); json.Unmarshal([]byte(trimmed), &wrapped) == nil && wrapped.Root != nil {
		root = *wrapped.Root
	} else if err := json.Unmarshal([]byte(trimmed), &root); err != nil {
		return StripMarkup(trimmed)
	}

	var sb strings.Builder
	flattenNode(&sb, &root)

	out := collapseBlankLines(sb.String())
	if out == "" && !looksLikeTree(&root) {
		// Parsed as JSON but carried no recognizable tree content.
		return StripMarkup(trimmed)
	}
	return out
}

func flattenNode(sb *strings.Builder, n *node) {
	if n.Text != "" {
		sb.WriteString(n.Text)
	}
	if n.Type == "linebreak" {
		sb.WriteString("\n")
	}
	for i := range n.Children {
		flattenNode(sb, &n.Children[i])
	}
	if blockLevel[n.Type] {
		sb.WriteString("\n\n")
	}
}

// looksLikeTree reports whether the parsed value resembles an editor tree at
// all, so that arbitrary JSON does not silently flatten to nothing.
func looksLikeTree(n *node) bool {
	return n.Type != "" || n.Text != "" || len(n.Children) > 0
}
