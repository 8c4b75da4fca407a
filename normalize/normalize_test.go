package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	t.Run("plain content passes through", func(t *testing.T) {
		assert.Equal(t, "hello world", Text("hello   world", ""))
	})

	t.Run("rich state takes precedence", func(t *testing.T) {
		rich := `{"root":{"type":"root","children":[{"type":"paragraph","children":[{"type":"text","text":"from rich"}]}]}}`
		assert.Equal(t, "from rich", Text("from plain", rich))
	})

	t.Run("both empty", func(t *testing.T) {
		assert.Equal(t, "", Text("", ""))
	})
}

func TestFlatten_Tree(t *testing.T) {
	t.Run("paragraphs separated by blank line", func(t *testing.T) {
		rich := `{"root":{"type":"root","children":[
			{"type":"paragraph","children":[{"type":"text","text":"first paragraph"}]},
			{"type":"paragraph","children":[{"type":"text","text":"second paragraph"}]}
		]}}`
		assert.Equal(t, "first paragraph\n\nsecond paragraph", Flatten(rich))
	})

	t.Run("heading then paragraph", func(t *testing.T) {
		rich := `{"root":{"children":[
			{"type":"heading","children":[{"text":"Title"}]},
			{"type":"paragraph","children":[{"text":"Body text."}]}
		]}}`
		assert.Equal(t, "Title\n\nBody text.", Flatten(rich))
	})

	t.Run("inline nodes concatenated", func(t *testing.T) {
		rich := `{"type":"paragraph","children":[
			{"text":"one "},{"text":"two "},{"text":"three"}
		]}`
		assert.Equal(t, "one two three", Flatten(rich))
	})

	t.Run("linebreak node becomes newline", func(t *testing.T) {
		rich := `{"type":"paragraph","children":[
			{"text":"line one"},{"type":"linebreak"},{"text":"line two"}
		]}`
		assert.Equal(t, "line one\nline two", Flatten(rich))
	})

	t.Run("nested list items", func(t *testing.T) {
		rich := `{"root":{"children":[
			{"type":"list","children":[
				{"type":"listitem","children":[{"text":"alpha"}]},
				{"type":"listitem","children":[{"text":"beta"}]}
			]}
		]}}`
		assert.Equal(t, "alpha\n\nbeta", Flatten(rich))
	})
}

func TestFlatten_Fallback(t *testing.T) {
	t.Run("unparseable input falls back to tag stripping", func(t *testing.T) {
		assert.Equal(t, "bold text", Flatten("<b>bold</b> text"))
	})

	t.Run("broken JSON falls back", func(t *testing.T) {
		assert.Equal(t, `{"root": broken`, Flatten(`{"root": broken`))
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Equal(t, "", Flatten(""))
		assert.Equal(t, "", Flatten("   "))
	})

	t.Run("JSON without tree shape falls back", func(t *testing.T) {
		assert.Equal(t, `{"foo": 1}`, Flatten(`{"foo": 1}`))
	})
}

func TestStripMarkup(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple tags", "<p>hello <b>world</b></p>", "hello world"},
		{"attributes", `<a href="https://example.com">link</a>`, "link"},
		{"named entities", "fish &amp; chips &lt;fresh&gt;", "fish & chips <fresh>"},
		{"numeric entity", "it&#39;s fine", "it's fine"},
		{"nbsp", "a&nbsp;b", "a b"},
		{"whitespace collapse", "a   b\t\tc", "a b c"},
		{"blank line collapse", "a\n\n\n\nb", "a\n\nb"},
		{"trim", "  padded  ", "padded"},
		{"no markup", "plain sentence.", "plain sentence."},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripMarkup(tt.in))
		})
	}
}

// Normalization must never panic regardless of input shape.
func TestNormalize_NeverPanics(t *testing.T) {
	inputs := []string{
		"", "   ", "plain", "<unclosed", "&#99999999999;", "&#0;",
		`{"root":{}}`, `[1,2,3]`, `"just a string"`, "{{{{", "<><><>",
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() {
			_ = Flatten(in)
			_ = StripMarkup(in)
			_ = Text(in, in)
		})
	}
}
