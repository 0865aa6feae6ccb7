package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
	ansi "github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/lipgloss"
)

// glamourStyle adapts the theme palette to a glamour style. Payload views
// only render code blocks, so the config focuses on chroma tokens.
func glamourStyle(t *Theme) ansi.StyleConfig {
	// #RRGGBBAA is not understood by glamour
	hex := func(c lipgloss.Color) string {
		s := string(c)
		if strings.HasPrefix(s, "#") && len(s) == 9 {
			return s[:7]
		}
		return s
	}
	sp := func(c lipgloss.Color) *string {
		s := hex(c)
		return &s
	}
	bp := func(b bool) *bool { return &b }

	return ansi.StyleConfig{
		Document:  ansi.StyleBlock{StylePrimitive: ansi.StylePrimitive{Color: sp(t.Text)}},
		Paragraph: ansi.StyleBlock{StylePrimitive: ansi.StylePrimitive{Color: sp(t.Text)}},
		Text:      ansi.StylePrimitive{Color: sp(t.Text)},
		Code:      ansi.StyleBlock{StylePrimitive: ansi.StylePrimitive{Color: sp(t.Yellow), BackgroundColor: sp(t.BgSoft)}},
		CodeBlock: ansi.StyleCodeBlock{
			StyleBlock: ansi.StyleBlock{StylePrimitive: ansi.StylePrimitive{Color: sp(t.Text)}},
			Chroma: &ansi.Chroma{
				Text:          ansi.StylePrimitive{Color: sp(t.Text)},
				Keyword:       ansi.StylePrimitive{Color: sp(t.Primary), Bold: bp(true)},
				NameTag:       ansi.StylePrimitive{Color: sp(t.Blue)},
				NameAttribute: ansi.StylePrimitive{Color: sp(t.Blue)},
				LiteralString: ansi.StylePrimitive{Color: sp(t.Yellow)},
				LiteralNumber: ansi.StylePrimitive{Color: sp(t.Magenta)},
				Operator:      ansi.StylePrimitive{Color: sp(t.Secondary)},
				Punctuation:   ansi.StylePrimitive{Color: sp(t.Secondary)},
				Error:         ansi.StylePrimitive{Color: sp(t.Red)},
			},
		},
	}
}

// Highlight renders src as a fenced code block in lang. On any renderer
// failure the source is returned unchanged.
func Highlight(t *Theme, lang, src string, width int) string {
	const gutter = 2
	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(glamourStyle(t)),
		glamour.WithWordWrap(max(10, width-gutter)),
	)
	if err != nil {
		return src
	}
	out, err := r.Render("```" + lang + "\n" + src + "\n```\n")
	if err != nil {
		return src
	}
	return TrimEdgeBlankLines(out)
}

// TrimEdgeBlankLines drops leading and trailing whitespace-only lines.
func TrimEdgeBlankLines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	i := 0
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	j := len(lines) - 1
	for j >= i && strings.TrimSpace(lines[j]) == "" {
		j--
	}
	return strings.Join(lines[i:j+1], "\n")
}
