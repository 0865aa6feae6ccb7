package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

// Box draws a rounded border around body at the given outer width.
// A non-empty title is set into the top border.
func Box(t *Theme, title, body string, width int) string {
	if width < 6 {
		width = 6
	}
	inner := width - 2
	border := t.BorderStyle()

	top := strings.Repeat("─", inner)
	if title != "" {
		label := " " + xansi.Truncate(title, inner-4, "…") + " "
		fill := inner - 1 - xansi.StringWidth(label)
		if fill < 0 {
			fill = 0
		}
		top = border.Render("─") + t.AccentBold().Render(label) + border.Render(strings.Repeat("─", fill))
	} else {
		top = border.Render(top)
	}

	var sb strings.Builder
	sb.WriteString(border.Render("╭") + top + border.Render("╮") + "\n")
	for _, ln := range strings.Split(body, "\n") {
		ln = xansi.Truncate(ln, inner-2, "…")
		pad := inner - 2 - xansi.StringWidth(ln)
		if pad < 0 {
			pad = 0
		}
		sb.WriteString(border.Render("│") + " " + ln + strings.Repeat(" ", pad) + " " + border.Render("│") + "\n")
	}
	sb.WriteString(border.Render("╰" + strings.Repeat("─", inner) + "╯"))
	return sb.String()
}

// Fit clips or pads s to exactly w columns and h lines.
func Fit(s string, w, h int) string {
	if w <= 0 || h <= 0 {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > h {
		lines = lines[:h]
	}
	for len(lines) < h {
		lines = append(lines, "")
	}
	for i, ln := range lines {
		lines[i] = padRight(xansi.Truncate(ln, w, ""), w)
	}
	return strings.Join(lines, "\n")
}

// Composite draws top centered over base within a w×h canvas.
func Composite(base, top string, w, h int) string {
	canvas := strings.Split(Fit(base, w, h), "\n")
	over := strings.Split(top, "\n")
	tw := 0
	for _, ln := range over {
		if lw := xansi.StringWidth(ln); lw > tw {
			tw = lw
		}
	}
	if tw > w {
		tw = w
	}
	if len(over) > h {
		over = over[:h]
	}
	x := (w - tw) / 2
	y := (h - len(over)) / 2
	for i, ln := range over {
		row := y + i
		left := padRight(xansi.Truncate(canvas[row], x, ""), x)
		right := xansi.TruncateLeft(canvas[row], x+tw, "")
		canvas[row] = left + padRight(xansi.Truncate(ln, tw, ""), tw) + right
	}
	return strings.Join(canvas, "\n")
}

// StatusBar renders a segmented status bar with lipgloss backgrounds.
// The first left part is drawn as the key chip; right parts cycle accents.
func StatusBar(t *Theme, width int, leftParts, rightParts []string) string {
	w := width
	if w <= 0 {
		w = 100
	}
	base := t.StatusBarBase()
	keyStyle := t.ChipKeyStyle().Inherit(base).MarginRight(1)
	nugget := lipgloss.NewStyle().Foreground(t.OnAccent).Padding(0, 1)
	accents := []lipgloss.Color{t.Blue, t.Yellow, t.Magenta, t.Cyan}

	leftItems := make([]string, 0, len(leftParts))
	for i, s := range leftParts {
		if i == 0 {
			leftItems = append(leftItems, keyStyle.Render(s))
			continue
		}
		leftItems = append(leftItems, base.Padding(0, 1).Render(s))
	}
	rightItems := make([]string, 0, len(rightParts))
	for i, s := range rightParts {
		rightItems = append(rightItems, nugget.Background(accents[i%len(accents)]).Render(s))
	}

	leftStr, lw := join(leftItems)
	rightStr, rw := join(rightItems)
	for lw+rw > w && len(rightItems) > 0 {
		rightItems = rightItems[:len(rightItems)-1]
		rightStr, rw = join(rightItems)
	}
	if lw+rw > w {
		leftStr = xansi.Truncate(leftStr, w-rw, "…")
		lw = xansi.StringWidth(leftStr)
	}
	center := base.Width(max(0, w-lw-rw)).Render("")
	return base.Width(w).Render(leftStr + center + rightStr)
}

func join(parts []string) (string, int) {
	s := strings.Join(parts, "")
	return s, xansi.StringWidth(s)
}

func padRight(s string, w int) string {
	if pad := w - xansi.StringWidth(s); pad > 0 {
		return s + strings.Repeat(" ", pad)
	}
	return s
}
