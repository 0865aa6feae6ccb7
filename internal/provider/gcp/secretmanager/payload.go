package secretmanager

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"lazycloud/internal/core"
	"lazycloud/internal/keys"
	"lazycloud/internal/ui"
)

// PayloadPage shows the data of one version. JSON is pretty-printed and
// highlighted; binary data and text with control characters are hex
// dumped so nothing in a secret reaches the terminal as an escape.
type PayloadPage struct {
	secret  Secret
	version string
	payload Payload
	keys    *keys.Map

	offset int
	// body height from the last resize, used to bound scrolling
	height int
}

func newPayloadPage(s Secret, version string, p Payload, km *keys.Map) *PayloadPage {
	return &PayloadPage{secret: s, version: version, payload: p, keys: km}
}

func (p *PayloadPage) Key() string { return payloadKey(p.secret.Name, p.version) }

func (p *PayloadPage) Payload() Payload { return p.payload }

// SetPayload swaps the data and keeps the scroll position.
func (p *PayloadPage) SetPayload(pl Payload) {
	p.payload = pl
	p.offset = min(p.offset, p.maxOffset())
}

func payloadKey(secret, version string) string { return secret + "/" + version }

// Kind describes how the payload is displayed.
func (p *PayloadPage) Kind() string {
	switch {
	case p.payload.Binary():
		return "binary"
	case json.Valid(p.payload.Data):
		return "json"
	}
	return "text"
}

// plain is the payload formatted for display, before highlighting.
func (p *PayloadPage) plain() string {
	switch p.Kind() {
	case "binary":
		return strings.TrimRight(hex.Dump(p.payload.Data), "\n")
	case "json":
		var buf bytes.Buffer
		if err := json.Indent(&buf, p.payload.Data, "", "  "); err == nil {
			return buf.String()
		}
	}
	return string(p.payload.Data)
}

func (p *PayloadPage) body(width int, theme *ui.Theme) string {
	out := p.plain()
	switch {
	case out == "":
		return theme.MutedStyle().Render("(empty payload)")
	case p.Kind() == "json":
		return ui.Highlight(theme, "json", out, width)
	}
	return out
}

func (p *PayloadPage) maxOffset() int {
	lines := strings.Count(p.plain(), "\n") + 1
	return max(0, lines-max(1, p.height))
}

func (p *PayloadPage) scroll(delta int) {
	p.offset = max(0, min(p.maxOffset(), p.offset+delta))
}

func (p *PayloadPage) HandleEvent(ev core.Event) (core.Handled[Msg], error) {
	if ev.Kind == core.EventResize {
		p.height = max(1, ev.Height-2)
		p.offset = min(p.offset, p.maxOffset())
		return core.Consumed[Msg](), nil
	}
	if ev.Kind == core.EventMouse {
		switch ev.Mouse.Button {
		case tea.MouseButtonWheelUp:
			p.scroll(-3)
		case tea.MouseButtonWheelDown:
			p.scroll(3)
		default:
			return core.Ignored[Msg](), nil
		}
		return core.Consumed[Msg](), nil
	}
	if !ev.IsKey() {
		return core.Ignored[Msg](), nil
	}
	k := p.keys
	switch {
	case key.Matches(ev.Key, k.Up):
		p.scroll(-1)
	case key.Matches(ev.Key, k.Down):
		p.scroll(1)
	case key.Matches(ev.Key, k.PageUp):
		p.scroll(-max(1, p.height))
	case key.Matches(ev.Key, k.PageDown):
		p.scroll(max(1, p.height))
	case key.Matches(ev.Key, k.Home):
		p.offset = 0
	case key.Matches(ev.Key, k.End):
		p.offset = p.maxOffset()
	case key.Matches(ev.Key, k.Copy):
		return core.Produced[Msg](CopyPayload{Secret: p.secret, Version: p.version}), nil
	case key.Matches(ev.Key, k.Reload):
		return core.Produced[Msg](LoadPayload{Secret: p.secret, Version: p.version, Force: true}), nil
	default:
		return core.Ignored[Msg](), nil
	}
	return core.Consumed[Msg](), nil
}

func (p *PayloadPage) Render(area core.Area, theme *ui.Theme) string {
	header := theme.AccentBold().Render(p.secret.Name) +
		theme.MutedStyle().Render(fmt.Sprintf("  %s · %d bytes · %s", versionLabel(p.version), len(p.payload.Data), p.Kind()))
	vp := viewport.New(area.Width, max(1, area.Height-2))
	vp.SetContent(p.body(area.Width, theme))
	vp.SetYOffset(p.offset)
	return ui.Fit(header+"\n\n"+vp.View(), area.Width, area.Height)
}

func versionLabel(v string) string {
	if v == LatestVersion {
		return "latest"
	}
	return "version " + v
}

func (p *PayloadPage) Breadcrumbs() []string { return []string{versionLabel(p.version)} }

func (p *PayloadPage) KeyBindings() []key.Binding {
	k := p.keys
	return []key.Binding{k.Up, k.Down, k.PageDown, k.Copy, k.Reload}
}
