package secretmanager

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"lazycloud/internal/core"
	"lazycloud/internal/keys"
	"lazycloud/internal/search"
	"lazycloud/internal/ui"
	"lazycloud/internal/widget"
)

// SecretsPage is the root page: every secret of the project.
type SecretsPage struct {
	table  *widget.Table[Secret]
	keys   *keys.Map
	loaded bool
}

func newSecretsPage(km *keys.Map) *SecretsPage {
	return &SecretsPage{
		keys: km,
		table: widget.NewTable(widget.TableConfig[Secret]{
			Columns: []widget.Column{
				{Title: "NAME"},
				{Title: "REPLICATION", Width: 14},
				{Title: "CREATED", Width: 16},
				{Title: "EXPIRES", Width: 16},
				{Title: "LABELS"},
			},
			Row: func(s Secret) []string {
				return []string{s.Name, s.Replication.Short(), formatTime(s.CreatedAt), formatExpire(s.ExpireTime), FormatLabels(s.Labels)}
			},
			Text:  func(s Secret) string { return s.Name + " " + search.Labels(s.Labels) },
			Empty: "no secrets in this project (n to create one)",
			Keys:  km,
		}),
	}
}

// SetSecrets replaces the rows, keeping the cursor index where possible.
func (p *SecretsPage) SetSecrets(secrets []Secret) {
	p.loaded = true
	p.table.SetItems(secrets)
}

func (p *SecretsPage) Table() *widget.Table[Secret] { return p.table }

func (p *SecretsPage) HandleEvent(ev core.Event) (core.Handled[Msg], error) {
	h, err := p.table.HandleEvent(ev)
	if err != nil || !h.IsIgnored() {
		return core.Map(h, func(s Secret) Msg { return LoadVersions{Secret: s} }), err
	}
	if !ev.IsKey() {
		return core.Ignored[Msg](), nil
	}
	k := p.keys
	switch {
	case key.Matches(ev.Key, k.New):
		return core.Produced[Msg](ShowCreate{}), nil
	case key.Matches(ev.Key, k.Reload):
		return core.Produced[Msg](LoadSecrets{Force: true}), nil
	}
	sel, ok := p.table.Selected()
	var msg Msg
	switch {
	case key.Matches(ev.Key, k.View):
		msg = LoadPayload{Secret: sel, Version: LatestVersion}
	case key.Matches(ev.Key, k.Copy):
		msg = CopyPayload{Secret: sel, Version: LatestVersion}
	case key.Matches(ev.Key, k.Delete):
		msg = ConfirmDeleteSecret{Secret: sel}
	case key.Matches(ev.Key, k.Labels):
		msg = ShowLabels{Secret: sel}
	case key.Matches(ev.Key, k.IAM):
		msg = LoadIAM{Secret: sel}
	case key.Matches(ev.Key, k.Replication):
		msg = ShowReplication{Secret: sel}
	default:
		return core.Ignored[Msg](), nil
	}
	if !ok {
		return core.Consumed[Msg](), nil
	}
	return core.Produced(msg), nil
}

func (p *SecretsPage) Render(area core.Area, theme *ui.Theme) string {
	title := theme.AccentBold().Render("Secrets")
	if p.loaded {
		title += theme.MutedStyle().Render(fmt.Sprintf("  %d", len(p.table.Items())))
	}
	body := p.table.Render(area.Shrink(0, 2), theme)
	return ui.Fit(strings.Join([]string{title, "", body}, "\n"), area.Width, area.Height)
}

func (p *SecretsPage) Breadcrumbs() []string { return []string{"Secrets"} }

func (p *SecretsPage) KeyBindings() []key.Binding {
	out := p.table.KeyBindings()
	if p.table.Searching() {
		return out
	}
	k := p.keys
	return append(out, k.Select, k.View, k.Copy, k.New, k.Delete, k.Labels, k.IAM, k.Replication, k.Reload)
}
