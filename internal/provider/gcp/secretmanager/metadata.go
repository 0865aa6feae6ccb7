package secretmanager

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"lazycloud/internal/core"
	"lazycloud/internal/keys"
	"lazycloud/internal/ui"
	"lazycloud/internal/widget"
)

type label struct{ Key, Value string }

// LabelsPage lists the labels of a secret. Enter or n opens the editor.
type LabelsPage struct {
	secret Secret
	table  *widget.Table[label]
	keys   *keys.Map
}

func newLabelsPage(s Secret, km *keys.Map) *LabelsPage {
	p := &LabelsPage{
		keys: km,
		table: widget.NewTable(widget.TableConfig[label]{
			Columns: []widget.Column{{Title: "KEY", Width: 24}, {Title: "VALUE"}},
			Row:     func(l label) []string { return []string{l.Key, l.Value} },
			Empty:   "no labels (enter to add)",
			Keys:    km,
		}),
	}
	p.SetSecret(s)
	return p
}

func (p *LabelsPage) Secret() Secret { return p.secret }

func (p *LabelsPage) SetSecret(s Secret) {
	p.secret = s
	rows := make([]label, 0, len(s.Labels))
	for _, k := range sortedKeys(s.Labels) {
		rows = append(rows, label{Key: k, Value: s.Labels[k]})
	}
	p.table.SetItems(rows)
}

func (p *LabelsPage) HandleEvent(ev core.Event) (core.Handled[Msg], error) {
	if ev.IsKey() && !p.table.Searching() &&
		(key.Matches(ev.Key, p.keys.Select) || key.Matches(ev.Key, p.keys.New)) {
		return core.Produced[Msg](PromptLabels{Secret: p.secret}), nil
	}
	h, err := p.table.HandleEvent(ev)
	return core.Then(h, func(label) core.Handled[Msg] { return core.Consumed[Msg]() }), err
}

func (p *LabelsPage) Render(area core.Area, theme *ui.Theme) string {
	title := theme.AccentBold().Render("Labels") + theme.MutedStyle().Render("  "+p.secret.Name)
	return ui.Fit(title+"\n\n"+p.table.Render(area.Shrink(0, 2), theme), area.Width, area.Height)
}

func (p *LabelsPage) Breadcrumbs() []string { return []string{"Labels"} }

func (p *LabelsPage) KeyBindings() []key.Binding {
	edit := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "edit labels"))
	return append(p.table.KeyBindings(), edit)
}

type grant struct{ Role, Member string }

// IAMPage shows a secret's policy, one row per role and member.
type IAMPage struct {
	secret Secret
	etag   string
	table  *widget.Table[grant]
	keys   *keys.Map
}

func newIAMPage(s Secret, policy IAMPolicy, km *keys.Map) *IAMPage {
	p := &IAMPage{
		secret: s,
		keys:   km,
		table: widget.NewTable(widget.TableConfig[grant]{
			Columns: []widget.Column{{Title: "ROLE"}, {Title: "MEMBER"}},
			Row:     func(g grant) []string { return []string{g.Role, g.Member} },
			Empty:   "no bindings on this secret",
			Keys:    km,
		}),
	}
	p.SetPolicy(policy)
	return p
}

func (p *IAMPage) Secret() Secret { return p.secret }

func (p *IAMPage) SetPolicy(policy IAMPolicy) {
	p.etag = policy.Etag
	var rows []grant
	for _, b := range policy.Bindings {
		for _, m := range b.Members {
			rows = append(rows, grant{Role: strings.TrimPrefix(b.Role, "roles/"), Member: m})
		}
	}
	p.table.SetItems(rows)
}

func (p *IAMPage) Table() *widget.Table[grant] { return p.table }

func (p *IAMPage) HandleEvent(ev core.Event) (core.Handled[Msg], error) {
	h, err := p.table.HandleEvent(ev)
	if err != nil || !h.IsIgnored() {
		// rows are read-only
		return core.Then(h, func(grant) core.Handled[Msg] { return core.Consumed[Msg]() }), err
	}
	if ev.IsKey() && key.Matches(ev.Key, p.keys.Reload) {
		return core.Produced[Msg](LoadIAM{Secret: p.secret}), nil
	}
	return core.Ignored[Msg](), nil
}

func (p *IAMPage) Render(area core.Area, theme *ui.Theme) string {
	title := theme.AccentBold().Render("IAM policy") + theme.MutedStyle().Render("  "+p.secret.Name)
	return ui.Fit(title+"\n\n"+p.table.Render(area.Shrink(0, 2), theme), area.Width, area.Height)
}

func (p *IAMPage) Breadcrumbs() []string { return []string{"IAM"} }

func (p *IAMPage) KeyBindings() []key.Binding {
	return append(p.table.KeyBindings(), p.keys.Reload)
}

// ReplicationPage describes where a secret is stored.
type ReplicationPage struct {
	secret Secret
	keys   *keys.Map
}

func newReplicationPage(s Secret, km *keys.Map) *ReplicationPage {
	return &ReplicationPage{secret: s, keys: km}
}

func (p *ReplicationPage) Secret() Secret { return p.secret }

func (p *ReplicationPage) SetSecret(s Secret) { p.secret = s }

func (p *ReplicationPage) HandleEvent(ev core.Event) (core.Handled[Msg], error) {
	if ev.IsKey() && key.Matches(ev.Key, p.keys.Reload) {
		return core.Produced[Msg](LoadReplication{Secret: p.secret}), nil
	}
	return core.Ignored[Msg](), nil
}

func (p *ReplicationPage) Render(area core.Area, theme *ui.Theme) string {
	muted, text := theme.MutedStyle(), theme.TextStyle()
	lines := []string{
		theme.AccentBold().Render("Replication") + muted.Render("  "+p.secret.Name),
		"",
	}
	r := p.secret.Replication
	switch {
	case r.Automatic:
		lines = append(lines,
			muted.Render("policy    ")+text.Render("automatic"),
			muted.Render("          ")+muted.Render("Google chooses the locations; data stays within the project's org policy."))
	case len(r.Locations) > 0:
		lines = append(lines, muted.Render("policy    ")+text.Render("user managed"),
			muted.Render("locations ")+text.Render(fmt.Sprintf("%d", len(r.Locations))))
		for _, loc := range r.Locations {
			lines = append(lines, "  • "+text.Render(loc))
		}
	default:
		lines = append(lines, muted.Render("replication policy unknown (r to reload)"))
	}
	lines = append(lines, "",
		muted.Render("created   ")+text.Render(formatTime(p.secret.CreatedAt)),
		muted.Render("expires   ")+text.Render(formatExpire(p.secret.ExpireTime)))
	return ui.Fit(strings.Join(lines, "\n"), area.Width, area.Height)
}

func (p *ReplicationPage) Breadcrumbs() []string { return []string{"Replication"} }

func (p *ReplicationPage) KeyBindings() []key.Binding { return []key.Binding{p.keys.Reload} }
