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

// VersionsPage lists the versions of one secret, newest first.
type VersionsPage struct {
	secret Secret
	table  *widget.Table[Version]
	keys   *keys.Map
}

func newVersionsPage(s Secret, versions []Version, km *keys.Map) *VersionsPage {
	p := &VersionsPage{
		secret: s,
		keys:   km,
		table: widget.NewTable(widget.TableConfig[Version]{
			Columns: []widget.Column{
				{Title: "VERSION", Width: 10},
				{Title: "STATE", Width: 12},
				{Title: "CREATED"},
			},
			Row: func(v Version) []string {
				return []string{v.ID, strings.ToLower(string(v.State)), formatTime(v.CreatedAt)}
			},
			Empty: "no versions (a to add one)",
			Keys:  km,
		}),
	}
	p.table.SetItems(versions)
	return p
}

func (p *VersionsPage) Secret() Secret { return p.secret }

func (p *VersionsPage) SetVersions(vs []Version) { p.table.SetItems(vs) }

func (p *VersionsPage) Table() *widget.Table[Version] { return p.table }

func (p *VersionsPage) HandleEvent(ev core.Event) (core.Handled[Msg], error) {
	h, err := p.table.HandleEvent(ev)
	if err != nil || !h.IsIgnored() {
		return core.Map(h, func(v Version) Msg {
			return LoadPayload{Secret: p.secret, Version: v.ID}
		}), err
	}
	if !ev.IsKey() {
		return core.Ignored[Msg](), nil
	}
	k := p.keys
	switch {
	case key.Matches(ev.Key, k.Add):
		return core.Produced[Msg](PromptAddVersion{Secret: p.secret}), nil
	case key.Matches(ev.Key, k.Reload):
		return core.Produced[Msg](LoadVersions{Secret: p.secret, Force: true}), nil
	}
	v, ok := p.table.Selected()
	var want VersionAction
	switch {
	case key.Matches(ev.Key, k.Copy):
		if !ok {
			return core.Consumed[Msg](), nil
		}
		return core.Produced[Msg](CopyPayload{Secret: p.secret, Version: v.ID}), nil
	case key.Matches(ev.Key, k.Enable):
		want = ActionEnable
	case key.Matches(ev.Key, k.Disable):
		want = ActionDisable
	case key.Matches(ev.Key, k.Destroy):
		want = ActionDestroy
	default:
		return core.Ignored[Msg](), nil
	}
	if !ok {
		return core.Consumed[Msg](), nil
	}
	if err := checkTransition(v, want); err != nil {
		return core.Consumed[Msg](), err
	}
	if want == ActionDestroy {
		return core.Produced[Msg](ConfirmDestroyVersion{Secret: p.secret, Version: v}), nil
	}
	return core.Produced[Msg](ChangeVersion{Secret: p.secret, Version: v, Action: want}), nil
}

// checkTransition rejects state changes that cannot apply to v.
func checkTransition(v Version, action VersionAction) error {
	switch {
	case v.State == StateDestroyed:
		return fmt.Errorf("version %s is destroyed", v.ID)
	case action == ActionEnable && v.State == StateEnabled:
		return fmt.Errorf("version %s is already enabled", v.ID)
	case action == ActionDisable && v.State == StateDisabled:
		return fmt.Errorf("version %s is already disabled", v.ID)
	}
	return nil
}

func (p *VersionsPage) Render(area core.Area, theme *ui.Theme) string {
	title := theme.AccentBold().Render(p.secret.Name) +
		theme.MutedStyle().Render(fmt.Sprintf("  %d versions", len(p.table.Items())))
	body := p.table.Render(area.Shrink(0, 2), theme)
	return ui.Fit(strings.Join([]string{title, "", body}, "\n"), area.Width, area.Height)
}

func (p *VersionsPage) Breadcrumbs() []string { return []string{p.secret.Name} }

func (p *VersionsPage) KeyBindings() []key.Binding {
	out := p.table.KeyBindings()
	if p.table.Searching() {
		return out
	}
	k := p.keys
	return append(out, k.Select, k.Copy, k.Add, k.Enable, k.Disable, k.Destroy, k.Reload)
}
