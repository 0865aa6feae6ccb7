package keys

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// Map holds every user-facing binding. Bindings are grouped by the
// surface that reads them; the same key may appear in groups that are
// never active at the same time (e.g. Delete and Disable).
type Map struct {
	// global
	Quit      key.Binding
	ForceQuit key.Binding
	Help      key.Binding
	Theme     key.Binding
	Back      key.Binding
	Commands  key.Binding

	// navigation
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Home     key.Binding
	End      key.Binding
	Select   key.Binding

	// search
	Search      key.Binding
	ClearSearch key.Binding

	// secrets
	Copy        key.Binding
	View        key.Binding
	New         key.Binding
	Delete      key.Binding
	Labels      key.Binding
	IAM         key.Binding
	Replication key.Binding
	Reload      key.Binding

	// versions
	Add     key.Binding
	Disable key.Binding
	Enable  key.Binding
	Destroy key.Binding

	// dialogs
	Confirm key.Binding
	Cancel  key.Binding
	Focus   key.Binding
}

// Default returns the built-in key map.
func Default() *Map {
	return &Map{
		Quit:      key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		ForceQuit: key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Theme:     key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "theme")),
		Back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Commands:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "commands")),

		Up:       key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
		Down:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
		PageUp:   key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
		PageDown: key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down")),
		Home:     key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
		End:      key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
		Select:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),

		Search:      key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		ClearSearch: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear search")),

		Copy:        key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy")),
		View:        key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "view payload")),
		New:         key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
		Delete:      key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
		Labels:      key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "labels")),
		IAM:         key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "iam")),
		Replication: key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "replication")),
		Reload:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),

		Add:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add version")),
		Disable: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "disable")),
		Enable:  key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "enable")),
		Destroy: key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "destroy")),

		Confirm: key.NewBinding(key.WithKeys("y", "Y", "enter"), key.WithHelp("y", "confirm")),
		Cancel:  key.NewBinding(key.WithKeys("n", "N", "esc"), key.WithHelp("n/esc", "cancel")),
		Focus:   key.NewBinding(key.WithKeys("tab", "shift+tab", "left", "right", "h", "l"), key.WithHelp("tab", "switch")),
	}
}

// actions maps config action names to bindings.
func (m *Map) actions() map[string]*key.Binding {
	return map[string]*key.Binding{
		"quit":         &m.Quit,
		"help":         &m.Help,
		"theme":        &m.Theme,
		"back":         &m.Back,
		"commands":     &m.Commands,
		"up":           &m.Up,
		"down":         &m.Down,
		"page_up":      &m.PageUp,
		"page_down":    &m.PageDown,
		"home":         &m.Home,
		"end":          &m.End,
		"select":       &m.Select,
		"search":       &m.Search,
		"clear_search": &m.ClearSearch,
		"copy":         &m.Copy,
		"view":         &m.View,
		"new":          &m.New,
		"delete":       &m.Delete,
		"labels":       &m.Labels,
		"iam":          &m.IAM,
		"replication":  &m.Replication,
		"reload":       &m.Reload,
		"add":          &m.Add,
		"disable":      &m.Disable,
		"enable":       &m.Enable,
		"destroy":      &m.Destroy,
		"confirm":      &m.Confirm,
		"cancel":       &m.Cancel,
	}
}

// Actions lists the names accepted by Apply, sorted.
func (m *Map) Actions() []string {
	acts := m.actions()
	out := make([]string, 0, len(acts))
	for name := range acts {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Apply replaces the keys of the named actions. Unknown actions and
// empty key lists are rejected; the map is left untouched on error.
func (m *Map) Apply(overrides map[string][]string) error {
	acts := m.actions()
	for name, ks := range overrides {
		if _, ok := acts[strings.ToLower(name)]; !ok {
			return fmt.Errorf("unknown key action %q", name)
		}
		if len(ks) == 0 {
			return fmt.Errorf("key action %q has no keys", name)
		}
	}
	for name, ks := range overrides {
		b := acts[strings.ToLower(name)]
		desc := b.Help().Desc
		b.SetKeys(ks...)
		b.SetHelp(strings.Join(ks, "/"), desc)
	}
	return nil
}

// Nav returns the navigation bindings shown in help.
func (m *Map) Nav() []key.Binding {
	return []key.Binding{m.Up, m.Down, m.PageUp, m.PageDown, m.Home, m.End, m.Select, m.Search}
}

// Global returns the bindings handled by the controller when nothing on
// screen claims the key.
func (m *Map) Global() []key.Binding {
	return []key.Binding{m.Help, m.Theme, m.Quit}
}
