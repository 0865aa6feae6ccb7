// Package secretmanager implements the GCP Secret Manager service: secrets,
// their versions and payloads, labels, IAM policy and replication.
package secretmanager

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

// Secret is a secret's metadata. Payloads live in versions.
type Secret struct {
	Name        string
	CreatedAt   time.Time
	ExpireTime  time.Time
	Labels      map[string]string
	Replication Replication
}

// Replication describes where a secret's payloads are stored.
type Replication struct {
	Automatic bool
	Locations []string
}

// Short is the compact form used in the secrets table.
func (r Replication) Short() string {
	switch {
	case r.Automatic:
		return "Automatic"
	case len(r.Locations) == 1:
		return r.Locations[0]
	case len(r.Locations) > 1:
		return fmt.Sprintf("%d regions", len(r.Locations))
	}
	return "—"
}

// VersionState mirrors the API's version states.
type VersionState string

const (
	StateEnabled   VersionState = "ENABLED"
	StateDisabled  VersionState = "DISABLED"
	StateDestroyed VersionState = "DESTROYED"
)

// Version is one payload revision of a secret.
type Version struct {
	ID        string
	State     VersionState
	CreatedAt time.Time
}

// VersionAction changes a version's state.
type VersionAction string

const (
	ActionEnable  VersionAction = "enable"
	ActionDisable VersionAction = "disable"
	ActionDestroy VersionAction = "destroy"
)

// Payload is the accessed data of a version.
type Payload struct {
	Data []byte
}

// Binary reports whether the payload cannot be shown as text: it is not
// valid UTF-8, or it holds control characters other than newline and tab.
func (p Payload) Binary() bool {
	if !utf8.Valid(p.Data) {
		return true
	}
	for _, r := range string(p.Data) {
		if r == '\n' || r == '\t' {
			continue
		}
		if r < 0x20 || r == 0x7f || r >= 0x80 && r <= 0x9f {
			return true
		}
	}
	return false
}

// Binding grants a role to members.
type Binding struct {
	Role    string
	Members []string
}

// IAMPolicy is a secret's IAM policy.
type IAMPolicy struct {
	Bindings []Binding
	Etag     string
}

// LatestVersion is the alias resolving to the newest enabled version.
const LatestVersion = "latest"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func formatExpire(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return formatTime(t)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FormatLabels renders at most two labels for a table cell, long values
// truncated, followed by "+N" for the rest.
func FormatLabels(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	const shown, maxValue = 2, 20
	keys := sortedKeys(labels)
	parts := make([]string, 0, shown+1)
	for i, k := range keys {
		if i == shown {
			parts = append(parts, fmt.Sprintf("+%d", len(keys)-shown))
			break
		}
		parts = append(parts, k+"="+runewidth.Truncate(labels[k], maxValue, "…"))
	}
	return strings.Join(parts, ", ")
}

// EditableLabels renders labels in the form ParseLabels reads back.
func EditableLabels(labels map[string]string) string {
	keys := sortedKeys(labels)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+labels[k])
	}
	return strings.Join(parts, ", ")
}

// ParseLabels reads "k=v, k2=v2". An empty string clears all labels.
func ParseLabels(s string) (map[string]string, error) {
	out := map[string]string{}
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' }) {
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("label %q: expected key=value", part)
		}
		if err := validateLabel(k, v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

func validateLabel(k, v string) error {
	if k == "" || len(k) > 63 {
		return fmt.Errorf("label key %q: must be 1-63 characters", k)
	}
	if k[0] < 'a' || k[0] > 'z' {
		return fmt.Errorf("label key %q: must start with a lowercase letter", k)
	}
	for _, s := range []string{k, v} {
		for _, r := range s {
			if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_' || r == '-') {
				return fmt.Errorf("label %s=%s: only lowercase letters, digits, _ and - are allowed", k, v)
			}
		}
	}
	if len(v) > 63 {
		return fmt.Errorf("label value for %q: at most 63 characters", k)
	}
	return nil
}

// ValidateSecretName checks the API's secret id rules.
func ValidateSecretName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("secret name is required")
	}
	if len(name) > 255 {
		return errors.New("secret name must be at most 255 characters")
	}
	for _, r := range name {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' || r == '-') {
			return fmt.Errorf("invalid character %q: use letters, digits, _ or -", r)
		}
	}
	return nil
}
