package core

import (
	"fmt"
	"strings"
)

// Provider names a cloud provider family.
type Provider string

const (
	ProviderGCP   Provider = "gcp"
	ProviderAWS   Provider = "aws"
	ProviderAzure Provider = "azure"
)

// Context is a selected cloud account/project. It is a value: services
// receive a copy and never see later changes.
type Context struct {
	Provider        Provider
	Name            string
	Project         string
	Account         string
	Region          string
	CredentialsPath string
}

// Label is the one-line form used by selectors and the header.
func (c Context) Label() string {
	var parts []string
	if c.Project != "" && c.Project != c.Name {
		parts = append(parts, c.Project)
	}
	if c.Account != "" {
		parts = append(parts, c.Account)
	}
	if c.Region != "" {
		parts = append(parts, c.Region)
	}
	if len(parts) == 0 {
		return fmt.Sprintf("%s:%s", c.Provider, c.Name)
	}
	return fmt.Sprintf("%s:%s (%s)", c.Provider, c.Name, strings.Join(parts, ", "))
}

// ServiceID names a service within a provider, e.g. gcp:secret-manager.
type ServiceID struct {
	Provider Provider
	Service  string
}

func (id ServiceID) String() string { return string(id.Provider) + ":" + id.Service }

// ParseServiceID accepts "provider:service" or a bare service name, which
// is resolved against def.
func ParseServiceID(s string, def Provider) (ServiceID, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ServiceID{}, fmt.Errorf("%w: empty id", ErrUnknownService)
	}
	if p, svc, ok := strings.Cut(s, ":"); ok {
		if p == "" || svc == "" {
			return ServiceID{}, fmt.Errorf("%w: %q", ErrUnknownService, s)
		}
		return ServiceID{Provider: Provider(p), Service: svc}, nil
	}
	return ServiceID{Provider: def, Service: s}, nil
}
