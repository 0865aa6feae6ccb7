package secretmanager

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"sync"
	"time"
)

type memSecret struct {
	secret   Secret
	versions []Version
	data     map[string][]byte
	policy   IAMPolicy
}

// MemoryClient is an in-process backend used by demo mode and tests.
type MemoryClient struct {
	mu      sync.Mutex
	secrets map[string]*memSecret
	now     func() time.Time
	delay   time.Duration
	fail    map[string]error
}

func NewMemoryClient() *MemoryClient {
	return &MemoryClient{secrets: map[string]*memSecret{}, now: time.Now, fail: map[string]error{}}
}

// WithDelay makes every call wait d, honoring ctx.
func (m *MemoryClient) WithDelay(d time.Duration) *MemoryClient {
	m.delay = d
	return m
}

// Fail makes op (a method name such as "ListSecrets") return err until
// cleared with a nil err.
func (m *MemoryClient) Fail(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.fail, op)
		return
	}
	m.fail[op] = err
}

// Seed adds a secret with one enabled version per payload.
func (m *MemoryClient) Seed(s Secret, payloads ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = m.now()
	}
	if !s.Replication.Automatic && len(s.Replication.Locations) == 0 {
		s.Replication.Automatic = true
	}
	ms := &memSecret{secret: s, data: map[string][]byte{}}
	for _, p := range payloads {
		ms.add([]byte(p), s.CreatedAt)
	}
	m.secrets[s.Name] = ms
}

func (ms *memSecret) add(data []byte, at time.Time) Version {
	v := Version{ID: strconv.Itoa(len(ms.versions) + 1), State: StateEnabled, CreatedAt: at}
	ms.versions = append(ms.versions, v)
	ms.data[v.ID] = data
	return v
}

// enter waits out the configured delay, then locks. The caller unlocks
// only when err is nil.
func (m *MemoryClient) enter(ctx context.Context, op string) error {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	m.mu.Lock()
	if err := m.fail[op]; err != nil {
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *MemoryClient) lookup(name string) (*memSecret, error) {
	ms, ok := m.secrets[name]
	if !ok {
		return nil, fmt.Errorf("secret %q not found", name)
	}
	return ms, nil
}

func cloneSecret(s Secret) Secret {
	s.Labels = maps.Clone(s.Labels)
	s.Replication.Locations = slices.Clone(s.Replication.Locations)
	return s
}

func (m *MemoryClient) Check(ctx context.Context) error {
	if err := m.enter(ctx, "Check"); err != nil {
		return err
	}
	m.mu.Unlock()
	return nil
}

func (m *MemoryClient) ListSecrets(ctx context.Context) ([]Secret, error) {
	if err := m.enter(ctx, "ListSecrets"); err != nil {
		return nil, err
	}
	defer m.mu.Unlock()
	names := slices.Sorted(maps.Keys(m.secrets))
	out := make([]Secret, 0, len(names))
	for _, n := range names {
		out = append(out, cloneSecret(m.secrets[n].secret))
	}
	return out, nil
}

func (m *MemoryClient) GetSecret(ctx context.Context, name string) (Secret, error) {
	if err := m.enter(ctx, "GetSecret"); err != nil {
		return Secret{}, err
	}
	defer m.mu.Unlock()
	ms, err := m.lookup(name)
	if err != nil {
		return Secret{}, err
	}
	return cloneSecret(ms.secret), nil
}

func (m *MemoryClient) CreateSecret(ctx context.Context, name string, payload []byte) (Secret, error) {
	if err := m.enter(ctx, "CreateSecret"); err != nil {
		return Secret{}, err
	}
	defer m.mu.Unlock()
	if err := ValidateSecretName(name); err != nil {
		return Secret{}, err
	}
	if _, ok := m.secrets[name]; ok {
		return Secret{}, fmt.Errorf("secret %q already exists", name)
	}
	ms := &memSecret{
		secret: Secret{Name: name, CreatedAt: m.now(), Replication: Replication{Automatic: true}},
		data:   map[string][]byte{},
	}
	if payload != nil {
		ms.add(payload, ms.secret.CreatedAt)
	}
	m.secrets[name] = ms
	return cloneSecret(ms.secret), nil
}

func (m *MemoryClient) DeleteSecret(ctx context.Context, name string) error {
	if err := m.enter(ctx, "DeleteSecret"); err != nil {
		return err
	}
	defer m.mu.Unlock()
	if _, err := m.lookup(name); err != nil {
		return err
	}
	delete(m.secrets, name)
	return nil
}

func (m *MemoryClient) UpdateLabels(ctx context.Context, name string, labels map[string]string) (Secret, error) {
	if err := m.enter(ctx, "UpdateLabels"); err != nil {
		return Secret{}, err
	}
	defer m.mu.Unlock()
	ms, err := m.lookup(name)
	if err != nil {
		return Secret{}, err
	}
	ms.secret.Labels = maps.Clone(labels)
	return cloneSecret(ms.secret), nil
}

func (m *MemoryClient) GetIAMPolicy(ctx context.Context, name string) (IAMPolicy, error) {
	if err := m.enter(ctx, "GetIAMPolicy"); err != nil {
		return IAMPolicy{}, err
	}
	defer m.mu.Unlock()
	ms, err := m.lookup(name)
	if err != nil {
		return IAMPolicy{}, err
	}
	return ms.policy, nil
}

// SetPolicy replaces the IAM policy returned for a seeded secret.
func (m *MemoryClient) SetPolicy(name string, p IAMPolicy) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ms, ok := m.secrets[name]; ok {
		ms.policy = p
	}
}

func (m *MemoryClient) ListVersions(ctx context.Context, secret string) ([]Version, error) {
	if err := m.enter(ctx, "ListVersions"); err != nil {
		return nil, err
	}
	defer m.mu.Unlock()
	ms, err := m.lookup(secret)
	if err != nil {
		return nil, err
	}
	out := slices.Clone(ms.versions)
	slices.Reverse(out)
	return out, nil
}

func (m *MemoryClient) AddVersion(ctx context.Context, secret string, data []byte) (Version, error) {
	if err := m.enter(ctx, "AddVersion"); err != nil {
		return Version{}, err
	}
	defer m.mu.Unlock()
	ms, err := m.lookup(secret)
	if err != nil {
		return Version{}, err
	}
	return ms.add(slices.Clone(data), m.now()), nil
}

func (m *MemoryClient) SetVersionState(ctx context.Context, secret, version string, action VersionAction) error {
	if err := m.enter(ctx, "SetVersionState"); err != nil {
		return err
	}
	defer m.mu.Unlock()
	ms, err := m.lookup(secret)
	if err != nil {
		return err
	}
	i := slices.IndexFunc(ms.versions, func(v Version) bool { return v.ID == version })
	if i < 0 {
		return fmt.Errorf("version %s of %q not found", version, secret)
	}
	v := &ms.versions[i]
	if v.State == StateDestroyed {
		return fmt.Errorf("version %s is destroyed", version)
	}
	switch action {
	case ActionEnable:
		v.State = StateEnabled
	case ActionDisable:
		v.State = StateDisabled
	case ActionDestroy:
		v.State = StateDestroyed
		delete(ms.data, version)
	default:
		return fmt.Errorf("unknown version action %q", action)
	}
	return nil
}

func (m *MemoryClient) AccessVersion(ctx context.Context, secret, version string) (Payload, error) {
	if err := m.enter(ctx, "AccessVersion"); err != nil {
		return Payload{}, err
	}
	defer m.mu.Unlock()
	ms, err := m.lookup(secret)
	if err != nil {
		return Payload{}, err
	}
	if version == LatestVersion {
		for i := len(ms.versions) - 1; i >= 0; i-- {
			if ms.versions[i].State == StateEnabled {
				version = ms.versions[i].ID
				break
			}
		}
		if version == LatestVersion {
			return Payload{}, fmt.Errorf("secret %q has no enabled versions", secret)
		}
	}
	i := slices.IndexFunc(ms.versions, func(v Version) bool { return v.ID == version })
	if i < 0 {
		return Payload{}, fmt.Errorf("version %s of %q not found", version, secret)
	}
	if st := ms.versions[i].State; st != StateEnabled {
		return Payload{}, fmt.Errorf("version %s is %s", version, st)
	}
	return Payload{Data: slices.Clone(ms.data[version])}, nil
}

// DemoClient returns a memory backend populated with sample secrets.
func DemoClient(project string) *MemoryClient {
	m := NewMemoryClient().WithDelay(300 * time.Millisecond)
	created := time.Date(2024, 3, 14, 9, 30, 0, 0, time.UTC)
	m.Seed(Secret{Name: "api-key", CreatedAt: created, Labels: map[string]string{"env": "prod", "team": "payments"}}, "sk_live_0000", "sk_live_1111")
	m.Seed(Secret{Name: "db-password", CreatedAt: created.Add(24 * time.Hour), Labels: map[string]string{"env": "prod"},
		Replication: Replication{Locations: []string{"europe-west1", "europe-west4"}}}, "hunter2")
	m.Seed(Secret{Name: "service-account", CreatedAt: created.Add(48 * time.Hour),
		Replication: Replication{Locations: []string{"us-central1"}}},
		`{"type":"service_account","project_id":"`+project+`","client_email":"runner@`+project+`.iam.gserviceaccount.com"}`)
	m.Seed(Secret{Name: "tls-cert", CreatedAt: created.Add(72 * time.Hour), ExpireTime: created.AddDate(1, 0, 0)}, "\x30\x82\x01\x0a\x02\x82\x01\x01\x00")
	m.Seed(Secret{Name: "webhook-token", Labels: map[string]string{"env": "staging", "owner": "platform-team-notifications"}}, "whsec_abc")
	m.SetPolicy("api-key", IAMPolicy{Bindings: []Binding{
		{Role: "roles/secretmanager.secretAccessor", Members: []string{"serviceAccount:runner@" + project + ".iam.gserviceaccount.com"}},
		{Role: "roles/secretmanager.admin", Members: []string{"group:platform@example.com", "user:ops@example.com"}},
	}})
	return m
}
