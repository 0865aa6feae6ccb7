package secretmanager

import "context"

// Client is the Secret Manager backend of one project. Implementations
// must be safe for concurrent use; every call runs on a command goroutine.
type Client interface {
	// Check verifies the backend is usable at all.
	Check(ctx context.Context) error
	ListSecrets(ctx context.Context) ([]Secret, error)
	GetSecret(ctx context.Context, name string) (Secret, error)
	// CreateSecret creates an automatically replicated secret; a non-nil
	// payload becomes its first version.
	CreateSecret(ctx context.Context, name string, payload []byte) (Secret, error)
	DeleteSecret(ctx context.Context, name string) error
	// UpdateLabels replaces all labels of the secret.
	UpdateLabels(ctx context.Context, name string, labels map[string]string) (Secret, error)
	GetIAMPolicy(ctx context.Context, name string) (IAMPolicy, error)
	ListVersions(ctx context.Context, secret string) ([]Version, error)
	AddVersion(ctx context.Context, secret string, data []byte) (Version, error)
	SetVersionState(ctx context.Context, secret, version string, action VersionAction) error
	// AccessVersion reads a payload; version may be LatestVersion.
	AccessVersion(ctx context.Context, secret, version string) (Payload, error)
}
