package secretmanager

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path"
	"strings"
	"time"

	"lazycloud/internal/core"
	"lazycloud/internal/system"
)

// CallTimeout bounds every gcloud invocation.
const CallTimeout = 30 * time.Second

var ErrGcloudMissing = errors.New("gcloud CLI not found on PATH")

// Runner executes the gcloud CLI with args, feeding stdin, and returns stdout.
type Runner func(ctx context.Context, stdin []byte, args ...string) ([]byte, error)

// ExecRunner runs the binary found on PATH.
func ExecRunner(bin string) Runner {
	return func(ctx context.Context, stdin []byte, args ...string) ([]byte, error) {
		cmd := exec.CommandContext(ctx, bin, args...)
		cmd.Env = append(os.Environ(), "NO_COLOR=1", "CLOUDSDK_CORE_DISABLE_PROMPTS=1")
		if stdin != nil {
			cmd.Stdin = bytes.NewReader(stdin)
		}
		var stderr bytes.Buffer
		cmd.Stderr = &stderr
		out, err := cmd.Output()
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("gcloud %s: timed out", args[0])
		}
		if err != nil {
			msg := strings.TrimSpace(stderr.String())
			if i := strings.LastIndex(msg, "\n"); i >= 0 {
				msg = msg[i+1:]
			}
			if msg == "" {
				return nil, err
			}
			return nil, fmt.Errorf("gcloud: %s", strings.TrimPrefix(msg, "ERROR: "))
		}
		return out, nil
	}
}

// GcloudClient talks to Secret Manager through the gcloud CLI.
type GcloudClient struct {
	project string
	account string
	run     Runner
	look    func(string) (string, error)
}

// NewGcloudClient returns a client for the project of c. A nil run uses
// the gcloud binary on PATH.
func NewGcloudClient(c core.Context, run Runner) *GcloudClient {
	g := &GcloudClient{project: c.Project, account: c.Account, run: run, look: exec.LookPath}
	if run == nil {
		g.run = ExecRunner("gcloud")
	} else {
		g.look = func(string) (string, error) { return "gcloud", nil }
	}
	return g
}

func (g *GcloudClient) call(ctx context.Context, stdin []byte, out any, args ...string) error {
	ctx, cancel := context.WithTimeout(ctx, CallTimeout)
	defer cancel()
	args = append(args, "--project="+g.project, "--format=json")
	if g.account != "" {
		args = append(args, "--account="+g.account)
	}
	start := time.Now()
	raw, err := g.run(ctx, stdin, args...)
	system.Logger.Debug("gcloud", "args", strings.Join(args[:min(len(args), 4)], " "), "took", time.Since(start), "err", err)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode gcloud output: %w", err)
	}
	return nil
}

type secretJSON struct {
	Name        string            `json:"name"`
	CreateTime  string            `json:"createTime"`
	ExpireTime  string            `json:"expireTime"`
	Labels      map[string]string `json:"labels"`
	Replication struct {
		Automatic   *struct{} `json:"automatic"`
		UserManaged *struct {
			Replicas []struct {
				Location string `json:"location"`
			} `json:"replicas"`
		} `json:"userManaged"`
	} `json:"replication"`
}

func (j secretJSON) secret() Secret {
	s := Secret{
		Name:       path.Base(j.Name),
		CreatedAt:  parseTime(j.CreateTime),
		ExpireTime: parseTime(j.ExpireTime),
		Labels:     j.Labels,
	}
	if j.Replication.Automatic != nil {
		s.Replication.Automatic = true
	}
	if um := j.Replication.UserManaged; um != nil {
		for _, r := range um.Replicas {
			s.Replication.Locations = append(s.Replication.Locations, r.Location)
		}
	}
	return s
}

type versionJSON struct {
	Name       string `json:"name"`
	CreateTime string `json:"createTime"`
	State      string `json:"state"`
}

func (j versionJSON) version() Version {
	return Version{ID: path.Base(j.Name), State: VersionState(j.State), CreatedAt: parseTime(j.CreateTime)}
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (g *GcloudClient) Check(ctx context.Context) error {
	if _, err := g.look("gcloud"); err != nil {
		return ErrGcloudMissing
	}
	if g.project == "" {
		return errors.New("context has no project")
	}
	return nil
}

func (g *GcloudClient) ListSecrets(ctx context.Context) ([]Secret, error) {
	var raw []secretJSON
	if err := g.call(ctx, nil, &raw, "secrets", "list"); err != nil {
		return nil, err
	}
	out := make([]Secret, 0, len(raw))
	for _, j := range raw {
		out = append(out, j.secret())
	}
	return out, nil
}

func (g *GcloudClient) GetSecret(ctx context.Context, name string) (Secret, error) {
	var raw secretJSON
	if err := g.call(ctx, nil, &raw, "secrets", "describe", name); err != nil {
		return Secret{}, err
	}
	return raw.secret(), nil
}

func (g *GcloudClient) CreateSecret(ctx context.Context, name string, payload []byte) (Secret, error) {
	args := []string{"secrets", "create", name, "--replication-policy=automatic"}
	if payload != nil {
		args = append(args, "--data-file=-")
	}
	var raw secretJSON
	if err := g.call(ctx, payload, &raw, args...); err != nil {
		return Secret{}, err
	}
	return raw.secret(), nil
}

func (g *GcloudClient) DeleteSecret(ctx context.Context, name string) error {
	return g.call(ctx, nil, nil, "secrets", "delete", name, "--quiet")
}

func (g *GcloudClient) UpdateLabels(ctx context.Context, name string, labels map[string]string) (Secret, error) {
	args := []string{"secrets", "update", name, "--clear-labels"}
	if len(labels) > 0 {
		args = append(args, "--update-labels="+strings.ReplaceAll(EditableLabels(labels), ", ", ","))
	}
	var raw secretJSON
	if err := g.call(ctx, nil, &raw, args...); err != nil {
		return Secret{}, err
	}
	return raw.secret(), nil
}

func (g *GcloudClient) GetIAMPolicy(ctx context.Context, name string) (IAMPolicy, error) {
	var raw struct {
		Bindings []struct {
			Role    string   `json:"role"`
			Members []string `json:"members"`
		} `json:"bindings"`
		Etag string `json:"etag"`
	}
	if err := g.call(ctx, nil, &raw, "secrets", "get-iam-policy", name); err != nil {
		return IAMPolicy{}, err
	}
	p := IAMPolicy{Etag: raw.Etag}
	for _, b := range raw.Bindings {
		p.Bindings = append(p.Bindings, Binding{Role: b.Role, Members: b.Members})
	}
	return p, nil
}

func (g *GcloudClient) ListVersions(ctx context.Context, secret string) ([]Version, error) {
	var raw []versionJSON
	if err := g.call(ctx, nil, &raw, "secrets", "versions", "list", secret); err != nil {
		return nil, err
	}
	out := make([]Version, 0, len(raw))
	for _, j := range raw {
		out = append(out, j.version())
	}
	return out, nil
}

func (g *GcloudClient) AddVersion(ctx context.Context, secret string, data []byte) (Version, error) {
	var raw versionJSON
	if err := g.call(ctx, data, &raw, "secrets", "versions", "add", secret, "--data-file=-"); err != nil {
		return Version{}, err
	}
	return raw.version(), nil
}

func (g *GcloudClient) SetVersionState(ctx context.Context, secret, version string, action VersionAction) error {
	switch action {
	case ActionEnable, ActionDisable, ActionDestroy:
	default:
		return fmt.Errorf("unknown version action %q", action)
	}
	return g.call(ctx, nil, nil, "secrets", "versions", string(action), version, "--secret="+secret, "--quiet")
}

func (g *GcloudClient) AccessVersion(ctx context.Context, secret, version string) (Payload, error) {
	var raw struct {
		Payload struct {
			Data string `json:"data"`
		} `json:"payload"`
	}
	if err := g.call(ctx, nil, &raw, "secrets", "versions", "access", version, "--secret="+secret); err != nil {
		return Payload{}, err
	}
	data, err := decodePayload(raw.Payload.Data)
	if err != nil {
		return Payload{}, fmt.Errorf("decode payload of %s/%s: %w", secret, version, err)
	}
	return Payload{Data: data}, nil
}

func decodePayload(s string) ([]byte, error) {
	if data, err := base64.StdEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	return base64.URLEncoding.DecodeString(s)
}
