package secretmanager

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/atotto/clipboard"

	"lazycloud/internal/core"
	"lazycloud/internal/keys"
	"lazycloud/internal/widget"
)

// ServiceID is the registry id of Secret Manager.
var ServiceID = core.ServiceID{Provider: core.ProviderGCP, Service: "secret-manager"}

// Descriptor registers the service. Demo environments get a memory backend.
func Descriptor() core.Descriptor {
	return core.Descriptor{
		ID:          ServiceID,
		Name:        "Secret Manager",
		Description: "Secrets, versions and payloads",
		Icon:        "🔑",
		New: func(ctx core.Context, env core.Env) (core.Service, error) {
			var c Client
			if env.Demo {
				c = DemoClient(ctx.Project)
			} else {
				c = NewGcloudClient(ctx, nil)
			}
			svc, err := NewService(ctx, env, c)
			if err != nil {
				return nil, err
			}
			return svc, nil
		},
	}
}

type (
	update = core.UpdateResult[Msg]
	// Page is a Secret Manager page.
	Page = core.Page[Msg]
)

func idle() update { return core.Idle[Msg]() }

// Service is one Secret Manager session for a context. Caches live only as
// long as the instance.
type Service struct {
	*core.Instance[Msg]

	ctx    core.Context
	client Client
	keys   *keys.Map
	write  func(string) error

	root     *SecretsPage
	secrets  []Secret
	versions map[string][]Version
	payloads map[string]Payload
}

func NewService(ctx core.Context, env core.Env, client Client) (*Service, error) {
	if client == nil {
		return nil, errors.New("secret manager: nil client")
	}
	km := env.Keys
	if km == nil {
		km = keys.Default()
	}
	s := &Service{
		ctx:      ctx,
		client:   client,
		keys:     km,
		write:    clipboard.WriteAll,
		root:     newSecretsPage(km),
		versions: map[string][]Version{},
		payloads: map[string]Payload{},
	}
	inst, err := core.NewInstance(core.Options[Msg]{
		Name:    ServiceID.String() + "@" + ctx.Name,
		Root:    s.root,
		Back:     km.Back,
		Commands: km.Commands,
		Mount:    func() []Msg { return []Msg{Init{}} },
		Unmount:  s.dropCaches,
	})
	if err != nil {
		return nil, err
	}
	s.Instance = inst
	inst.Route(topicLifecycle, s.updateLifecycle)
	inst.Route(topicNav, s.updateNav)
	inst.Route(topicSecrets, s.updateSecrets)
	inst.Route(topicVersions, s.updateVersions)
	inst.Route(topicPayload, s.updatePayload)
	inst.Route(topicMetadata, s.updateMetadata)
	return s, nil
}

// Root returns the secrets page.
func (s *Service) Root() *SecretsPage { return s.root }

func (s *Service) dropCaches() {
	s.secrets = nil
	clear(s.versions)
	clear(s.payloads)
}

func (s *Service) forgetSecret(name string) {
	delete(s.versions, name)
	for k := range s.payloads {
		if strings.HasPrefix(k, name+"/") {
			delete(s.payloads, k)
		}
	}
}

func (s *Service) updateLifecycle(msg Msg) (update, error) {
	switch m := msg.(type) {
	case Init:
		return idle().Spawn(checkCmd(s.client)), nil
	case Ready:
		if m.Err != nil {
			return idle(), core.Fatal(fmt.Errorf("secret manager unavailable for %s: %w", s.ctx.Label(), m.Err))
		}
		return idle().Emit(LoadSecrets{}), nil
	}
	return idle(), fmt.Errorf("unexpected lifecycle message %T", msg)
}

func (s *Service) updateNav(msg Msg) (update, error) {
	km := s.keys
	switch m := msg.(type) {
	case ShowCreate:
		return idle().ShowOverlay(newCreateWizard()), nil
	case ConfirmDeleteSecret:
		prompt := fmt.Sprintf("Delete secret %q and all of its versions? This cannot be undone.", m.Secret.Name)
		return idle().ShowOverlay(widget.NewConfirmDialog[Msg]("Delete secret", prompt, DeleteSecret{Secret: m.Secret}, km)), nil
	case PromptAddVersion:
		field := widget.NewTextField("New value for "+m.Secret.Name, "secret value").Masked()
		return idle().ShowOverlay(widget.NewPromptDialog("Add version", field, func(v string) (Msg, error) {
			if v == "" {
				return nil, errors.New("value must not be empty")
			}
			return AddVersion{Secret: m.Secret, Data: []byte(v)}, nil
		})), nil
	case ConfirmDestroyVersion:
		prompt := fmt.Sprintf("Destroy version %s of %q? Its data is erased permanently.", m.Version.ID, m.Secret.Name)
		dlg := widget.NewConfirmDialog[Msg]("Destroy version", prompt,
			ChangeVersion{Secret: m.Secret, Version: m.Version, Action: ActionDestroy}, km)
		return idle().ShowOverlay(dlg), nil
	case PromptLabels:
		field := widget.NewTextField("Labels for "+m.Secret.Name, "env=prod, team=core").
			WithValue(EditableLabels(m.Secret.Labels)).
			WithHint("comma separated key=value; empty clears all labels")
		return idle().ShowOverlay(widget.NewPromptDialog("Edit labels", field, func(v string) (Msg, error) {
			labels, err := ParseLabels(v)
			if err != nil {
				return nil, err
			}
			return UpdateLabels{Secret: m.Secret, Labels: labels}, nil
		})), nil
	case ShowLabels:
		return idle().Push(newLabelsPage(m.Secret, km)), nil
	case ShowReplication:
		return idle().Push(newReplicationPage(m.Secret, km)), nil
	}
	return idle(), fmt.Errorf("unexpected navigation message %T", msg)
}

func (s *Service) updateSecrets(msg Msg) (update, error) {
	switch m := msg.(type) {
	case LoadSecrets:
		if s.secrets != nil && !m.Force {
			s.root.SetSecrets(s.secrets)
			return idle(), nil
		}
		return idle().Spawn(listSecretsCmd(s.client)), nil
	case SecretsLoaded:
		if m.Err != nil {
			return idle(), fmt.Errorf("list secrets: %w", m.Err)
		}
		s.secrets = m.Secrets
		s.root.SetSecrets(m.Secrets)
		return idle().Notify(fmt.Sprintf("%d secrets in %s", len(m.Secrets), s.ctx.Project)), nil
	case CreateSecret:
		return idle().Spawn(createSecretCmd(s.client, m.Name, m.Payload)), nil
	case SecretCreated:
		if m.Err != nil {
			return idle(), fmt.Errorf("create %s: %w", m.Secret.Name, m.Err)
		}
		s.secrets = nil
		return idle().Notify("created "+m.Secret.Name).Emit(LoadSecrets{Force: true}), nil
	case DeleteSecret:
		return idle().Spawn(deleteSecretCmd(s.client, m.Secret.Name)), nil
	case SecretDeleted:
		if m.Err != nil {
			return idle(), fmt.Errorf("delete %s: %w", m.Name, m.Err)
		}
		s.forgetSecret(m.Name)
		s.secrets = slices.DeleteFunc(slices.Clone(s.secrets), func(x Secret) bool { return x.Name == m.Name })
		s.root.SetSecrets(s.secrets)
		return idle().Notify("deleted "+m.Name).Emit(LoadSecrets{Force: true}), nil
	}
	return idle(), fmt.Errorf("unexpected secrets message %T", msg)
}

func (s *Service) updateVersions(msg Msg) (update, error) {
	switch m := msg.(type) {
	case LoadVersions:
		if vs, ok := s.versions[m.Secret.Name]; ok && !m.Force {
			return s.showVersions(m.Secret, vs), nil
		}
		return idle().Spawn(listVersionsCmd(s.client, m.Secret)), nil
	case VersionsLoaded:
		if m.Err != nil {
			return idle(), fmt.Errorf("list versions of %s: %w", m.Secret.Name, m.Err)
		}
		s.versions[m.Secret.Name] = m.Versions
		return s.showVersions(m.Secret, m.Versions), nil
	case AddVersion:
		return idle().Spawn(addVersionCmd(s.client, m.Secret, m.Data)), nil
	case VersionAdded:
		if m.Err != nil {
			return idle(), fmt.Errorf("add version to %s: %w", m.Secret.Name, m.Err)
		}
		s.forgetSecret(m.Secret.Name)
		return idle().
			Notify(fmt.Sprintf("added version %s to %s", m.Version.ID, m.Secret.Name)).
			Emit(LoadVersions{Secret: m.Secret, Force: true}), nil
	case ChangeVersion:
		return idle().Spawn(changeVersionCmd(s.client, m.Secret, m.Version, m.Action)), nil
	case VersionChanged:
		if m.Err != nil {
			return idle(), fmt.Errorf("%s version %s: %w", m.Action, m.Version.ID, m.Err)
		}
		s.forgetSecret(m.Secret.Name)
		return idle().
			Notify(fmt.Sprintf("version %s %s", m.Version.ID, pastTense(m.Action))).
			Emit(LoadVersions{Secret: m.Secret, Force: true}), nil
	}
	return idle(), fmt.Errorf("unexpected versions message %T", msg)
}

// showVersions refreshes the visible versions page of the same secret in
// place, or pushes a new one.
func (s *Service) showVersions(sec Secret, vs []Version) update {
	if p, ok := s.Top().(*VersionsPage); ok && p.Secret().Name == sec.Name {
		p.SetVersions(vs)
		return idle()
	}
	if s.Top() != Page(s.root) {
		// a stale result for a page the user has left
		return idle()
	}
	return idle().Push(newVersionsPage(sec, vs, s.keys))
}

func pastTense(a VersionAction) string {
	switch a {
	case ActionEnable:
		return "enabled"
	case ActionDisable:
		return "disabled"
	case ActionDestroy:
		return "destroyed"
	}
	return string(a)
}

func (s *Service) updatePayload(msg Msg) (update, error) {
	switch m := msg.(type) {
	case LoadPayload:
		if p, ok := s.payloads[payloadKey(m.Secret.Name, m.Version)]; ok && !m.Force {
			return s.showPayload(m.Secret, m.Version, p), nil
		}
		return idle().Spawn(accessCmd(s.client, m.Secret, m.Version)), nil
	case PayloadLoaded:
		if m.Err != nil {
			return idle(), fmt.Errorf("access %s/%s: %w", m.Secret.Name, m.Version, m.Err)
		}
		s.payloads[payloadKey(m.Secret.Name, m.Version)] = m.Payload
		return s.showPayload(m.Secret, m.Version, m.Payload), nil
	case CopyPayload:
		var cached *Payload
		if p, ok := s.payloads[payloadKey(m.Secret.Name, m.Version)]; ok {
			cached = &p
		}
		return idle().Spawn(copyCmd(s.client, s.write, m.Secret, m.Version, cached)), nil
	case PayloadCopied:
		if m.Err != nil {
			return idle(), fmt.Errorf("copy %s/%s: %w", m.Secret.Name, m.Version, m.Err)
		}
		return idle().Notify(fmt.Sprintf("copied %s (%s) to clipboard", m.Secret.Name, versionLabel(m.Version))), nil
	}
	return idle(), fmt.Errorf("unexpected payload message %T", msg)
}

func (s *Service) showPayload(sec Secret, version string, p Payload) update {
	key := payloadKey(sec.Name, version)
	switch top := s.Top().(type) {
	case *PayloadPage:
		if top.Key() == key {
			top.SetPayload(p)
			return idle()
		}
	case *SecretsPage:
	case *VersionsPage:
		if top.Secret().Name != sec.Name {
			return idle()
		}
	default:
		return idle()
	}
	return idle().Push(newPayloadPage(sec, version, p, s.keys))
}

func (s *Service) updateMetadata(msg Msg) (update, error) {
	switch m := msg.(type) {
	case UpdateLabels:
		return idle().Spawn(updateLabelsCmd(s.client, m.Secret, m.Labels)), nil
	case LabelsUpdated:
		if m.Err != nil {
			return idle(), fmt.Errorf("update labels of %s: %w", m.Secret.Name, m.Err)
		}
		s.replaceSecret(m.Secret)
		if p, ok := s.Top().(*LabelsPage); ok && p.Secret().Name == m.Secret.Name {
			p.SetSecret(m.Secret)
		}
		return idle().Notify("updated labels of " + m.Secret.Name), nil
	case LoadIAM:
		return idle().Spawn(iamCmd(s.client, m.Secret)), nil
	case IAMLoaded:
		if m.Err != nil {
			return idle(), fmt.Errorf("iam policy of %s: %w", m.Secret.Name, m.Err)
		}
		switch top := s.Top().(type) {
		case *IAMPage:
			if top.Secret().Name == m.Secret.Name {
				top.SetPolicy(m.Policy)
			}
			return idle(), nil
		case *SecretsPage:
			return idle().Push(newIAMPage(m.Secret, m.Policy, s.keys)), nil
		}
		return idle(), nil
	case LoadReplication:
		return idle().Spawn(describeCmd(s.client, m.Secret)), nil
	case ReplicationLoaded:
		if m.Err != nil {
			return idle(), fmt.Errorf("describe %s: %w", m.Secret.Name, m.Err)
		}
		s.replaceSecret(m.Secret)
		if p, ok := s.Top().(*ReplicationPage); ok && p.Secret().Name == m.Secret.Name {
			p.SetSecret(m.Secret)
		}
		return idle(), nil
	}
	return idle(), fmt.Errorf("unexpected metadata message %T", msg)
}

// replaceSecret updates the cached copy of sec and the secrets table.
func (s *Service) replaceSecret(sec Secret) {
	i := slices.IndexFunc(s.secrets, func(x Secret) bool { return x.Name == sec.Name })
	if i < 0 {
		return
	}
	s.secrets = slices.Clone(s.secrets)
	s.secrets[i] = sec
	s.root.SetSecrets(s.secrets)
}
