package secretmanager

import (
	"context"

	"lazycloud/internal/core"
)

type command = core.Command[Msg]

func checkCmd(c Client) command {
	return core.NewCommand("check", func(ctx context.Context) Msg {
		return Ready{Err: c.Check(ctx)}
	})
}

func listSecretsCmd(c Client) command {
	return core.NewCommand("list secrets", func(ctx context.Context) Msg {
		secrets, err := c.ListSecrets(ctx)
		return SecretsLoaded{Secrets: secrets, Err: err}
	})
}

func createSecretCmd(c Client, name string, payload []byte) command {
	return core.NewCommand("create "+name, func(ctx context.Context) Msg {
		s, err := c.CreateSecret(ctx, name, payload)
		if s.Name == "" {
			s.Name = name
		}
		return SecretCreated{Secret: s, Err: err}
	})
}

func deleteSecretCmd(c Client, name string) command {
	return core.NewCommand("delete "+name, func(ctx context.Context) Msg {
		return SecretDeleted{Name: name, Err: c.DeleteSecret(ctx, name)}
	})
}

func listVersionsCmd(c Client, s Secret) command {
	return core.NewCommand("list versions of "+s.Name, func(ctx context.Context) Msg {
		vs, err := c.ListVersions(ctx, s.Name)
		return VersionsLoaded{Secret: s, Versions: vs, Err: err}
	})
}

func addVersionCmd(c Client, s Secret, data []byte) command {
	return core.NewCommand("add version to "+s.Name, func(ctx context.Context) Msg {
		v, err := c.AddVersion(ctx, s.Name, data)
		return VersionAdded{Secret: s, Version: v, Err: err}
	})
}

func changeVersionCmd(c Client, s Secret, v Version, action VersionAction) command {
	return core.NewCommand(string(action)+" "+s.Name+"/"+v.ID, func(ctx context.Context) Msg {
		err := c.SetVersionState(ctx, s.Name, v.ID, action)
		return VersionChanged{Secret: s, Version: v, Action: action, Err: err}
	})
}

func accessCmd(c Client, s Secret, version string) command {
	return core.NewCommand("access "+s.Name+"/"+version, func(ctx context.Context) Msg {
		p, err := c.AccessVersion(ctx, s.Name, version)
		return PayloadLoaded{Secret: s, Version: version, Payload: p, Err: err}
	})
}

// copyCmd writes the payload to the clipboard, reading it first when it is
// not cached.
func copyCmd(c Client, write func(string) error, s Secret, version string, cached *Payload) command {
	return core.NewCommand("copy "+s.Name+"/"+version, func(ctx context.Context) Msg {
		var p Payload
		if cached != nil {
			p = *cached
		} else {
			var err error
			if p, err = c.AccessVersion(ctx, s.Name, version); err != nil {
				return PayloadCopied{Secret: s, Version: version, Err: err}
			}
		}
		return PayloadCopied{Secret: s, Version: version, Err: write(string(p.Data))}
	})
}

func updateLabelsCmd(c Client, s Secret, labels map[string]string) command {
	return core.NewCommand("label "+s.Name, func(ctx context.Context) Msg {
		updated, err := c.UpdateLabels(ctx, s.Name, labels)
		if err != nil {
			updated = s
		}
		return LabelsUpdated{Secret: updated, Err: err}
	})
}

func iamCmd(c Client, s Secret) command {
	return core.NewCommand("iam policy of "+s.Name, func(ctx context.Context) Msg {
		p, err := c.GetIAMPolicy(ctx, s.Name)
		return IAMLoaded{Secret: s, Policy: p, Err: err}
	})
}

func describeCmd(c Client, s Secret) command {
	return core.NewCommand("describe "+s.Name, func(ctx context.Context) Msg {
		fresh, err := c.GetSecret(ctx, s.Name)
		if err != nil {
			fresh = s
		}
		return ReplicationLoaded{Secret: fresh, Err: err}
	})
}
