package secretmanager

import "lazycloud/internal/core"

// Msg is a Secret Manager service message.
type Msg interface {
	core.Message
}

const (
	topicLifecycle = "lifecycle"
	topicNav       = "nav"
	topicSecrets   = "secrets"
	topicVersions  = "versions"
	topicPayload   = "payload"
	topicMetadata  = "metadata"
)

type lifecycleMsg struct{}

func (lifecycleMsg) Topic() string { return topicLifecycle }

type navMsg struct{}

func (navMsg) Topic() string { return topicNav }

type secretsMsg struct{}

func (secretsMsg) Topic() string { return topicSecrets }

type versionsMsg struct{}

func (versionsMsg) Topic() string { return topicVersions }

type payloadMsg struct{}

func (payloadMsg) Topic() string { return topicPayload }

type metadataMsg struct{}

func (metadataMsg) Topic() string { return topicMetadata }

// lifecycle

type Init struct{ lifecycleMsg }

type Ready struct {
	lifecycleMsg
	Err error
}

// navigation and dialogs

type ShowCreate struct{ navMsg }

type ConfirmDeleteSecret struct {
	navMsg
	Secret Secret
}

type PromptAddVersion struct {
	navMsg
	Secret Secret
}

type ConfirmDestroyVersion struct {
	navMsg
	Secret  Secret
	Version Version
}

type PromptLabels struct {
	navMsg
	Secret Secret
}

type ShowLabels struct {
	navMsg
	Secret Secret
}

type ShowReplication struct {
	navMsg
	Secret Secret
}

// secrets

type LoadSecrets struct {
	secretsMsg
	Force bool
}

type SecretsLoaded struct {
	secretsMsg
	Secrets []Secret
	Err     error
}

// CreateSecret creates a secret; Payload, when non-nil, becomes version 1.
type CreateSecret struct {
	secretsMsg
	Name    string
	Payload []byte
}

type SecretCreated struct {
	secretsMsg
	Secret Secret
	Err    error
}

type DeleteSecret struct {
	secretsMsg
	Secret Secret
}

type SecretDeleted struct {
	secretsMsg
	Name string
	Err  error
}

// versions

type LoadVersions struct {
	versionsMsg
	Secret Secret
	Force  bool
}

type VersionsLoaded struct {
	versionsMsg
	Secret   Secret
	Versions []Version
	Err      error
}

type AddVersion struct {
	versionsMsg
	Secret Secret
	Data   []byte
}

type VersionAdded struct {
	versionsMsg
	Secret  Secret
	Version Version
	Err     error
}

type ChangeVersion struct {
	versionsMsg
	Secret  Secret
	Version Version
	Action  VersionAction
}

type VersionChanged struct {
	versionsMsg
	Secret  Secret
	Version Version
	Action  VersionAction
	Err     error
}

// payloads

type LoadPayload struct {
	payloadMsg
	Secret  Secret
	Version string
	Force   bool
}

type PayloadLoaded struct {
	payloadMsg
	Secret  Secret
	Version string
	Payload Payload
	Err     error
}

type CopyPayload struct {
	payloadMsg
	Secret  Secret
	Version string
}

type PayloadCopied struct {
	payloadMsg
	Secret  Secret
	Version string
	Err     error
}

// metadata

type UpdateLabels struct {
	metadataMsg
	Secret Secret
	Labels map[string]string
}

type LabelsUpdated struct {
	metadataMsg
	Secret Secret
	Err    error
}

type LoadIAM struct {
	metadataMsg
	Secret Secret
}

type IAMLoaded struct {
	metadataMsg
	Secret Secret
	Policy IAMPolicy
	Err    error
}

type LoadReplication struct {
	metadataMsg
	Secret Secret
}

type ReplicationLoaded struct {
	metadataMsg
	Secret Secret
	Err    error
}

// Failure reports the error carried by a result, for the command history.

func (m Ready) Failure() error             { return m.Err }
func (m SecretsLoaded) Failure() error     { return m.Err }
func (m SecretCreated) Failure() error     { return m.Err }
func (m SecretDeleted) Failure() error     { return m.Err }
func (m VersionsLoaded) Failure() error    { return m.Err }
func (m VersionAdded) Failure() error      { return m.Err }
func (m VersionChanged) Failure() error    { return m.Err }
func (m PayloadLoaded) Failure() error     { return m.Err }
func (m PayloadCopied) Failure() error     { return m.Err }
func (m LabelsUpdated) Failure() error     { return m.Err }
func (m IAMLoaded) Failure() error         { return m.Err }
func (m ReplicationLoaded) Failure() error { return m.Err }
