package gcp

import (
	"lazycloud/internal/core"
	"lazycloud/internal/provider/gcp/secretmanager"
)

// Services returns the registry descriptors of every GCP service.
func Services() []core.Descriptor {
	return []core.Descriptor{
		secretmanager.Descriptor(),
	}
}
