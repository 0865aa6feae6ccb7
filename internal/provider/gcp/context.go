// Package gcp discovers Google Cloud contexts from the gcloud CLI
// configuration and registers the GCP services.
package gcp

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"gopkg.in/ini.v1"

	"lazycloud/internal/core"
)

// ConfigDir returns the gcloud configuration root, honouring
// CLOUDSDK_CONFIG like the gcloud CLI does.
func ConfigDir() (string, error) {
	if d := strings.TrimSpace(os.Getenv("CLOUDSDK_CONFIG")); d != "" {
		return d, nil
	}
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "gcloud"), nil
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine gcloud config dir: %w", err)
	}
	return filepath.Join(home, ".config", "gcloud"), nil
}

// ConfigurationsDir is where gcloud keeps one config_<name> file per
// named configuration.
func ConfigurationsDir(root string) string {
	return filepath.Join(root, "configurations")
}

// Discover reads every gcloud named configuration under root. Files that
// cannot be read or lack a project are skipped; a missing directory
// yields no contexts and no error.
func Discover(root string) ([]core.Context, error) {
	dir := ConfigurationsDir(root)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []core.Context
	for _, e := range entries {
		name, ok := strings.CutPrefix(e.Name(), "config_")
		if !ok || e.IsDir() || name == "" {
			continue
		}
		file, err := ini.LoadSources(ini.LoadOptions{Insensitive: true}, filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		ctx, ok := contextFrom(name, file)
		if !ok {
			continue
		}
		if ctx.Account != "" {
			adc := filepath.Join(root, "legacy_credentials", ctx.Account, "adc.json")
			if _, err := os.Stat(adc); err == nil {
				ctx.CredentialsPath = adc
			}
		}
		out = append(out, ctx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func contextFrom(name string, file *ini.File) (core.Context, bool) {
	coreSec, compute := file.Section("core"), file.Section("compute")
	project := coreSec.Key("project").String()
	if project == "" {
		return core.Context{}, false
	}
	region := compute.Key("region").String()
	if region == "" {
		// a zone such as europe-west1-b implies its region
		if zone := compute.Key("zone").String(); strings.Count(zone, "-") >= 2 {
			region = zone[:strings.LastIndex(zone, "-")]
		}
	}
	return core.Context{
		Provider: core.ProviderGCP,
		Name:     name,
		Project:  project,
		Account:  coreSec.Key("account").String(),
		Region:   region,
	}, true
}

// DemoContexts returns fixed contexts used with --demo.
func DemoContexts() []core.Context {
	return []core.Context{
		{Provider: core.ProviderGCP, Name: "proj-a", Project: "proj-a", Account: "dev@example.com", Region: "europe-west1"},
		{Provider: core.ProviderGCP, Name: "proj-b", Project: "proj-b", Account: "ops@example.com", Region: "us-central1"},
	}
}
