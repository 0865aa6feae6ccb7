package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces environment overrides, e.g. LAZYCLOUD_THEME=mocha.
const EnvPrefix = "LAZYCLOUD"

// DefaultTick is the UI tick interval used when none is configured.
const DefaultTick = 100 * time.Millisecond

// Config is the persisted user configuration (config.yaml).
type Config struct {
	Theme       string              `mapstructure:"theme" yaml:"theme" json:"theme" jsonschema:"enum=vitesse,enum=mocha,default=vitesse,description=Color theme"`
	Tick        string              `mapstructure:"tick_interval" yaml:"tick_interval" json:"tick_interval" jsonschema:"default=100ms,description=UI tick interval (Go duration)"`
	LogLevel    string              `mapstructure:"log_level" yaml:"log_level" json:"log_level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error,default=info"`
	LastContext string              `mapstructure:"last_context" yaml:"last_context,omitempty" json:"last_context,omitempty" jsonschema:"description=Context preselected on startup"`
	Keybindings map[string][]string `mapstructure:"keybindings" yaml:"keybindings,omitempty" json:"keybindings,omitempty" jsonschema:"description=Per-action key overrides, e.g. delete: [x]"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Theme:    "vitesse",
		Tick:     DefaultTick.String(),
		LogLevel: "info",
	}
}

// TickInterval parses Tick, falling back to DefaultTick on empty or invalid values.
func (c Config) TickInterval() time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(c.Tick))
	if err != nil || d <= 0 {
		return DefaultTick
	}
	return d
}

// Load reads config.yaml and applies LAZYCLOUD_* environment overrides.
// A missing file yields Default() and no error.
func Load() (Config, error) {
	p, err := Path()
	if err != nil {
		return Default(), err
	}
	return LoadFile(p)
}

// LoadFile is Load for an explicit path.
func LoadFile(p string) (Config, error) {
	def := Default()
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetDefault("theme", def.Theme)
	v.SetDefault("tick_interval", def.Tick)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("last_context", "")
	v.SetDefault("keybindings", map[string][]string{})
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if _, err := os.Stat(p); err == nil {
		v.SetConfigFile(p)
		if err := v.ReadInConfig(); err != nil {
			return def, fmt.Errorf("read %s: %w", p, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return def, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return def, fmt.Errorf("decode %s: %w", p, err)
	}
	cfg.Theme = strings.ToLower(strings.TrimSpace(cfg.Theme))
	if cfg.Theme == "" {
		cfg.Theme = def.Theme
	}
	return cfg, nil
}

// Save writes cfg to config.yaml, creating the config directory when missing.
func Save(cfg Config) error {
	p, err := Path()
	if err != nil {
		return err
	}
	return SaveFile(p, cfg)
}

// SaveFile is Save for an explicit path.
func SaveFile(p string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(p, b, 0o644)
}

// Schema returns the JSON Schema of config.yaml.
func Schema() *jsonschema.Schema {
	r := jsonschema.Reflector{ExpandedStruct: true}
	sch := r.Reflect(&Config{})
	sch.Title = "lazycloud configuration"
	return sch
}

// MarshalSchema indents the schema to JSON bytes.
func MarshalSchema(sch *jsonschema.Schema) ([]byte, error) {
	return json.MarshalIndent(sch, "", "  ")
}
