package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultEnvPrefix is the prefix of variables mapped onto config keys.
const DefaultEnvPrefix = "STOCKS_"

// Loader loads configuration from multiple sources.
type Loader struct {
	k         *koanf.Koanf
	envPrefix string
	filePath  string
}

// Option is a function that configures the Loader.
type Option func(*Loader)

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) {
		if prefix != "" {
			l.envPrefix = prefix
		}
	}
}

// WithConfigFile sets the YAML file path. An empty path loads no file.
func WithConfigFile(path string) Option {
	return func(l *Loader) {
		l.filePath = path
	}
}

func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		k:         koanf.New("."),
		envPrefix: DefaultEnvPrefix,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Load resolves and validates the configuration.
func Load(opts ...Option) (Config, error) {
	return NewLoader(opts...).Load()
}

func (l *Loader) Load() (Config, error) {
	if l.filePath != "" {
		if err := l.k.Load(file.Provider(l.filePath), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", l.filePath, err)
		}
	}
	if err := l.k.Load(env.ProviderWithValue("", ".", l.deploymentVar), nil); err != nil {
		return Config{}, fmt.Errorf("load deployment env: %w", err)
	}
	if err := l.k.Load(env.ProviderWithValue(l.envPrefix, ".", l.prefixedVar), nil); err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}

	cfg := Default()
	if err := l.k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	if len(cfg.HTTP.CORSOrigins) == 0 {
		cfg.HTTP.CORSOrigins = DefaultCORSOrigins()
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// prefixedVar maps STOCKS_SECTION_SOME_KEY to section.some_key. Only the
// first underscore after the prefix separates the section.
func (l *Loader) prefixedVar(key, value string) (string, any) {
	key = strings.ToLower(strings.TrimPrefix(key, l.envPrefix))
	key = strings.Replace(key, "_", ".", 1)
	if key == "http.cors_origins" {
		return key, splitList(value)
	}
	return key, value
}

// deploymentVar accepts the bare variables the service was historically
// deployed with. Everything else is skipped.
func (l *Loader) deploymentVar(key, value string) (string, any) {
	if strings.TrimSpace(value) == "" {
		return "", nil
	}
	switch key {
	case "SECRET_KEY":
		return "auth.secret", value
	case "PORT":
		return "http.address", ":" + strings.TrimSpace(value)
	case "NODE_ENV":
		return "env", value
	case "DATABASE_URL":
		return "database.dsn", value
	case "CORS_ORIGINS":
		return "http.cors_origins", splitList(value)
	default:
		return "", nil
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
