// Package config resolves the server configuration once at startup.
//
// Sources, later ones overriding earlier ones:
//  1. Defaults
//  2. YAML file (optional)
//  3. Deployment variables SECRET_KEY, PORT, NODE_ENV, DATABASE_URL, CORS_ORIGINS
//  4. STOCKS_* variables, e.g. STOCKS_HTTP_READ_TIMEOUT -> http.read_timeout
package config

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Virag-Koradiya/unlisted-stocks/auth"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
	EnvTest        = "test"

	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

var (
	ErrMissingSecret   = errors.New("config: auth.secret (SECRET_KEY) is required")
	ErrUnknownEnv      = errors.New("config: env must be production, development or test")
	ErrUnknownSameSite = errors.New("config: cookie.same_site must be none, lax or strict")
	ErrUnknownDriver   = errors.New("config: database.driver must be postgres or memory")
	ErrMissingDSN      = errors.New("config: database.dsn is required for the postgres driver")
	ErrBcryptCost      = errors.New("config: auth.bcrypt_cost is out of range")
)

type Config struct {
	Env      string         `koanf:"env"`
	HTTP     HTTPConfig     `koanf:"http"`
	Auth     AuthConfig     `koanf:"auth"`
	Cookie   CookieConfig   `koanf:"cookie"`
	Database DatabaseConfig `koanf:"database"`
	Log      LogConfig      `koanf:"log"`
}

type HTTPConfig struct {
	Address         string        `koanf:"address"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

type AuthConfig struct {
	Secret     string `koanf:"secret"`
	BcryptCost int    `koanf:"bcrypt_cost"`
}

// CookieConfig overrides the environment-derived cookie policy. Empty
// SameSite and nil Secure keep the defaults.
type CookieConfig struct {
	Name     string `koanf:"name"`
	SameSite string `koanf:"same_site"`
	Secure   *bool  `koanf:"secure"`
}

type DatabaseConfig struct {
	Driver          string        `koanf:"driver"`
	DSN             string        `koanf:"dsn"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnectRetries  uint64        `koanf:"connect_retries"`
	Migrate         bool          `koanf:"migrate"`
}

type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// DefaultCORSOrigins is the local front end dev server.
func DefaultCORSOrigins() []string {
	return []string{"http://localhost:5173"}
}

// Default returns the configuration used for every key no source sets.
func Default() Config {
	return Config{
		Env: EnvDevelopment,
		HTTP: HTTPConfig{
			Address:         ":8000",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Auth: AuthConfig{
			BcryptCost: auth.DefaultBcryptCost,
		},
		Cookie: CookieConfig{
			Name: auth.DefaultCookieName,
		},
		Database: DatabaseConfig{
			Driver:          DriverMemory,
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			ConnectRetries:  5,
			Migrate:         true,
		},
		Log: LogConfig{
			Format: "json",
			Level:  "info",
		},
	}
}

func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Validate reports the first setting the server cannot start with.
func (c Config) Validate() error {
	switch c.Env {
	case EnvProduction, EnvDevelopment, EnvTest:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEnv, c.Env)
	}
	if strings.TrimSpace(c.Auth.Secret) == "" {
		return ErrMissingSecret
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("%w: %d", ErrBcryptCost, c.Auth.BcryptCost)
	}
	if _, err := parseSameSite(c.Cookie.SameSite); err != nil {
		return err
	}
	switch c.Database.Driver {
	case DriverMemory:
	case DriverPostgres:
		if strings.TrimSpace(c.Database.DSN) == "" {
			return ErrMissingDSN
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.Database.Driver)
	}
	return nil
}

// CookiePolicy derives the session cookie attributes: Secure and
// SameSite=None in production, Lax otherwise, then applies overrides.
func (c Config) CookiePolicy() auth.CookiePolicy {
	policy := auth.CookiePolicyFor(c.IsProduction())
	if name := strings.TrimSpace(c.Cookie.Name); name != "" {
		policy.Name = name
	}
	if mode, err := parseSameSite(c.Cookie.SameSite); err == nil && mode != 0 {
		policy.SameSite = mode
	}
	if c.Cookie.Secure != nil {
		policy.Secure = *c.Cookie.Secure
	}
	return policy
}

// parseSameSite returns 0 for an empty value.
func parseSameSite(v string) (http.SameSite, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "":
		return 0, nil
	case "none":
		return http.SameSiteNoneMode, nil
	case "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownSameSite, v)
	}
}
