// Package config carga la configuración del servicio desde env (y un .env opcional).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port string

	DBDriver string
	DBDSN    string
	// AutoMigrate corre las migraciones al arrancar serve.
	AutoMigrate bool

	AuthBaseURL string
	AuthAPIKey  string
	AuthTimeout time.Duration
	AuthCache   time.Duration

	SearchBaseURL    string
	SearchTimeout    time.Duration
	SearchRatePerSec float64

	DialogTTL   time.Duration
	ResolverTTL time.Duration

	LogLevel  string
	LogFormat string
	AppName   string
	Version   string
}

// envBinding asocia una key de viper con su variable de entorno.
type envBinding struct {
	Key    string
	EnvVar string
	Def    any
}

func bindings() []envBinding {
	return []envBinding{
		{"port", "PORT", "8080"},

		{"db.driver", "DB_DRIVER", "postgres"},
		{"db.dsn", "DB_DSN", ""},
		{"db.automigrate", "DB_AUTOMIGRATE", false},

		{"auth.baseurl", "AUTH_BASE_URL", ""},
		{"auth.apikey", "AUTH_API_KEY", ""},
		{"auth.timeout", "AUTH_TIMEOUT", 5 * time.Second},
		{"auth.cache", "AUTH_CACHE_TTL", time.Minute},

		{"search.baseurl", "SEARCH_BASE_URL", "https://en.wikipedia.org/w/rest.php/v1/search/page"},
		{"search.timeout", "SEARCH_TIMEOUT", 8 * time.Second},
		{"search.ratepersec", "SEARCH_RATE_PER_SEC", 5.0},

		{"dialog.ttl", "DIALOG_TTL", 30 * time.Minute},
		{"profiles.resolverttl", "RESOLVER_TTL", 5 * time.Minute},

		{"log.level", "LOG_LEVEL", "info"},
		{"log.format", "LOG_FORMAT", "text"},
		{"app.name", "APP_NAME", "species-catalog"},
		{"app.version", "APP_VERSION", "dev"},
	}
}

// Load lee el .env (si existe) y las variables de entorno.
// envFiles vacío => ".env". Los archivos que no existen se ignoran.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// godotenv no pisa variables ya definidas.
		if err := godotenv.Load(f); err != nil && !isNotExist(err) {
			return Config{}, fmt.Errorf("config: load %s: %w", f, err)
		}
	}

	v := viper.New()
	for _, b := range bindings() {
		v.SetDefault(b.Key, b.Def)
		if err := v.BindEnv(b.Key, b.EnvVar); err != nil {
			return Config{}, fmt.Errorf("config: bind %s: %w", b.EnvVar, err)
		}
	}

	cfg := Config{
		Port: strings.TrimPrefix(strings.TrimSpace(v.GetString("port")), ":"),

		DBDriver:    v.GetString("db.driver"),
		DBDSN:       strings.TrimSpace(v.GetString("db.dsn")),
		AutoMigrate: v.GetBool("db.automigrate"),

		AuthBaseURL: strings.TrimSpace(v.GetString("auth.baseurl")),
		AuthAPIKey:  strings.TrimSpace(v.GetString("auth.apikey")),
		AuthTimeout: v.GetDuration("auth.timeout"),
		AuthCache:   v.GetDuration("auth.cache"),

		SearchBaseURL:    strings.TrimSpace(v.GetString("search.baseurl")),
		SearchTimeout:    v.GetDuration("search.timeout"),
		SearchRatePerSec: v.GetFloat64("search.ratepersec"),

		DialogTTL:   v.GetDuration("dialog.ttl"),
		ResolverTTL: v.GetDuration("profiles.resolverttl"),

		LogLevel:  v.GetString("log.level"),
		LogFormat: v.GetString("log.format"),
		AppName:   v.GetString("app.name"),
		Version:   v.GetString("app.version"),
	}
	return cfg, nil
}

// Addr es la dirección de escucha del server.
func (c Config) Addr() string {
	return ":" + c.Port
}

// DevMode: sin AUTH_BASE_URL se confía en X-Debug-User-ID.
func (c Config) DevMode() bool {
	return c.AuthBaseURL == ""
}

// Validate falla rápido con todos los problemas juntos.
func (c Config) Validate() error {
	var errs []error

	if c.Port == "" {
		errs = append(errs, errors.New("PORT is required"))
	}
	switch strings.ToLower(strings.TrimSpace(c.DBDriver)) {
	case "postgres", "postgresql", "pgx", "sqlite", "sqlite3":
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER %q is not supported", c.DBDriver))
	}
	if c.AuthBaseURL != "" {
		if err := checkURL(c.AuthBaseURL); err != nil {
			errs = append(errs, fmt.Errorf("AUTH_BASE_URL: %w", err))
		}
		if c.AuthAPIKey == "" {
			errs = append(errs, errors.New("AUTH_API_KEY is required when AUTH_BASE_URL is set"))
		}
	}
	if err := checkURL(c.SearchBaseURL); err != nil {
		errs = append(errs, fmt.Errorf("SEARCH_BASE_URL: %w", err))
	}

	for name, d := range map[string]time.Duration{
		"AUTH_TIMEOUT":   c.AuthTimeout,
		"SEARCH_TIMEOUT": c.SearchTimeout,
		"DIALOG_TTL":     c.DialogTTL,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}
	if c.SearchRatePerSec < 0 {
		errs = append(errs, errors.New("SEARCH_RATE_PER_SEC must not be negative"))
	}

	return errors.Join(errs...)
}

func checkURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
