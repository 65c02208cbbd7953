// Package config loads service configuration from defaults, an optional
// YAML file, command-line flags, and environment variables. Operational
// settings (addresses, timeouts, log format) come from the file and flags;
// secrets only ever come from the environment.
package config

import (
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Config holds the operational settings for the service.
type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Observability ObservabilityConfig `koanf:"observability"`
	Log           LogConfig           `koanf:"log"`
	Mail          MailConfig          `koanf:"mail"`
	Token         TokenConfig         `koanf:"token"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Addr    string `koanf:"addr"`
	BaseURL string `koanf:"base_url"`
}

// ObservabilityConfig configures the metrics and health endpoint server.
type ObservabilityConfig struct {
	Addr string `koanf:"addr"`
}

// LogConfig configures structured logging output.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// MailConfig configures the outbound SMTP connection. Credentials live in
// Secrets, not here.
type MailConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

// TokenConfig configures token lifetimes.
type TokenConfig struct {
	AccessTTL       time.Duration `koanf:"access_ttl"`
	VerificationTTL time.Duration `koanf:"verification_ttl"`
}

// Default returns the configuration used when no file or flags override it.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:    ":8000",
			BaseURL: "http://localhost:8000",
		},
		Observability: ObservabilityConfig{
			Addr: ":9090",
		},
		Log: LogConfig{
			Format: "json",
			Level:  "info",
		},
		Mail: MailConfig{
			Port: 587,
		},
		Token: TokenConfig{
			AccessTTL:       30 * time.Minute,
			VerificationTTL: time.Hour,
		},
	}
}

// Load merges configuration sources in order of increasing precedence:
// built-in defaults, the YAML file at path (if non-empty), then any flags
// the user set. A missing file is an error; pass an empty path to skip it.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	cfg := Default()

	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, oops.Code("CONFIG_INVALID").
				With("path", path).
				Wrapf(err, "loading config file")
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return Config{}, oops.Code("CONFIG_INVALID").Wrapf(err, "loading flags")
		}
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, oops.Code("CONFIG_INVALID").Wrapf(err, "unmarshaling config")
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Server.Addr == "" {
		return oops.Code("CONFIG_INVALID").Errorf("server.addr must not be empty")
	}
	if c.Server.BaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("server.base_url must not be empty")
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return oops.Code("CONFIG_INVALID").
			With("format", c.Log.Format).
			Errorf("log.format must be json or text")
	}
	if c.Token.AccessTTL <= 0 || c.Token.VerificationTTL <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("token lifetimes must be positive")
	}
	return nil
}

// Secrets holds values that must never appear in config files. All of them
// are read from the environment; the required ones abort startup when unset.
type Secrets struct {
	SecretKey        string `env:"SECRET_KEY,required,notEmpty"`
	VerificationSalt string `env:"SECURITY_PASSWORD_SALT,required,notEmpty"`
	DatabaseURL      string `env:"DATABASE_URL,required,notEmpty"`
	MailUsername     string `env:"MAIL_USERNAME"`
	MailPassword     string `env:"MAIL_PASSWORD"`
}

// LoadSecrets reads Secrets from the process environment.
func LoadSecrets() (Secrets, error) {
	var s Secrets
	if err := env.Parse(&s); err != nil {
		return Secrets{}, oops.Code("CONFIG_INVALID").Wrapf(err, "parsing environment")
	}
	return s, nil
}

// FileExists reports whether path names an existing regular file. The serve
// command uses it to decide whether the default config path applies.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}
