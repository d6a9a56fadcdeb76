// Package config loads client settings from the environment and an optional
// .notes.yaml file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	keyGatewayURL  = "gateway_url"
	keyGatewayKey  = "gateway_key"
	keyRedirectURL = "redirect_url"
	keySessionPath = "session_path"
	keyLogPath     = "log_path"
	keyTimeout     = "timeout"
)

// ErrMissingSetting is returned by Validate when a required setting is unset.
var ErrMissingSetting = errors.New("config: missing required setting")

// aliases are accepted for settings commonly exported for hosted backends.
var aliases = map[string][]string{
	keyGatewayURL: {"SUPABASE_URL"},
	keyGatewayKey: {"SUPABASE_KEY", "SUPABASE_ANON_KEY"},
}

// Config holds everything the client needs to reach its backend.
type Config struct {
	GatewayURL  string
	GatewayKey  string
	RedirectURL string
	SessionDir  string
	LogPath     string
	Timeout     time.Duration
}

// SessionPath implements store.Config.
func (c *Config) SessionPath() string {
	return c.SessionDir
}

// flagKeys maps command-line flags onto settings.
var flagKeys = map[string]string{
	"gateway-url":  keyGatewayURL,
	"gateway-key":  keyGatewayKey,
	"session-path": keySessionPath,
	"log-path":     keyLogPath,
}

// AddFlags registers the flags that override settings. Pass the result of
// cmd.PersistentFlags() to make them available on every subcommand.
func AddFlags(fs *pflag.FlagSet) {
	fs.String("gateway-url", "", "Backend endpoint. Overrides "+EnvName(keyGatewayURL)+".")
	fs.String("gateway-key", "", "Backend access key. Overrides "+EnvName(keyGatewayKey)+".")
	fs.String("session-path", "", "Directory holding the stored session.")
	fs.String("log-path", "", "File the UI writes logs to.")
}

// Option customises Load.
type Option func(*viper.Viper) error

// WithFlags lets flags registered by AddFlags override the environment and
// config file. Flags that were not set are ignored.
func WithFlags(fs *pflag.FlagSet) Option {
	return func(v *viper.Viper) error {
		if fs == nil {
			return nil
		}
		for name, key := range flagKeys {
			f := fs.Lookup(name)
			if f == nil || !f.Changed {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("config: bind --%s: %w", name, err)
			}
		}
		return nil
	}
}

// Load reads settings from NOTES_* environment variables and, when present, a
// .notes.yaml file in NOTES_CONFIG_PATH or the working directory. It does not
// require the gateway settings; call Validate before talking to a backend.
func Load(opts ...Option) (*Config, error) {
	v := viper.New()
	v.SetDefault(keySessionPath, "~/.notes")
	v.SetDefault(keyLogPath, "~/.notes/notes.log")
	v.SetDefault(keyTimeout, "30s")
	v.SetConfigName(".notes") // .yaml is implicit
	v.SetEnvPrefix("NOTES")
	v.AutomaticEnv()

	if override := os.Getenv("NOTES_CONFIG_PATH"); override != "" {
		v.AddConfigPath(override)
	}
	v.AddConfigPath("./")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: read config file: %w", err)
		}
	}

	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, err
		}
	}

	sessionDir, err := homedir.Expand(v.GetString(keySessionPath))
	if err != nil {
		return nil, fmt.Errorf("config: expand %s: %w", keySessionPath, err)
	}
	logPath, err := homedir.Expand(v.GetString(keyLogPath))
	if err != nil {
		return nil, fmt.Errorf("config: expand %s: %w", keyLogPath, err)
	}

	return &Config{
		GatewayURL:  strings.TrimRight(lookup(v, keyGatewayURL), "/"),
		GatewayKey:  lookup(v, keyGatewayKey),
		RedirectURL: lookup(v, keyRedirectURL),
		SessionDir:  sessionDir,
		LogPath:     logPath,
		Timeout:     v.GetDuration(keyTimeout),
	}, nil
}

// Validate fails fast when the gateway endpoint or access key is missing.
func (c *Config) Validate() error {
	if c.GatewayURL == "" {
		return fmt.Errorf("%w: set %s", ErrMissingSetting, EnvName(keyGatewayURL))
	}
	if c.GatewayKey == "" {
		return fmt.Errorf("%w: set %s", ErrMissingSetting, EnvName(keyGatewayKey))
	}
	return nil
}

// EnvName returns the primary environment variable for key.
func EnvName(key string) string {
	return "NOTES_" + strings.ToUpper(key)
}

func lookup(v *viper.Viper, key string) string {
	if val := strings.TrimSpace(v.GetString(key)); val != "" {
		return val
	}
	for _, env := range aliases[key] {
		if val := strings.TrimSpace(os.Getenv(env)); val != "" {
			return val
		}
	}
	return ""
}
