// Package config loads the API client configuration from the process environment.
package config

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"
	"unicode/utf8"

	"github.com/kelseyhightower/envconfig"
)

// Environment variable names.
const (
	EnvAPIKey    = "API_KEY"
	EnvBaseURL   = "BASE_URL"
	EnvTimeoutMS = "TIMEOUT_MS"
	EnvLogLevel  = "LOG_LEVEL"
	EnvDebug     = "DEBUG"
)

// Defaults applied when a variable is absent.
const (
	DefaultBaseURL   = "https://api.example.com"
	DefaultTimeoutMS = 5000
	DefaultLogLevel  = "info"
)

// Config holds the validated client settings.
// It is never mutated after Load returns.
type Config struct {
	// APIKey authenticates requests. Required.
	APIKey string `json:"api_key"`

	// BaseURL is the root of the remote API.
	BaseURL string `json:"base_url"`

	// TimeoutMS is the request timeout in milliseconds.
	TimeoutMS uint64 `json:"timeout_ms"`

	// LogLevel is stored as given; see Level for the normalized value.
	LogLevel string `json:"log_level"`

	// Debug is true only when DEBUG is exactly "true".
	Debug bool `json:"debug"`
}

// environment is the raw, unparsed view of the variables. Every field is a
// string so that parsing rules stay under our control rather than envconfig's
// (envconfig parses integers with base prefixes and booleans with ParseBool).
type environment struct {
	APIKey    string `envconfig:"API_KEY" required:"true" desc:"API key sent as a bearer token; must be non-empty"`
	BaseURL   string `envconfig:"BASE_URL" default:"https://api.example.com" desc:"root URL of the remote API"`
	TimeoutMS string `envconfig:"TIMEOUT_MS" default:"5000" desc:"request timeout in milliseconds; unsigned integer > 0"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info" desc:"one of debug, info, warn, error"`
	Debug     string `envconfig:"DEBUG" desc:"enables debug mode when exactly \"true\""`
}

// Load reads the configuration from environment variables.
//
// It fails with MissingVar when API_KEY is unset and with InvalidValue when
// TIMEOUT_MS is not an unsigned decimal integer. The first failure is
// returned. The result is not validated; call Validate for that.
func Load() (Config, error) {
	// Checked before anything else so a missing key is reported even when
	// other variables are malformed. A value that is not valid UTF-8 counts
	// as unset, here and for the optional variables below.
	if v, ok := os.LookupEnv(EnvAPIKey); !ok || !utf8.ValidString(v) {
		return Config{}, NewMissingVar(EnvAPIKey)
	}

	var env environment
	if err := envconfig.Process("", &env); err != nil {
		return Config{}, &Error{Kind: InvalidValue, Detail: err.Error(), err: err}
	}
	env.BaseURL = validOr(env.BaseURL, DefaultBaseURL)
	env.TimeoutMS = validOr(env.TimeoutMS, strconv.Itoa(DefaultTimeoutMS))
	env.LogLevel = validOr(env.LogLevel, DefaultLogLevel)
	env.Debug = validOr(env.Debug, "")

	// One leading '+' is accepted, as in "+5000".
	timeout, err := strconv.ParseUint(strings.TrimPrefix(env.TimeoutMS, "+"), 10, 64)
	if err != nil {
		return Config{}, &Error{
			Kind:   InvalidValue,
			Detail: fmt.Sprintf("%s: %v", EnvTimeoutMS, err),
			err:    err,
		}
	}

	return Config{
		APIKey:    env.APIKey,
		BaseURL:   env.BaseURL,
		TimeoutMS: timeout,
		LogLevel:  env.LogLevel,
		Debug:     env.Debug == "true",
	}, nil
}

// Validate checks that the API key is non-empty and the timeout is positive.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return NewInvalidValue("API_KEY cannot be empty")
	}
	if c.TimeoutMS == 0 {
		return NewInvalidValue("TIMEOUT_MS must be > 0")
	}
	return nil
}

// Timeout returns TimeoutMS as a Duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// Level returns the log level, falling back to DefaultLogLevel when
// LogLevel is not a recognized name.
func (c Config) Level() string {
	return normalizeLogLevel(c.LogLevel)
}

// Redacted returns a copy safe to print or log.
func (c Config) Redacted() Config {
	c.APIKey = maskSecret(c.APIKey)
	return c
}

// WriteUsage writes a table describing every supported variable.
func WriteUsage(w io.Writer) error {
	tabs := tabwriter.NewWriter(w, 1, 0, 4, ' ', 0)
	if err := envconfig.Usagef("", &environment{}, tabs, usageFormat); err != nil {
		return fmt.Errorf("render usage: %w", err)
	}
	return tabs.Flush()
}

const usageFormat = `KEY	DEFAULT	REQUIRED	DESCRIPTION
{{range .}}{{usage_key .}}	{{usage_default .}}	{{usage_required .}}	{{usage_description .}}
{{end}}`

func normalizeLogLevel(level string) string {
	switch level {
	case "debug", "info", "warn", "error":
		return level
	default:
		return DefaultLogLevel
	}
}

// validOr returns fallback when s is not valid UTF-8.
func validOr(s, fallback string) string {
	if utf8.ValidString(s) {
		return s
	}
	return fallback
}

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	r := []rune(s)
	if len(r) <= 8 {
		return "****"
	}
	return "****" + string(r[len(r)-4:])
}
