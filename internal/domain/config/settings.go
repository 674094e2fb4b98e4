// Package config loads, validates and writes the runtime settings shared by
// the host and its plugins.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/sunstone/internal/domain/defaults"
	"github.com/felixgeelhaar/sunstone/internal/ports"
)

// Default values.
const (
	DefaultHost      = "localhost"
	DefaultPort      = 3000
	DefaultRedisHost = "localhost"
	DefaultRedisPort = 6379
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"

	// VerboseLogLevel is the log level selected by --verbose.
	VerboseLogLevel = "debug"

	// cookieSecretBytes is the entropy of a generated cookie secret.
	cookieSecretBytes = 10
)

// Setting keys, as used in overrides and files.
const (
	KeyHost         = "host"
	KeyPort         = "port"
	KeyRedisHost    = "redis.host"
	KeyRedisPort    = "redis.port"
	KeyCookieSecret = "cookie_secret"
	KeyLogLevel     = "log_level"
	KeyLogFormat    = "log_format"
	KeyPluginPaths  = "plugin_paths"
)

// Keys lists every setting key in display order.
var Keys = []string{
	KeyHost, KeyPort, KeyRedisHost, KeyRedisPort,
	KeyCookieSecret, KeyLogLevel, KeyLogFormat, KeyPluginPaths,
}

// envVars maps setting keys to the environment variables that override them.
var envVars = map[string]string{
	KeyHost:         "SUNSTONE_HOST",
	KeyPort:         "SUNSTONE_PORT",
	KeyRedisHost:    "REDIS_HOST",
	KeyRedisPort:    "REDIS_PORT",
	KeyCookieSecret: "SUNSTONE_COOKIE_SECRET",
	KeyLogLevel:     "SUNSTONE_LOG_LEVEL",
	KeyLogFormat:    "SUNSTONE_LOG_FORMAT",
	KeyPluginPaths:  "SUNSTONE_PLUGIN_PATHS",
}

// EnvVar returns the environment variable that overrides key.
func EnvVar(key string) string {
	return envVars[key]
}

// Redis holds the connection settings of the session store.
type Redis struct {
	Host string `yaml:"host" toml:"host" json:"host"`
	Port int    `yaml:"port" toml:"port" json:"port"`
}

// Settings is the resolved runtime configuration.
type Settings struct {
	Host         string   `yaml:"host" toml:"host" json:"host"`
	Port         int      `yaml:"port" toml:"port" json:"port"`
	Redis        Redis    `yaml:"redis" toml:"redis" json:"redis"`
	CookieSecret string   `yaml:"cookie_secret" toml:"cookie_secret" json:"cookie_secret"`
	LogLevel     string   `yaml:"log_level" toml:"log_level" json:"log_level"`
	LogFormat    string   `yaml:"log_format" toml:"log_format" json:"log_format"`
	PluginPaths  []string `yaml:"plugin_paths,omitempty" toml:"plugin_paths,omitempty" json:"plugin_paths,omitempty"`
}

// Default returns settings holding every default value. The cookie secret is
// freshly generated.
func Default() (*Settings, error) {
	secret, err := defaults.Random(cookieSecretBytes)
	if err != nil {
		return nil, fmt.Errorf("generating cookie secret: %w", err)
	}
	return &Settings{
		Host:         DefaultHost,
		Port:         DefaultPort,
		Redis:        Redis{Host: DefaultRedisHost, Port: DefaultRedisPort},
		CookieSecret: secret,
		LogLevel:     DefaultLogLevel,
		LogFormat:    DefaultLogFormat,
	}, nil
}

// Address returns host:port.
func (s *Settings) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RedisAddress returns the redis host:port.
func (s *Settings) RedisAddress() string {
	return fmt.Sprintf("%s:%d", s.Redis.Host, s.Redis.Port)
}

// Level parses LogLevel.
func (s *Settings) Level() (ports.Level, error) {
	return ports.ParseLevel(s.LogLevel)
}

// Set assigns a value given in string form, as it appears in flags and
// environment variables. Plugin paths are split on the OS path list separator.
func (s *Settings) Set(key, value string) error {
	switch key {
	case KeyHost:
		s.Host = value
	case KeyPort:
		port, err := parsePort(key, value)
		if err != nil {
			return err
		}
		s.Port = port
	case KeyRedisHost:
		s.Redis.Host = value
	case KeyRedisPort:
		port, err := parsePort(key, value)
		if err != nil {
			return err
		}
		s.Redis.Port = port
	case KeyCookieSecret:
		s.CookieSecret = value
	case KeyLogLevel:
		s.LogLevel = value
	case KeyLogFormat:
		s.LogFormat = value
	case KeyPluginPaths:
		s.PluginPaths = splitPaths(value)
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	return nil
}

// Get returns a setting in string form.
func (s *Settings) Get(key string) (string, bool) {
	switch key {
	case KeyHost:
		return s.Host, true
	case KeyPort:
		return strconv.Itoa(s.Port), true
	case KeyRedisHost:
		return s.Redis.Host, true
	case KeyRedisPort:
		return strconv.Itoa(s.Redis.Port), true
	case KeyCookieSecret:
		return s.CookieSecret, true
	case KeyLogLevel:
		return s.LogLevel, true
	case KeyLogFormat:
		return s.LogFormat, true
	case KeyPluginPaths:
		return strings.Join(s.PluginPaths, string(os.PathListSeparator)), true
	default:
		return "", false
	}
}

// Validate reports every invalid setting. It returns nil or an *ErrorList.
func (s *Settings) Validate() error {
	errs := NewErrorList()

	if strings.TrimSpace(s.Host) == "" {
		errs.AddValidation(KeyHost, "must not be empty", "Set host to an interface name such as localhost or 0.0.0.0.")
	}
	if !validPort(s.Port) {
		errs.AddValidation(KeyPort, fmt.Sprintf("%d is out of range", s.Port), "Use a port between 1 and 65535.")
	}
	if strings.TrimSpace(s.Redis.Host) == "" {
		errs.AddValidation(KeyRedisHost, "must not be empty", "Set redis.host to the redis server address.")
	}
	if !validPort(s.Redis.Port) {
		errs.AddValidation(KeyRedisPort, fmt.Sprintf("%d is out of range", s.Redis.Port), "Use a port between 1 and 65535.")
	}
	if s.CookieSecret == "" {
		errs.AddValidation(KeyCookieSecret, "must not be empty", "Remove the key to have a secret generated.")
	}
	if _, err := ports.ParseLevel(s.LogLevel); err != nil {
		errs.AddValidation(KeyLogLevel, err.Error(), "Use one of: debug, info, warn, error.")
	}
	if s.LogFormat != "text" && s.LogFormat != "json" {
		errs.AddValidation(KeyLogFormat, fmt.Sprintf("unknown format %q", s.LogFormat), "Use text or json.")
	}
	for i, p := range s.PluginPaths {
		if strings.TrimSpace(p) == "" {
			errs.AddValidation(fmt.Sprintf("%s[%d]", KeyPluginPaths, i), "must not be empty", "Remove the empty entry.")
		}
	}

	return errs.AsError()
}

func parsePort(key, value string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", key, value)
	}
	return port, nil
}

func validPort(port int) bool {
	return port > 0 && port <= 65535
}

func splitPaths(value string) []string {
	var out []string
	for _, p := range filepath.SplitList(value) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
