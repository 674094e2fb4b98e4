package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

// Format is a settings file encoding.
type Format string

// Supported formats.
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
	FormatINI  Format = "ini"
)

// FormatFor picks the encoding from the file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	case ".ini":
		return FormatINI, nil
	default:
		return "", NewUnsupportedFormatError(path)
	}
}

// LoadOptions controls where settings come from. Precedence, highest first:
// Overrides, environment, file, defaults.
type LoadOptions struct {
	// Path is the settings file. Empty means no file.
	Path string
	// Overrides are explicit values keyed by setting key, usually from flags.
	Overrides map[string]string
	// LookupEnv reads environment variables. Defaults to os.LookupEnv.
	LookupEnv func(key string) (string, bool)
	// WriteIfMissing writes the resolved settings to Path when the file
	// does not exist.
	WriteIfMissing bool
}

// Load resolves settings from defaults, the file, the environment and the
// overrides, then validates them.
func Load(opts LoadOptions) (*Settings, error) {
	s, err := Default()
	if err != nil {
		return nil, err
	}

	missing := false
	if opts.Path != "" {
		format, err := FormatFor(opts.Path)
		if err != nil {
			return nil, err
		}

		data, err := os.ReadFile(opts.Path)
		switch {
		case os.IsNotExist(err):
			missing = true
		case err != nil:
			return nil, &UserError{
				Code:       ErrCodeConfigRead,
				Message:    "cannot read settings file",
				Context:    opts.Path,
				Suggestion: "Check the file permissions.",
				Underlying: err,
			}
		default:
			fs, err := decode(format, data)
			if err != nil {
				return nil, NewConfigParseError(opts.Path, string(format), err)
			}
			fs.apply(s)
		}
	}

	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}

	errs := NewErrorList()
	for _, key := range Keys {
		if v, ok := lookup(envVars[key]); ok && v != "" {
			if err := s.Set(key, v); err != nil {
				errs.Add(NewValidationFailedError(key, err.Error()).WithContext(envVars[key]))
			}
		}
	}

	keys := make([]string, 0, len(opts.Overrides))
	for key := range opts.Overrides {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := s.Set(key, opts.Overrides[key]); err != nil {
			errs.Add(NewValidationFailedError(key, err.Error()))
		}
	}
	if errs.HasErrors() {
		return nil, errs
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	if missing && opts.WriteIfMissing {
		if err := Write(opts.Path, s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Write encodes s in the format implied by path's extension, creating parent
// directories as needed. The file is private to the owner since it holds the
// cookie secret.
func Write(path string, s *Settings) error {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}

	data, err := encode(format, s)
	if err != nil {
		return &UserError{Code: ErrCodeConfigWrite, Message: "cannot encode settings", Context: path, Underlying: err}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &UserError{Code: ErrCodeConfigWrite, Message: "cannot create settings directory", Context: path, Underlying: err}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return &UserError{Code: ErrCodeConfigWrite, Message: "cannot write settings file", Context: path, Underlying: err}
	}
	return nil
}

// Marshal encodes s in the given format.
func Marshal(format Format, s *Settings) ([]byte, error) {
	return encode(format, s)
}

// fileSettings records which keys a file actually sets.
type fileSettings struct {
	Host         *string    `yaml:"host" toml:"host"`
	Port         *int       `yaml:"port" toml:"port"`
	Redis        *fileRedis `yaml:"redis" toml:"redis"`
	CookieSecret *string    `yaml:"cookie_secret" toml:"cookie_secret"`
	LogLevel     *string    `yaml:"log_level" toml:"log_level"`
	LogFormat    *string    `yaml:"log_format" toml:"log_format"`
	PluginPaths  []string   `yaml:"plugin_paths" toml:"plugin_paths"`
}

type fileRedis struct {
	Host *string `yaml:"host" toml:"host"`
	Port *int    `yaml:"port" toml:"port"`
}

func (f *fileSettings) apply(s *Settings) {
	if f.Host != nil {
		s.Host = *f.Host
	}
	if f.Port != nil {
		s.Port = *f.Port
	}
	if f.Redis != nil {
		if f.Redis.Host != nil {
			s.Redis.Host = *f.Redis.Host
		}
		if f.Redis.Port != nil {
			s.Redis.Port = *f.Redis.Port
		}
	}
	if f.CookieSecret != nil {
		s.CookieSecret = *f.CookieSecret
	}
	if f.LogLevel != nil {
		s.LogLevel = *f.LogLevel
	}
	if f.LogFormat != nil {
		s.LogFormat = *f.LogFormat
	}
	if f.PluginPaths != nil {
		s.PluginPaths = f.PluginPaths
	}
}

func decode(format Format, data []byte) (*fileSettings, error) {
	var fs fileSettings

	switch format {
	case FormatYAML, FormatJSON:
		if err := yaml.Unmarshal(data, &fs); err != nil {
			return nil, err
		}
	case FormatTOML:
		if err := toml.Unmarshal(data, &fs); err != nil {
			return nil, err
		}
	case FormatINI:
		return decodeINI(data)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	return &fs, nil
}

// decodeINI reads top-level keys from the default section and redis keys
// from a [redis] section. Plugin paths are comma separated.
func decodeINI(data []byte) (*fileSettings, error) {
	cfg, err := ini.Load(data)
	if err != nil {
		return nil, err
	}

	var fs fileSettings
	root := cfg.Section("")

	str := func(sec *ini.Section, key string) *string {
		if !sec.HasKey(key) {
			return nil
		}
		v := sec.Key(key).String()
		return &v
	}
	num := func(sec *ini.Section, key string) (*int, error) {
		if !sec.HasKey(key) {
			return nil, nil
		}
		v, err := sec.Key(key).Int()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		return &v, nil
	}

	fs.Host = str(root, "host")
	if fs.Port, err = num(root, "port"); err != nil {
		return nil, err
	}
	fs.CookieSecret = str(root, "cookie_secret")
	fs.LogLevel = str(root, "log_level")
	fs.LogFormat = str(root, "log_format")
	if root.HasKey("plugin_paths") {
		fs.PluginPaths = root.Key("plugin_paths").Strings(",")
	}

	if sec, err := cfg.GetSection("redis"); err == nil {
		fs.Redis = &fileRedis{Host: str(sec, "host")}
		if fs.Redis.Port, err = num(sec, "port"); err != nil {
			return nil, fmt.Errorf("redis.%w", err)
		}
	}
	return &fs, nil
}

func encode(format Format, s *Settings) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.Marshal(s)
	case FormatJSON:
		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case FormatTOML:
		return toml.Marshal(s)
	case FormatINI:
		return encodeINI(s)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

func encodeINI(s *Settings) ([]byte, error) {
	cfg := ini.Empty()
	root := cfg.Section("")

	pairs := [][2]string{
		{"host", s.Host},
		{"port", strconv.Itoa(s.Port)},
		{"cookie_secret", s.CookieSecret},
		{"log_level", s.LogLevel},
		{"log_format", s.LogFormat},
	}
	if len(s.PluginPaths) > 0 {
		pairs = append(pairs, [2]string{"plugin_paths", strings.Join(s.PluginPaths, ",")})
	}
	for _, kv := range pairs {
		if _, err := root.NewKey(kv[0], kv[1]); err != nil {
			return nil, err
		}
	}

	redis, err := cfg.NewSection("redis")
	if err != nil {
		return nil, err
	}
	if _, err := redis.NewKey("host", s.Redis.Host); err != nil {
		return nil, err
	}
	if _, err := redis.NewKey("port", strconv.Itoa(s.Redis.Port)); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := cfg.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
