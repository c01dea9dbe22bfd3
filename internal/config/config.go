// Package config loads gdvm.ini and resolves the on-disk layout.
//
// The config file is INI:
//
//	[github]
//	token = ghp_...
//
//	[log]
//	level = info
//
//	[verify]
//	keyring = /path/to/godot-release-key.asc
//
// Every key can be overridden by an environment variable named GDVM_ plus
// the upper-cased key with the dot replaced by an underscore, for example
// GDVM_GITHUB_TOKEN.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"gopkg.in/ini.v1"
)

// Config keys.
const (
	KeyGitHubToken   = "github.token"
	KeyLogLevel      = "log.level"
	KeyVerifyKeyring = "verify.keyring"
)

// Keys lists every supported key.
var Keys = []string{KeyGitHubToken, KeyLogLevel, KeyVerifyKeyring}

// LogLevels are the accepted values of log.level.
var LogLevels = []string{"debug", "info", "warn", "error"}

// Config is the decoded configuration.
type Config struct {
	GitHub GitHubConfig `mapstructure:"github"`
	Log    LogConfig    `mapstructure:"log"`
	Verify VerifyConfig `mapstructure:"verify"`
}

// GitHubConfig holds the optional API token used to raise rate limits.
type GitHubConfig struct {
	Token string `mapstructure:"token"`
}

// LogConfig holds the console log level.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// VerifyConfig holds the optional OpenPGP keyring for manifest signatures.
type VerifyConfig struct {
	Keyring string `mapstructure:"keyring"`
}

// Error is an unreadable or invalid configuration.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyGitHubToken, "")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyVerifyKeyring, "")
	v.SetEnvPrefix("GDVM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// readINI loads path. A missing file yields an empty document.
func readINI(fsys afero.Fs, path string) (*ini.File, error) {
	data, err := afero.ReadFile(fsys, path)
	if errors.Is(err, fs.ErrNotExist) {
		return ini.Empty(), nil
	}
	if err != nil {
		return nil, err
	}
	return ini.Load(data)
}

// Load reads path, applies defaults and environment overrides and
// validates the result. A missing file is valid.
func Load(fsys afero.Fs, path string) (*Config, error) {
	file, err := readINI(fsys, path)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}

	v := newViper()
	settings := map[string]any{}
	for _, section := range file.Sections() {
		if len(section.Keys()) == 0 {
			continue
		}
		values := map[string]any{}
		for k, val := range section.KeysHash() {
			values[strings.ToLower(k)] = val
		}
		settings[strings.ToLower(section.Name())] = values
	}
	if err := v.MergeConfigMap(settings); err != nil {
		return nil, &Error{Path: path, Err: err}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	if err := cfg.Validate(fsys); err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	return &cfg, nil
}

// Validate checks the log level and that a configured keyring exists.
func (c *Config) Validate(fsys afero.Fs) error {
	if !slices.Contains(LogLevels, c.Log.Level) {
		return fmt.Errorf("invalid %s %q (want one of %s)", KeyLogLevel, c.Log.Level, strings.Join(LogLevels, ", "))
	}
	if c.Verify.Keyring != "" {
		if _, err := fsys.Stat(c.Verify.Keyring); err != nil {
			return fmt.Errorf("%s: %w", KeyVerifyKeyring, err)
		}
	}
	return nil
}

// Get returns the value of key.
func (c *Config) Get(key string) (string, error) {
	switch strings.ToLower(key) {
	case KeyGitHubToken:
		return c.GitHub.Token, nil
	case KeyLogLevel:
		return c.Log.Level, nil
	case KeyVerifyKeyring:
		return c.Verify.Keyring, nil
	default:
		return "", unknownKey(key)
	}
}

func unknownKey(key string) error {
	return fmt.Errorf("unknown key %q (known keys: %s)", key, strings.Join(Keys, ", "))
}

// Set writes one key to the config file at path, keeping the rest of the
// file. An empty value removes the key.
func Set(fsys afero.Fs, path, key, value string) error {
	key = strings.ToLower(strings.TrimSpace(key))
	if !slices.Contains(Keys, key) {
		return &Error{Path: path, Err: unknownKey(key)}
	}
	if key == KeyLogLevel {
		value = strings.ToLower(strings.TrimSpace(value))
		if value != "" && !slices.Contains(LogLevels, value) {
			return &Error{Path: path, Err: fmt.Errorf("invalid %s %q", KeyLogLevel, value)}
		}
	}

	file, err := readINI(fsys, path)
	if err != nil {
		return &Error{Path: path, Err: err}
	}

	sectionName, name, _ := strings.Cut(key, ".")
	section := file.Section(sectionName)
	if value == "" {
		section.DeleteKey(name)
	} else {
		section.Key(name).SetValue(value)
	}

	var buf bytes.Buffer
	if _, err := file.WriteTo(&buf); err != nil {
		return &Error{Path: path, Err: err}
	}
	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &Error{Path: path, Err: err}
	}
	if err := afero.WriteFile(fsys, path, buf.Bytes(), 0o600); err != nil {
		return &Error{Path: path, Err: err}
	}
	return nil
}
