// Package config loads cronoctl settings from a YAML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"gopkg.in/yaml.v3"
)

// Defaults applied to zero values.
const (
	DefaultBudget   = 64 << 20
	DefaultLogLevel = "info"
	DefaultCodePage = "windows-1251"
)

// Config holds the tunables shared by every cronoctl command.
type Config struct {
	// Budget is the table memory budget in bytes per open bank.
	Budget int64 `yaml:"budget,omitempty"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level,omitempty"`
	// CodePage is the IANA name of the bank text encoding.
	CodePage string `yaml:"code_page,omitempty"`
	// Jobs bounds how many banks are scanned at once. Zero means GOMAXPROCS.
	Jobs int `yaml:"jobs,omitempty"`
}

// Default returns a config with every default applied.
func Default() Config {
	var c Config
	c.ApplyDefaults()
	return c
}

// Load reads path and applies defaults. The path is provided by the CLI
// user, so file inclusion is expected.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML, applies defaults, and validates the result. Unknown
// keys are rejected.
func Parse(data []byte) (Config, error) {
	var c Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// ApplyDefaults fills zero fields.
func (c *Config) ApplyDefaults() {
	if c.Budget == 0 {
		c.Budget = DefaultBudget
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.CodePage == "" {
		c.CodePage = DefaultCodePage
	}
	if c.Jobs == 0 {
		c.Jobs = runtime.GOMAXPROCS(0)
	}
}

// Validate checks every field.
func (c Config) Validate() error {
	if c.Budget < 0 {
		return fmt.Errorf("budget must not be negative, got %d", c.Budget)
	}
	if c.Jobs < 0 {
		return fmt.Errorf("jobs must not be negative, got %d", c.Jobs)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if _, err := c.Encoding(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return l, nil
}

// Encoding resolves CodePage through the IANA registry.
func (c Config) Encoding() (encoding.Encoding, error) {
	return LookupCodePage(c.CodePage)
}

// LookupCodePage resolves an IANA code page name such as "windows-1251" or
// "koi8-r".
func LookupCodePage(name string) (encoding.Encoding, error) {
	e, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("unknown code page %q: %w", name, err)
	}
	if e == nil {
		return nil, fmt.Errorf("code page %q is not supported", name)
	}
	return e, nil
}
