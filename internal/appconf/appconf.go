// Package appconf loads and validates the application configuration.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// environment variables (optionally seeded from a .env file), then whatever
// the binary applies from its command-line flags.
package appconf

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Environment string

const (
	Development Environment = "development"
	Test        Environment = "test"
	Production  Environment = "production"
)

const DefaultBaseURL = "https://api.golemio.cz/v2/pid/departureboards"

// GolemioConfig describes the upstream departure board API.
type GolemioConfig struct {
	BaseURL     string        `yaml:"baseURL" validate:"required,url"`
	AccessToken string        `yaml:"accessToken" validate:"required"`
	Timeout     time.Duration `yaml:"timeout" validate:"gte=0"`
}

// Config is the root configuration structure.
type Config struct {
	Port         int           `yaml:"port" validate:"gt=0,lt=65536"`
	Env          Environment   `yaml:"env" validate:"oneof=development test production"`
	Verbose      bool          `yaml:"verbose"`
	Title        string        `yaml:"title" validate:"required"`
	Timezone     string        `yaml:"timezone" validate:"required"`
	DefaultStops []string      `yaml:"defaultStops" validate:"min=1,dive,required"`
	ApiKeys      []string      `yaml:"apiKeys"`
	RateLimit    int           `yaml:"rateLimit" validate:"gte=0"`
	Golemio      GolemioConfig `yaml:"golemio"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Port:         4000,
		Env:          Development,
		Title:        "Jízdní neřád",
		Timezone:     "Europe/Prague",
		DefaultStops: []string{"Divadlo Gong", "Ocelářská"},
		ApiKeys:      []string{},
		RateLimit:    10,
		Golemio: GolemioConfig{
			BaseURL: DefaultBaseURL,
			Timeout: 15 * time.Second,
		},
	}
}

// LoadDotEnv loads variables from the given .env files (".env" when none are
// given) without overriding variables already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// LoadFile overlays the YAML file at path onto cfg.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays environment variables onto cfg. lookup is usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		c.Port = port
	}
	if v, ok := lookup("ENV"); ok && v != "" {
		c.Env = Environment(strings.ToLower(strings.TrimSpace(v)))
	}
	if v, ok := lookup("VERBOSE"); ok && v != "" {
		verbose, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("VERBOSE: %w", err)
		}
		c.Verbose = verbose
	}
	if v, ok := lookup("TZ_NAME"); ok && v != "" {
		c.Timezone = v
	}
	if v, ok := lookup("DEFAULT_STOPS"); ok && v != "" {
		c.DefaultStops = splitList(v, ";")
	}
	if v, ok := lookup("API_KEYS"); ok {
		c.ApiKeys = ParseAPIKeys(v)
	}
	if v, ok := lookup("RATE_LIMIT"); ok && v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT: %w", err)
		}
		c.RateLimit = limit
	}
	if v, ok := lookup("GOLEMIO_BASE_URL"); ok && v != "" {
		c.Golemio.BaseURL = v
	}
	if v, ok := lookup("GOLEMIO_ACCESS_TOKEN"); ok && v != "" {
		c.Golemio.AccessToken = v
	}
	if v, ok := lookup("GOLEMIO_TIMEOUT"); ok && v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("GOLEMIO_TIMEOUT: %w", err)
		}
		c.Golemio.Timeout = timeout
	}
	return nil
}

// Validate checks struct tags and that the timezone is known.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return nil
}

// Location returns the configured transit zone, or UTC if it cannot be loaded.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ParseAPIKeys splits a comma-separated key list, dropping blanks.
func ParseAPIKeys(input string) []string {
	return splitList(input, ",")
}

func splitList(input, sep string) []string {
	items := []string{}
	for _, part := range strings.Split(input, sep) {
		if item := strings.TrimSpace(part); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// Load builds a configuration from the defaults, the YAML file at path (when
// path is not empty) and the environment seen through lookup. The result is
// not validated; callers apply their flags first.
func Load(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if lookup != nil {
		if err := cfg.ApplyEnv(lookup); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}
