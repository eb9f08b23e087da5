package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ErrConfig is wrapped by every configuration error
var ErrConfig = errors.New("configuration error")

type Config struct {
	Colors            Colors        `yaml:"colors"`
	Glyphs            Glyphs        `yaml:"glyphs"`
	PartitionlessText string        `yaml:"partitionless_text"`
	Separator         string        `yaml:"separator"`
	TruncateFSLabels  *int          `yaml:"truncate_fs_labels"`
	Ignore            Ignore        `yaml:"ignore"`
	CommandTimeout    time.Duration `yaml:"command_timeout"`
	Concurrency       int           `yaml:"concurrency"`
	Database          string        `yaml:"database"`
	LogLevel          string        `yaml:"log_level"`
}

type Colors struct {
	Mounted            string `yaml:"mounted"`
	Plugged            string `yaml:"plugged"`
	Locked             string `yaml:"locked"`
	UnlockedNotMounted string `yaml:"unlocked_not_mounted"`
	Partitionless      string `yaml:"partitionless"`
}

type Glyphs struct {
	Lock   string `yaml:"lock"`
	Unlock string `yaml:"unlock"`
}

// Ignore lists devices left out of the output. PathPrefixes is checked
// before udev is queried; the others need the device's udev properties.
type Ignore struct {
	PathPrefixes    []string          `yaml:"path_prefixes"`
	DevNamePrefixes []string          `yaml:"devname_prefixes"`
	Attributes      map[string]string `yaml:"attributes"`
}

// defaultConfig mirrors the stock status bar look
var defaultConfig = Config{
	Colors: Colors{
		Mounted:            "green",
		Plugged:            "gray",
		Locked:             "gray",
		UnlockedNotMounted: "yellow",
		Partitionless:      "red",
	},
	Glyphs: Glyphs{
		Lock:   "\uf023",
		Unlock: "\uf09c",
	},
	PartitionlessText: "no partitions",
	Separator:         "<span color='gray'> | </span>",
	CommandTimeout:    5 * time.Second,
	Concurrency:       4,
	Database:          "/var/lib/usbstatus/inventory.db",
	LogLevel:          "info",
}

// Default returns a copy of the built-in configuration
func Default() *Config {
	cfg := defaultConfig
	return &cfg
}

// candidates returns the config files tried when no path is given
func candidates() []string {
	paths := []string{"/etc/usbstatus/config.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config/usbstatus/config.yaml"))
	}
	return append(paths, "config.yaml")
}

// Load reads the configuration at path. An empty path tries the default
// locations and falls back to the built-in defaults when none exists. An
// explicit path that cannot be read is an error.
func Load(path string) (*Config, error) {
	if path == "" {
		for _, c := range candidates() {
			if _, err := os.Stat(c); err == nil {
				path = c
				break
			}
		}
	}

	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(ErrConfig, err.Error())
	}

	return Parse(data)
}

// Parse decodes YAML and fills unset fields from the defaults
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(ErrConfig, "yaml: "+err.Error())
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	d := defaultConfig

	setDefault(&c.Colors.Mounted, d.Colors.Mounted)
	setDefault(&c.Colors.Plugged, d.Colors.Plugged)
	setDefault(&c.Colors.Locked, d.Colors.Locked)
	setDefault(&c.Colors.UnlockedNotMounted, d.Colors.UnlockedNotMounted)
	setDefault(&c.Colors.Partitionless, d.Colors.Partitionless)
	setDefault(&c.Glyphs.Lock, d.Glyphs.Lock)
	setDefault(&c.Glyphs.Unlock, d.Glyphs.Unlock)
	setDefault(&c.PartitionlessText, d.PartitionlessText)
	setDefault(&c.Separator, d.Separator)
	setDefault(&c.Database, d.Database)
	setDefault(&c.LogLevel, d.LogLevel)

	if c.CommandTimeout <= 0 {
		c.CommandTimeout = d.CommandTimeout
	}
	if c.Concurrency <= 0 {
		c.Concurrency = d.Concurrency
	}
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}
