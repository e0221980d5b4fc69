package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".sitegrep"

// ErrConfigNotFound is returned when the configuration file does not exist.
// Callers decide how to handle it based on whether the path was explicitly
// specified by the user.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the structure of the .sitegrep configuration file.
type File struct {
	// Seeds are seed URLs. Seeds given on the command line are appended
	// after these, never replacing them.
	Seeds []string `yaml:"seeds,omitempty"`

	// Keywords are the keywords to match. Same merge rule as Seeds.
	Keywords []string `yaml:"keywords,omitempty"`

	// SharedVisited shares the visited set across all seeds of the run.
	SharedVisited bool `yaml:"sharedVisited,omitempty"`

	// MaxPages bounds pages per seed. 0 = unbounded.
	MaxPages int `yaml:"maxPages,omitempty"`

	// RequestsPerSecond throttles fetches. 0 = crawler default.
	RequestsPerSecond float64 `yaml:"requestsPerSecond,omitempty"`

	// UserAgent overrides the identifying header.
	UserAgent string `yaml:"userAgent,omitempty"`
}

// LoadConfigFile loads a crawl configuration from a YAML file.
// If the file does not exist it returns ErrConfigNotFound; malformed YAML
// is a config error surfaced to the caller.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("malformed configuration file %s: %w", path, err)
	}

	return &cf, nil
}

// FindConfigFile searches for the configuration file:
//  1. If configPath is specified, use it directly
//  2. Look for .sitegrep in the current directory
//  3. Look for .sitegrep in the user's home directory
//
// Returns the path if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}

// Apply merges the file into cfg. File-sourced seeds and keywords come
// first; whatever is already in cfg (from flags and arguments) is appended
// after them, preserving the source's merge order.
func (cf *File) Apply(cfg *Config) {
	cfg.Seeds = append(append([]string{}, cf.Seeds...), cfg.Seeds...)
	cfg.Keywords = append(append([]string{}, cf.Keywords...), cfg.Keywords...)

	if cf.SharedVisited {
		cfg.SharedVisited = true
	}
	if cf.MaxPages > 0 {
		cfg.MaxPages = cf.MaxPages
	}
	if cf.RequestsPerSecond > 0 {
		cfg.RequestsPerSecond = cf.RequestsPerSecond
	}
	if cf.UserAgent != "" {
		cfg.UserAgent = cf.UserAgent
	}
}
