package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads and parses a YAML configuration file at path.
// If path does not exist or is empty, it returns an empty Config with no errors.
// If the YAML is malformed, it returns nil config with a parse error.
// For validation errors, it returns a valid config with invalid entries stripped
// plus errors describing what was removed.
func Load(path string) (*Config, []error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, []error{fmt.Errorf("failed to read config file: %w", err)}
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		return &Config{}, nil
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, []error{fmt.Errorf("failed to parse config YAML: %w", err)}
	}

	var validationErrors []error

	// pathPrefix must be rooted; a bad value is dropped so the default applies.
	if prefix := strings.TrimSpace(cfg.Proxy.PathPrefix); prefix != "" && !strings.HasPrefix(prefix, "/") {
		validationErrors = append(validationErrors, fmt.Errorf("proxy.pathPrefix: must begin with '/', got %q", cfg.Proxy.PathPrefix))
		cfg.Proxy.PathPrefix = ""
	}

	// target must be an absolute http/https origin.
	if target := strings.TrimSpace(cfg.Proxy.Target); target != "" {
		u, err := url.Parse(target)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			validationErrors = append(validationErrors, fmt.Errorf("proxy.target: must be an absolute http or https URL, got %q", cfg.Proxy.Target))
			cfg.Proxy.Target = ""
		}
	}

	return &cfg, validationErrors
}
