package config

import (
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/L3oNav/xnav/internal/xnaverr"
)

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "XNAV_CONFIG"

// DefaultConfigPaths lists the paths searched for a config file, in
// priority order, when neither an explicit path nor ConfigPathEnvVar is
// given.
var DefaultConfigPaths = []string{
	"xnav.toml",
	"/etc/xnav/xnav.toml",
}

// Load reads and validates the proxy configuration. path, if non-empty,
// is used as-is; otherwise ConfigPathEnvVar and then DefaultConfigPaths
// are tried in order.
//
// The "server" list is intentionally not unmarshaled through koanf's
// generic struct mapping: a server entry's shape (flat "forward"/"serve"
// shorthand vs. an explicit "match" array) mirrors serde's custom
// Visitor in the original implementation and needs the same manual
// field-by-field reconciliation, which Load delegates to buildServer.
func Load(path string) (*Config, error) {
	resolved := path
	if resolved == "" {
		resolved = findConfigFile()
	}
	if resolved == "" {
		return nil, fmt.Errorf("config: no config file found (set %s or pass a path): %w", ConfigPathEnvVar, xnaverr.ErrConfig)
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(resolved), toml.Parser()); err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w: %w", resolved, err, xnaverr.ErrConfig)
	}

	rawServers, ok := k.Get("server").([]interface{})
	if !ok {
		return nil, fmt.Errorf("config: %s: missing or malformed [[server]] list: %w", resolved, xnaverr.ErrConfig)
	}

	cfg := &Config{
		Servers:     make([]ServerConfig, 0, len(rawServers)),
		MetricsAddr: k.String("metrics_addr"),
	}
	for i, raw := range rawServers {
		rawMap, ok := raw.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("config: server[%d]: expected a table: %w", i, xnaverr.ErrConfig)
		}
		server, err := buildServer(rawMap)
		if err != nil {
			return nil, fmt.Errorf("config: server[%d]: %w", i, err)
		}
		cfg.Servers = append(cfg.Servers, *server)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w: %w", resolved, err, xnaverr.ErrConfig)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		return envPath
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
