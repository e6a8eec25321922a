package config

import (
	"fmt"
)

// buildServer reconciles one raw [[server]] table into a ServerConfig,
// replicating the mutual-exclusivity rules the original TOML schema
// enforces through a custom deserializer: a server either lists a single
// inline pattern via top-level "forward"/"serve"(/"uri"), or an explicit
// "match" array of patterns, never both.
func buildServer(raw map[string]interface{}) (*ServerConfig, error) {
	server := &ServerConfig{Connections: DefaultConnections}

	if v, ok := raw["listen"]; ok {
		listen, err := toStringSlice(v)
		if err != nil {
			return nil, fmt.Errorf("listen: %w", err)
		}
		server.Listen = listen
	}

	if v, ok := raw["name"]; ok {
		name, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("name: expected a string")
		}
		server.Name = name
	}

	if v, ok := raw["connections"]; ok {
		n, err := toInt(v)
		if err != nil {
			return nil, fmt.Errorf("connections: %w", err)
		}
		server.Connections = n
	}

	_, hasMatch := raw["match"]
	_, hasForward := raw["forward"]
	_, hasServe := raw["serve"]
	_, hasURI := raw["uri"]

	if hasMatch && (hasForward || hasServe || hasURI) {
		return nil, fmt.Errorf("either use 'match' for multiple patterns or describe a single pattern")
	}
	if hasForward && hasServe {
		return nil, fmt.Errorf("use either 'forward' or 'serve', if you need multiple patterns use 'match'")
	}

	switch {
	case hasMatch:
		rawPatterns, ok := raw["match"].([]interface{})
		if !ok {
			return nil, fmt.Errorf("match: expected an array of tables")
		}
		patterns := make([]PatternConfig, 0, len(rawPatterns))
		for i, rp := range rawPatterns {
			rpMap, ok := rp.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("match[%d]: expected a table", i)
			}
			pattern, err := buildPattern(rpMap)
			if err != nil {
				return nil, fmt.Errorf("match[%d]: %w", i, err)
			}
			patterns = append(patterns, *pattern)
		}
		server.Patterns = patterns

	case hasForward || hasServe:
		pattern, err := buildPattern(raw)
		if err != nil {
			return nil, err
		}
		server.Patterns = []PatternConfig{*pattern}

	default:
		return nil, fmt.Errorf("missing 'match' or simple configuration")
	}

	server.LogLabel = deriveLogLabel(server)
	return server, nil
}

// buildPattern builds a single pattern from a raw table. The same
// function handles both an explicit [[server.match]] entry and the
// synthetic single-entry table built from a server's top-level
// "forward"/"serve"/"uri" shorthand.
func buildPattern(raw map[string]interface{}) (*PatternConfig, error) {
	pattern := &PatternConfig{URI: DefaultURI}

	if v, ok := raw["uri"]; ok {
		uri, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("uri: expected a string")
		}
		pattern.URI = uri
	}

	_, hasForward := raw["forward"]
	_, hasServe := raw["serve"]

	switch {
	case hasForward && hasServe:
		return nil, fmt.Errorf("use either 'forward' or 'serve', not both")
	case hasForward:
		forward, err := buildForward(raw["forward"])
		if err != nil {
			return nil, fmt.Errorf("forward: %w", err)
		}
		pattern.Forward = forward
	case hasServe:
		root, ok := raw["serve"].(string)
		if !ok {
			return nil, fmt.Errorf("serve: expected a string")
		}
		pattern.Serve = &ServeConfig{Root: root}
	default:
		return nil, fmt.Errorf("missing 'forward' or 'serve'")
	}

	if v, ok := raw["headers"]; ok {
		rewrite, err := buildHeaderRewrite(v)
		if err != nil {
			return nil, fmt.Errorf("headers: %w", err)
		}
		pattern.HeaderRewrite = rewrite
	}

	return pattern, nil
}

// buildForward accepts any of the shapes the original schema's
// ForwardOption union allows: a single address, a list of addresses, a
// list of {address, weight} tables, or {algorithm, backends}.
func buildForward(raw interface{}) (*ForwardConfig, error) {
	if m, ok := raw.(map[string]interface{}); ok {
		if _, hasBackends := m["backends"]; hasBackends {
			backends, err := buildBackends(m["backends"])
			if err != nil {
				return nil, err
			}
			algorithm := Wrr
			if a, ok := m["algorithm"].(string); ok && a != "" {
				algorithm = Algorithm(a)
			}
			return &ForwardConfig{Algorithm: algorithm, Backends: backends}, nil
		}
		// A lone {address, weight} table is a one-backend shorthand.
		backend, err := buildBackend(m)
		if err != nil {
			return nil, err
		}
		return &ForwardConfig{Algorithm: Wrr, Backends: []BackendConfig{*backend}}, nil
	}

	backends, err := buildBackends(raw)
	if err != nil {
		return nil, err
	}
	return &ForwardConfig{Algorithm: Wrr, Backends: backends}, nil
}

func buildBackends(raw interface{}) ([]BackendConfig, error) {
	items, err := toSlice(raw)
	if err != nil {
		return nil, err
	}
	backends := make([]BackendConfig, 0, len(items))
	for i, item := range items {
		backend, err := buildBackendItem(item)
		if err != nil {
			return nil, fmt.Errorf("backends[%d]: %w", i, err)
		}
		backends = append(backends, *backend)
	}
	return backends, nil
}

func buildBackendItem(raw interface{}) (*BackendConfig, error) {
	switch v := raw.(type) {
	case string:
		return &BackendConfig{Address: v, Weight: 1}, nil
	case map[string]interface{}:
		return buildBackend(v)
	default:
		return nil, fmt.Errorf("expected an address string or {address, weight} table")
	}
}

func buildBackend(m map[string]interface{}) (*BackendConfig, error) {
	address, ok := m["address"].(string)
	if !ok {
		return nil, fmt.Errorf("address: expected a string")
	}
	weight := 1
	if v, ok := m["weight"]; ok {
		n, err := toInt(v)
		if err != nil {
			return nil, fmt.Errorf("weight: %w", err)
		}
		weight = n
	}
	return &BackendConfig{Address: address, Weight: weight}, nil
}

func buildHeaderRewrite(raw interface{}) (*HeaderRewriteConfig, error) {
	m, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("expected a table")
	}
	rewrite := &HeaderRewriteConfig{}
	if v, ok := m["forwarded_by"].(string); ok {
		rewrite.ForwardedBy = v
	}
	if v, ok := m["server_name"].(string); ok {
		rewrite.ServerName = v
	}
	if v, ok := m["override"].(bool); ok {
		rewrite.Override = v
	}
	return rewrite, nil
}

func deriveLogLabel(server *ServerConfig) string {
	if server.Name != "" {
		return server.Name
	}
	if len(server.Listen) > 0 {
		return server.Listen[0]
	}
	return "unnamed"
}

// toSlice normalizes a TOML value that might be one item or an array
// into a slice — the Go analog of the original schema's OneOrMany union.
func toSlice(v interface{}) ([]interface{}, error) {
	switch items := v.(type) {
	case []interface{}:
		return items, nil
	case nil:
		return nil, fmt.Errorf("expected a value or an array")
	default:
		return []interface{}{items}, nil
	}
}

func toStringSlice(v interface{}) ([]string, error) {
	items, err := toSlice(v)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("expected a string, got %T", item)
		}
		out = append(out, s)
	}
	return out, nil
}

func toInt(v interface{}) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("expected an integer, got %T", v)
	}
}
