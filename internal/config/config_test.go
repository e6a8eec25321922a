package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/L3oNav/xnav/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "xnav.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadSimpleForwardShorthand(t *testing.T) {
	path := writeConfig(t, `
[[server]]
listen = "127.0.0.1:8080"
forward = "127.0.0.1:9000"
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Servers, 1)

	server := cfg.Servers[0]
	assert.Equal(t, []string{"127.0.0.1:8080"}, server.Listen)
	assert.Equal(t, config.DefaultConnections, server.Connections)
	require.Len(t, server.Patterns, 1)
	assert.Equal(t, "/", server.Patterns[0].URI)
	require.NotNil(t, server.Patterns[0].Forward)
	assert.Equal(t, config.Wrr, server.Patterns[0].Forward.Algorithm)
	assert.Equal(t, []config.BackendConfig{{Address: "127.0.0.1:9000", Weight: 1}}, server.Patterns[0].Forward.Backends)
}

func TestLoadWeightedBackendsAndMatchArray(t *testing.T) {
	path := writeConfig(t, `
[[server]]
listen = ["0.0.0.0:80", "0.0.0.0:8080"]
name = "web"
connections = 512

[[server.match]]
uri = "/api"

  [server.match.forward]
  algorithm = "WRR"

    [[server.match.forward.backends]]
    address = "127.0.0.1:9000"
    weight = 1

    [[server.match.forward.backends]]
    address = "127.0.0.1:9001"
    weight = 3

[[server.match]]
uri = "/"
serve = "/var/www/html"
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Servers, 1)

	server := cfg.Servers[0]
	assert.Equal(t, "web", server.Name)
	assert.Equal(t, "web", server.LogLabel)
	assert.Equal(t, 512, server.Connections)
	require.Len(t, server.Patterns, 2)

	api := server.Patterns[0]
	assert.Equal(t, "/api", api.URI)
	require.NotNil(t, api.Forward)
	assert.Len(t, api.Forward.Backends, 2)
	assert.Equal(t, 3, api.Forward.Backends[1].Weight)

	root := server.Patterns[1]
	assert.Equal(t, "/", root.URI)
	require.NotNil(t, root.Serve)
	assert.Equal(t, "/var/www/html", root.Serve.Root)
}

func TestLoadRejectsMixedSimpleAndMatch(t *testing.T) {
	path := writeConfig(t, `
[[server]]
listen = "127.0.0.1:8080"
forward = "127.0.0.1:9000"

[[server.match]]
uri = "/"
serve = "/var/www"
`)

	_, err := config.Load(path)
	require.Error(t, err)
}

func TestLoadRejectsBothForwardAndServe(t *testing.T) {
	path := writeConfig(t, `
[[server]]
listen = "127.0.0.1:8080"
forward = "127.0.0.1:9000"
serve = "/var/www"
`)

	_, err := config.Load(path)
	require.Error(t, err)
}

func TestLoadRejectsAllZeroWeightBackends(t *testing.T) {
	path := writeConfig(t, `
[[server]]
listen = "127.0.0.1:8080"

  [server.forward]
  algorithm = "WRR"

    [[server.forward.backends]]
    address = "127.0.0.1:9000"
    weight = 0
`)

	_, err := config.Load(path)
	require.ErrorContains(t, err, "positive weight")
}

func TestLoadRejectsEmptyListen(t *testing.T) {
	path := writeConfig(t, `
[[server]]
forward = "127.0.0.1:9000"
`)

	_, err := config.Load(path)
	require.Error(t, err)
}
