// Package config defines the proxy's configuration model and loads it
// from a single TOML file using koanf. Environment variables only choose
// which file is read (XNAV_CONFIG); they do not override its values.
package config

// Config is the root of the proxy's configuration: a list of independent
// servers, each owning one or more listen addresses and an ordered list
// of URI patterns.
type Config struct {
	Servers []ServerConfig `koanf:"server" validate:"required,min=1,dive"`

	// MetricsAddr, if set, exposes Prometheus metrics on this address via
	// a debug HTTP server separate from every proxy listen address.
	MetricsAddr string `koanf:"metrics_addr"`
}

// ServerConfig describes one proxy server: the sockets it listens on,
// the connection cap it enforces, and the patterns it dispatches to.
type ServerConfig struct {
	Listen      []string        `koanf:"listen" validate:"required,min=1"`
	Name        string          `koanf:"name"`
	Connections int             `koanf:"connections" validate:"min=1"`
	Patterns    []PatternConfig `koanf:"match" validate:"required,min=1,dive"`

	// LogLabel identifies this server in log lines. Derived from Name if
	// set, otherwise from the first listen address; never user-settable
	// directly.
	LogLabel string `koanf:"-"`
}

// PatternConfig is a single URI-prefix rule within a server. Exactly one
// of Forward or Serve must be set — enforced by Validate, since TOML has
// no native way to express a tagged union.
type PatternConfig struct {
	URI     string         `koanf:"uri"`
	Forward *ForwardConfig `koanf:"forward"`
	Serve   *ServeConfig   `koanf:"serve"`

	// HeaderRewrite holds the optional per-pattern header policy
	// recovered from the original project's config.rs but only briefly
	// alluded to in the distilled spec's "optional header-rewrite
	// policies" note.
	HeaderRewrite *HeaderRewriteConfig `koanf:"headers"`
}

// Algorithm names a load-balancing strategy usable in a ForwardConfig.
type Algorithm string

// Wrr is the only algorithm shipped today; the scheduler package's
// registry lets a second one register without touching this type.
const Wrr Algorithm = "WRR"

// ForwardConfig describes a set of backends a pattern proxies to.
type ForwardConfig struct {
	Algorithm Algorithm       `koanf:"algorithm"`
	Backends  []BackendConfig `koanf:"backends" validate:"required,min=1,dive"`
}

// BackendConfig is one upstream address and its WRR weight.
type BackendConfig struct {
	Address string `koanf:"address" validate:"required"`
	Weight  int    `koanf:"weight" validate:"min=0"`
}

// ServeConfig describes a filesystem root a pattern serves statically.
type ServeConfig struct {
	Root string `koanf:"root" validate:"required"`
}

// HeaderRewriteConfig optionally rewrites the Forwarded/Server headers
// this proxy would otherwise generate automatically.
type HeaderRewriteConfig struct {
	// ForwardedBy overrides the "by=" identifier in the Forwarded header;
	// defaults to the server's listen address when empty.
	ForwardedBy string `koanf:"forwarded_by"`
	// ServerName overrides the Server response header's product token.
	ServerName string `koanf:"server_name"`
	// Override applies to the Server header of forwarded responses only:
	// when true the proxy's value replaces the backend's Server header,
	// when false it is appended to the backend's value.
	Override bool `koanf:"override"`
}

// DefaultConnections is applied when a server omits "connections".
const DefaultConnections = 1024

// DefaultURI is applied to a pattern that omits "uri".
const DefaultURI = "/"
