package config

import (
	"fmt"
	"net"

	"github.com/go-playground/validator/v10"
)

// structValidate runs the "validate" struct tags declared on Config and
// its nested types: required fields, minimum slice lengths, and the
// dive into Servers/Patterns/Backends. It catches the shape errors tags
// can express; the cross-field and semantic checks tags can't express
// (parsable addresses, the forward/serve tagged union, an aggregate
// positive weight) are run afterwards by the hand-written validate()
// methods below.
var structValidate = validator.New()

// Validate checks every invariant the core packages rely on holding
// before a Config reaches them: the struct-tag shape rules, then
// per-section semantic checks (parsable addresses, the forward/serve
// tagged union PatternConfig can't express in a tag, at least one
// positive backend weight per forward group).
func (c *Config) Validate() error {
	if err := structValidate.Struct(c); err != nil {
		return fmt.Errorf("%w", err)
	}
	for i := range c.Servers {
		if err := c.Servers[i].validate(); err != nil {
			return fmt.Errorf("server[%d] (%s): %w", i, c.Servers[i].LogLabel, err)
		}
	}
	return nil
}

func (s *ServerConfig) validate() error {
	for _, addr := range s.Listen {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return fmt.Errorf("listen address %q: %w", addr, err)
		}
	}
	for i := range s.Patterns {
		if err := s.Patterns[i].validate(); err != nil {
			return fmt.Errorf("pattern[%d] (%s): %w", i, s.Patterns[i].URI, err)
		}
	}
	return nil
}

func (p *PatternConfig) validate() error {
	if p.Forward == nil && p.Serve == nil {
		return fmt.Errorf("pattern must set 'forward' or 'serve'")
	}
	if p.Forward != nil && p.Serve != nil {
		return fmt.Errorf("pattern must not set both 'forward' and 'serve'")
	}
	if p.Forward != nil {
		if err := p.Forward.validate(); err != nil {
			return err
		}
	}
	if p.Serve != nil {
		if err := p.Serve.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (f *ForwardConfig) validate() error {
	positiveWeight := false
	for i, b := range f.Backends {
		if _, _, err := net.SplitHostPort(b.Address); err != nil {
			return fmt.Errorf("backend[%d] address %q: %w", i, b.Address, err)
		}
		if b.Weight > 0 {
			positiveWeight = true
		}
	}
	if !positiveWeight {
		return fmt.Errorf("at least one backend must have a positive weight")
	}
	if f.Algorithm != Wrr {
		return fmt.Errorf("unknown algorithm %q", f.Algorithm)
	}
	return nil
}

func (s *ServeConfig) validate() error {
	return nil
}
