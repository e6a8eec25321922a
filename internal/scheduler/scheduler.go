// Package scheduler selects which backend address should handle the
// next forwarded request.
package scheduler

import (
	"fmt"

	"github.com/L3oNav/xnav/internal/config"
)

// Scheduler picks the next backend to send a request to.
type Scheduler interface {
	NextServer() string
}

// Factory builds a Scheduler from a validated backend list.
type Factory func(backends []config.BackendConfig) (Scheduler, error)

var registry = map[config.Algorithm]Factory{
	config.Wrr: newWeightedRoundRobin,
}

// New builds the Scheduler named by algorithm over backends. Returns an
// error if algorithm is not registered — a second algorithm can be added
// without touching any caller by registering it here.
func New(algorithm config.Algorithm, backends []config.BackendConfig) (Scheduler, error) {
	factory, ok := registry[algorithm]
	if !ok {
		return nil, fmt.Errorf("scheduler: unknown algorithm %q", algorithm)
	}
	return factory(backends)
}
