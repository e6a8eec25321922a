package scheduler

import (
	"fmt"

	"github.com/L3oNav/xnav/internal/config"
	"github.com/L3oNav/xnav/internal/ring"
)

// weightedRoundRobin is the classical WRR algorithm: every backend's
// address is repeated weight times in a flat cycle, walked in order.
//
// TODO: interleave backends (smooth WRR) instead of running each one's
// whole weight consecutively, so a burst of requests doesn't land on a
// single heavy backend back to back.
type weightedRoundRobin struct {
	cycle *ring.Ring[string]
}

func newWeightedRoundRobin(backends []config.BackendConfig) (Scheduler, error) {
	cycle := make([]string, 0, len(backends))
	for _, backend := range backends {
		for w := backend.Weight; w > 0; w-- {
			cycle = append(cycle, backend.Address)
		}
	}
	if len(cycle) == 0 {
		return nil, fmt.Errorf("weighted round robin: no backend has a positive weight")
	}
	return &weightedRoundRobin{cycle: ring.New(cycle)}, nil
}

func (w *weightedRoundRobin) NextServer() string {
	return w.cycle.Next()
}
