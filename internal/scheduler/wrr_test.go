package scheduler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/L3oNav/xnav/internal/config"
	"github.com/L3oNav/xnav/internal/scheduler"
)

func TestWeightedRoundRobinProducesExpectedCycle(t *testing.T) {
	backends := []config.BackendConfig{
		{Address: "127.0.0.1:8080", Weight: 1},
		{Address: "127.0.0.1:8081", Weight: 3},
		{Address: "127.0.0.1:8082", Weight: 2},
	}

	s, err := scheduler.New(config.Wrr, backends)
	require.NoError(t, err)

	expected := []string{
		"127.0.0.1:8080",
		"127.0.0.1:8081",
		"127.0.0.1:8081",
		"127.0.0.1:8081",
		"127.0.0.1:8082",
		"127.0.0.1:8082",
	}

	for i, want := range expected {
		assert.Equal(t, want, s.NextServer(), "position %d", i)
	}

	// Cycle repeats.
	assert.Equal(t, expected[0], s.NextServer())
}

func TestSchedulerRejectsUnknownAlgorithm(t *testing.T) {
	_, err := scheduler.New("round-robin-plus-plus", []config.BackendConfig{
		{Address: "127.0.0.1:8080", Weight: 1},
	})
	require.Error(t, err)
}

func TestWeightedRoundRobinRejectsAllZeroWeights(t *testing.T) {
	_, err := scheduler.New(config.Wrr, []config.BackendConfig{
		{Address: "127.0.0.1:8080", Weight: 0},
	})
	require.Error(t, err)
}
