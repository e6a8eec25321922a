package supervisor_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/L3oNav/xnav/internal/logging"
	"github.com/L3oNav/xnav/internal/supervisor"
)

func TestTreeRunsAndStopsAService(t *testing.T) {
	tree := supervisor.New(logging.NewSlogLogger(), "test", supervisor.DefaultTreeConfig())

	svc := supervisor.NewMockService("svc-a")
	tree.Add(svc)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	require.Eventually(t, func() bool {
		return svc.StartCount() >= 1
	}, time.Second, time.Millisecond)

	cancel()
	<-errCh

	assert.GreaterOrEqual(t, svc.StopCount(), int32(1))
}

func TestTreeRestartsAFailingService(t *testing.T) {
	tree := supervisor.New(logging.NewSlogLogger(), "test", supervisor.DefaultTreeConfig())

	svc := supervisor.NewMockService("flaky")
	svc.SetFailCount(2)
	tree.Add(svc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tree.ServeBackground(ctx)

	require.Eventually(t, func() bool {
		return svc.StartCount() >= 3
	}, 2*time.Second, time.Millisecond)
}
