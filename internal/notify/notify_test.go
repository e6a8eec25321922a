package notify_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/L3oNav/xnav/internal/notify"
)

func TestSendIsObservedByExistingSubscribers(t *testing.T) {
	n := notify.New()
	sub := n.Subscribe()
	defer sub.Release()

	_, ok := sub.Receive()
	assert.False(t, ok)

	n.Send(notify.Shutdown)

	got, ok := sub.Receive()
	require.True(t, ok)
	assert.Equal(t, notify.Shutdown, got)
}

func TestCollectAcknowledgementsWaitsForEverySubscriber(t *testing.T) {
	n := notify.New()
	subs := make([]*notify.Subscription, 5)
	for i := range subs {
		subs[i] = n.Subscribe()
	}

	done := make(chan struct{})
	go func() {
		n.CollectAcknowledgements()
		close(done)
	}()

	for i, sub := range subs {
		select {
		case <-done:
			t.Fatalf("CollectAcknowledgements returned early after %d releases", i)
		default:
		}
		sub.Release()
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("CollectAcknowledgements did not return after every subscriber released")
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	n := notify.New()
	sub := n.Subscribe()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub.Release()
		}()
	}
	wg.Wait()

	done := make(chan struct{})
	go func() {
		n.CollectAcknowledgements()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("CollectAcknowledgements hung despite idempotent Release")
	}
}
