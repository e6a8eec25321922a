package ring_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/L3oNav/xnav/internal/ring"
)

func TestRingCyclesInOrder(t *testing.T) {
	r := ring.New([]int{10, 20, 30})

	got := make([]int, 7)
	for i := range got {
		got[i] = r.Next()
	}

	assert.Equal(t, []int{10, 20, 30, 10, 20, 30, 10}, got)
}

func TestRingSingleValueAlwaysReturnsIt(t *testing.T) {
	r := ring.New([]string{"only"})

	for i := 0; i < 5; i++ {
		assert.Equal(t, "only", r.Next())
	}
}

func TestRingPanicsOnEmpty(t *testing.T) {
	assert.Panics(t, func() {
		ring.New([]int{})
	})
}

func TestRingConcurrentUseCoversEveryValueEvenly(t *testing.T) {
	r := ring.New([]int{1, 2, 3, 4})

	const iterations = 4000
	counts := make([]int, 4)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < iterations; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v := r.Next()
			mu.Lock()
			counts[v-1]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	total := 0
	for _, c := range counts {
		total += c
	}
	assert.Equal(t, iterations, total)
	for i, c := range counts {
		assert.Equal(t, iterations/len(counts), c, "value %d", i+1)
	}
}
