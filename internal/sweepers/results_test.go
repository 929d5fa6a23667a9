package sweepers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePruner struct {
	mu      sync.Mutex
	cutoffs []time.Time
	removed int64
	err     error
}

func (f *fakePruner) PruneSniffResults(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoffs = append(f.cutoffs, cutoff)
	return f.removed, f.err
}

func (f *fakePruner) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cutoffs)
}

func TestSweepUsesTTL(t *testing.T) {
	logger := zerolog.Nop()
	store := &fakePruner{removed: 3}
	s := NewResultSweeper(store, &logger, time.Minute, 24*time.Hour)
	fixed := time.Date(2024, 5, 2, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	removed, err := s.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)
	require.Len(t, store.cutoffs, 1)
	assert.Equal(t, fixed.Add(-24*time.Hour), store.cutoffs[0])
}

func TestSweepError(t *testing.T) {
	logger := zerolog.Nop()
	s := NewResultSweeper(&fakePruner{err: errors.New("db down")}, &logger, time.Minute, time.Hour)

	_, err := s.Sweep(context.Background())
	assert.EqualError(t, err, "db down")
}

func TestStartStops(t *testing.T) {
	logger := zerolog.Nop()
	store := &fakePruner{}
	s := NewResultSweeper(store, &logger, 5*time.Millisecond, time.Hour)

	done := make(chan struct{})
	go func() {
		s.Start(context.Background())
		close(done)
	}()

	assert.Eventually(t, func() bool { return store.calls() > 0 }, time.Second, 5*time.Millisecond)
	s.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestStartCancelled(t *testing.T) {
	logger := zerolog.Nop()
	s := NewResultSweeper(&fakePruner{}, &logger, time.Hour, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Start(ctx)
}
