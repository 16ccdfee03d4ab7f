package tenantconfig

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/lead-relay/internal/locations"
	"github.com/wolfman30/lead-relay/pkg/logging"
)

type recordingObserver struct {
	mu       sync.Mutex
	statuses []string
}

func (r *recordingObserver) ObserveConfigFetch(status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
}

func testSnapshot() Snapshot {
	return Snapshot{
		Locations: []locations.Location{{ID: "1", Name: "Phoenix"}, {ID: "2", Name: "Scottsdale"}},
		Sources:   []string{"Google Ads - Tanner", "Website"},
	}
}

func TestEnsureLoaded_FetchesOnce(t *testing.T) {
	var calls atomic.Int32
	obs := &recordingObserver{}
	cache := NewCache(func(context.Context) (Snapshot, error) {
		calls.Add(1)
		return testSnapshot(), nil
	}, logging.New("error"), obs)

	assert.False(t, cache.Loaded())
	for i := 0; i < 3; i++ {
		snap, err := cache.EnsureLoaded(context.Background())
		require.NoError(t, err)
		assert.Len(t, snap.Locations, 2)
	}
	assert.Equal(t, int32(1), calls.Load())
	assert.True(t, cache.Loaded())
	assert.Equal(t, []string{"ok"}, obs.statuses)
}

func TestEnsureLoaded_FailureIsNotCached(t *testing.T) {
	var calls atomic.Int32
	obs := &recordingObserver{}
	boom := errors.New("network down")
	cache := NewCache(func(context.Context) (Snapshot, error) {
		if calls.Add(1) == 1 {
			return Snapshot{}, boom
		}
		return testSnapshot(), nil
	}, logging.New("error"), obs)

	_, err := cache.EnsureLoaded(context.Background())
	require.ErrorIs(t, err, boom)
	assert.False(t, cache.Loaded())
	_, ok := cache.Snapshot()
	assert.False(t, ok)

	snap, err := cache.EnsureLoaded(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2", snap.Locations[1].ID)
	assert.Equal(t, []string{"error", "ok"}, obs.statuses)
}

func TestEnsureLoaded_RejectsEmptyLocations(t *testing.T) {
	cache := NewCache(func(context.Context) (Snapshot, error) {
		return Snapshot{Sources: []string{"Website"}}, nil
	}, logging.New("error"), nil)

	_, err := cache.EnsureLoaded(context.Background())
	require.ErrorIs(t, err, ErrNoLocations)
	assert.False(t, cache.Loaded())
}

func TestEnsureLoaded_EmptySourcesAccepted(t *testing.T) {
	cache := NewCache(func(context.Context) (Snapshot, error) {
		return Snapshot{Locations: []locations.Location{{ID: "1", Name: "Mesa"}}}, nil
	}, logging.New("error"), nil)

	snap, err := cache.EnsureLoaded(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Sources)
	assert.False(t, snap.HasSource("Website"))
}

func TestEnsureLoaded_ConcurrentCallersShareFetch(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	cache := NewCache(func(context.Context) (Snapshot, error) {
		calls.Add(1)
		<-release
		return testSnapshot(), nil
	}, logging.New("error"), nil)

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.EnsureLoaded(context.Background())
			errs <- err
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestEnsureLoaded_CallerCancellation(t *testing.T) {
	release := make(chan struct{})
	cache := NewCache(func(ctx context.Context) (Snapshot, error) {
		<-release
		return testSnapshot(), ctx.Err()
	}, logging.New("error"), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := cache.EnsureLoaded(ctx)
	require.ErrorIs(t, err, context.Canceled)

	close(release)
	require.Eventually(t, cache.Loaded, time.Second, 5*time.Millisecond)
}

func TestSnapshotIsCopied(t *testing.T) {
	src := testSnapshot()
	cache := NewCache(func(context.Context) (Snapshot, error) { return src, nil }, logging.New("error"), nil)

	_, err := cache.EnsureLoaded(context.Background())
	require.NoError(t, err)
	src.Locations[0].ID = "mutated"

	snap, ok := cache.Snapshot()
	require.True(t, ok)
	assert.Equal(t, "1", snap.Locations[0].ID)
}

func TestNewCachePanicsWithoutFetch(t *testing.T) {
	assert.Panics(t, func() { NewCache(nil, nil, nil) })
}
