package sweeper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-circulation-backend/config"
	"library-circulation-backend/internal/circulation"
	"library-circulation-backend/internal/model"
)

type fakeEngine struct {
	mu       sync.Mutex
	stale    []model.CirculationRequest
	listErr  error
	failures map[string]error
	expired  []string
	windows  []time.Duration
}

func (f *fakeEngine) StaleRequests(_ context.Context, window time.Duration) ([]model.CirculationRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.windows = append(f.windows, window)
	return f.stale, f.listErr
}

func (f *fakeEngine) ExpireRequest(_ context.Context, id string) (*model.CirculationRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failures[id]; err != nil {
		return nil, err
	}
	f.expired = append(f.expired, id)
	return &model.CirculationRequest{ID: id, State: model.StateExpired}, nil
}

func (f *fakeEngine) sweeps() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.windows)
}

func TestSweepOnce(t *testing.T) {
	eng := &fakeEngine{
		stale: []model.CirculationRequest{{ID: "r-1"}, {ID: "r-2"}, {ID: "r-3"}},
		failures: map[string]error{
			"r-2": fmt.Errorf("%w: cannot expire a issued request", circulation.ErrInvalidStateTransition),
			"r-3": errors.New("disk full"),
		},
	}
	svc := NewService(config.SweeperConfig{Enabled: true, Interval: time.Minute}, 48*time.Hour, eng)

	res, err := svc.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Expired: 1, Skipped: 1, Failed: 1}, res)
	assert.Equal(t, []string{"r-1"}, eng.expired)
	assert.Equal(t, []time.Duration{48 * time.Hour}, eng.windows)
}

func TestSweepOnce_ListError(t *testing.T) {
	eng := &fakeEngine{listErr: errors.New("db down")}
	svc := NewService(config.SweeperConfig{Enabled: true}, time.Hour, eng)

	_, err := svc.SweepOnce(context.Background())
	assert.Error(t, err)
}

func TestSweepOnce_DisabledWindow(t *testing.T) {
	eng := &fakeEngine{stale: []model.CirculationRequest{{ID: "r-1"}}}
	svc := NewService(config.SweeperConfig{Enabled: true}, 0, eng)

	res, err := svc.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
	assert.Zero(t, eng.sweeps())
}

func TestRun_SweepsUntilCancelled(t *testing.T) {
	eng := &fakeEngine{}
	svc := NewService(config.SweeperConfig{Enabled: true, Interval: 10 * time.Millisecond}, time.Hour, eng)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return eng.sweeps() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestRun_Disabled(t *testing.T) {
	eng := &fakeEngine{}
	svc := NewService(config.SweeperConfig{Enabled: false, Interval: time.Millisecond}, time.Hour, eng)

	svc.Run(context.Background())
	assert.Zero(t, eng.sweeps())
}
