package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/five82/breate/internal/engine"
)

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 2 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 2 * time.Second},
		{"negative failures", -1, 2 * time.Second},
		{"one failure", 1, 4 * time.Second},
		{"two failures", 2, 8 * time.Second},
		{"three failures", 3, 16 * time.Second},
		{"four failures capped", 4, 30 * time.Second}, // Would be 32s, capped to 30s
		{"many failures capped", 10, 30 * time.Second},
		{"shift overflow capped", 70, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	baseInterval := 2 * time.Second
	for failures := 0; failures <= 20; failures++ {
		got := calculateBackoff(failures, baseInterval)
		if got > maxBackoff {
			t.Errorf("calculateBackoff(%d, %v) = %v, exceeds maxBackoff %v", failures, baseInterval, got, maxBackoff)
		}
	}
}

func TestCalculateBackoff_LongIntervalNeverShrinks(t *testing.T) {
	interval := time.Minute
	for failures := 0; failures <= 5; failures++ {
		if got := calculateBackoff(failures, interval); got != interval {
			t.Errorf("calculateBackoff(%d, %v) = %v, want %v", failures, interval, got, interval)
		}
	}
}

type fakeLoader struct {
	name  string
	err   error
	loads atomic.Int32
}

func (f *fakeLoader) Name() string { return f.name }

func (f *fakeLoader) Load(context.Context) (engine.View, error) {
	f.loads.Add(1)
	return engine.View{}, f.err
}

func TestPollOnce_IgnoresSupersededLoads(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)

	ok := &fakeLoader{name: "coalitions"}
	superseded := &fakeLoader{name: "discover", err: engine.ErrSuperseded}
	closed := &fakeLoader{name: "collabhub", err: engine.ErrClosed}

	assert.True(t, pollOnce(context.Background(), []Loader{ok, superseded, closed}, logger))
	assert.Equal(t, 2, logs.FilterMessage("poll skipped").Len())

	failing := &fakeLoader{name: "collabcircle", err: errors.New("status 503")}
	assert.False(t, pollOnce(context.Background(), []Loader{ok, failing}, logger))
	assert.Equal(t, int32(2), ok.loads.Load(), "one failure does not stop the round")
	assert.Equal(t, 1, logs.FilterMessage("poll load failed").Len())
}

func TestPollOnce_StopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := &fakeLoader{name: "discover"}
	assert.True(t, pollOnce(ctx, []Loader{l}, zap.NewNop()))
	assert.Zero(t, l.loads.Load())
}

func TestStartPoller_ReloadsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	l := &fakeLoader{name: "discover"}

	done := StartPoller(ctx, []Loader{l}, 5*time.Millisecond, nil)
	require.Eventually(t, func() bool { return l.loads.Load() >= 3 }, 2*time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
	stopped := l.loads.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, l.loads.Load())
}

func TestStartPoller_BacksOffOnFailure(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := &fakeLoader{name: "discover", err: errors.New("unreachable")}
	done := StartPoller(ctx, []Loader{l}, 5*time.Millisecond, zap.New(core))

	require.Eventually(t, func() bool {
		return logs.FilterMessage("poll failed, backing off").Len() >= 2
	}, 2*time.Second, time.Millisecond)
	entries := logs.FilterMessage("poll failed, backing off").All()
	assert.Equal(t, int64(1), entries[0].ContextMap()["consecutive_failures"])
	assert.Equal(t, int64(2), entries[1].ContextMap()["consecutive_failures"])

	cancel()
	<-done
}
