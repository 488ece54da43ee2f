package debounce

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncer_CoalescesBurstIntoLastCall(t *testing.T) {
	d := New(40 * time.Millisecond)

	var (
		calls atomic.Int32
		mu    sync.Mutex
		last  string
	)
	// Edits at t=0,5,10,15 against a 40ms quiet window.
	for _, v := range []string{"f", "fi", "fil", "film"} {
		v := v
		d.Trigger(func() {
			calls.Add(1)
			mu.Lock()
			last = v
			mu.Unlock()
		})
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(120 * time.Millisecond)

	if got := calls.Load(); got != 1 {
		t.Fatalf("calls = %d, want 1", got)
	}
	mu.Lock()
	defer mu.Unlock()
	if last != "film" {
		t.Fatalf("last = %q, want film", last)
	}
}

func TestDebouncer_FiresOncePerQuietPeriod(t *testing.T) {
	d := New(10 * time.Millisecond)
	var calls atomic.Int32

	d.Trigger(func() { calls.Add(1) })
	time.Sleep(60 * time.Millisecond)
	d.Trigger(func() { calls.Add(1) })
	time.Sleep(60 * time.Millisecond)

	if got := calls.Load(); got != 2 {
		t.Fatalf("calls = %d, want 2 (one per settled burst)", got)
	}
}

func TestDebouncer_Cancel(t *testing.T) {
	d := New(20 * time.Millisecond)
	var called atomic.Bool

	d.Trigger(func() { called.Store(true) })
	if !d.Pending() {
		t.Fatalf("Pending() = false right after Trigger")
	}
	d.Cancel()
	time.Sleep(60 * time.Millisecond)

	if called.Load() {
		t.Fatalf("callback ran after Cancel")
	}
	if !d.Trigger(func() {}) {
		t.Fatalf("Trigger after Cancel should still schedule")
	}
}

func TestDebouncer_StopPreventsFutureFires(t *testing.T) {
	d := New(10 * time.Millisecond)
	var called atomic.Bool

	d.Trigger(func() { called.Store(true) })
	d.Stop()
	if d.Trigger(func() { called.Store(true) }) {
		t.Fatalf("Trigger after Stop returned true")
	}
	time.Sleep(40 * time.Millisecond)

	if called.Load() {
		t.Fatalf("callback ran after Stop")
	}
	if d.Pending() {
		t.Fatalf("Pending() = true after Stop")
	}
}

func TestDebouncer_DefaultDuration(t *testing.T) {
	if got := New(0).Duration(); got != DefaultDuration {
		t.Fatalf("Duration() = %v, want %v", got, DefaultDuration)
	}
}
