package session

import (
	"context"
	"sync"
	"testing"
	"time"
)

// fakeTicker is a Ticker fired by hand.
type fakeTicker struct {
	c       chan time.Time
	mu      sync.Mutex
	stopped bool
}

func (f *fakeTicker) C() <-chan time.Time { return f.c }

func (f *fakeTicker) Stop() {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()
}

func (f *fakeTicker) isStopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

// fire delivers one tick and fails if the runner does not consume it.
func (f *fakeTicker) fire(t *testing.T) {
	t.Helper()
	select {
	case f.c <- time.Time{}:
	case <-time.After(2 * time.Second):
		t.Fatal("tick not consumed")
	}
}

// fakeTickers records every ticker a runner creates, in creation order.
type fakeTickers struct {
	mu  sync.Mutex
	all []*fakeTicker
}

func (f *fakeTickers) New(time.Duration) Ticker {
	t := &fakeTicker{c: make(chan time.Time)}
	f.mu.Lock()
	f.all = append(f.all, t)
	f.mu.Unlock()
	return t
}

func (f *fakeTickers) get(i int) *fakeTicker {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i >= len(f.all) {
		return nil
	}
	return f.all[i]
}

func (f *fakeTickers) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.all)
}

func (f *fakeTickers) running() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, t := range f.all {
		if !t.isStopped() {
			n++
		}
	}
	return n
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func newTestRunner(t *testing.T, restSeconds int) (*Runner, *fakeTickers) {
	t.Helper()
	ft := &fakeTickers{}
	r := NewRunner(context.Background(), New(testBlocks(), restSeconds), WithTickerFunc(ft.New))
	t.Cleanup(r.Close)
	waitFor(t, "elapsed ticker", func() bool { return ft.count() == 1 })
	return r, ft
}

// TestRunnerElapsedTicks verifies elapsed ticks advance the session.
func TestRunnerElapsedTicks(t *testing.T) {
	r, ft := newTestRunner(t, 0)
	elapsed := ft.get(0)
	for i := 0; i < 3; i++ {
		elapsed.fire(t)
	}
	waitFor(t, "elapsed = 3", func() bool { return r.Session().Snapshot().ElapsedSeconds == 3 })
}

// TestRunnerPauseReleasesElapsedTicker verifies pausing stops the elapsed
// ticker and resuming acquires a new one.
func TestRunnerPauseReleasesElapsedTicker(t *testing.T) {
	r, ft := newTestRunner(t, 0)

	if !r.PauseResume() {
		t.Fatal("expected paused")
	}
	waitFor(t, "elapsed ticker stopped", func() bool { return ft.get(0).isStopped() })
	if ft.running() != 0 {
		t.Errorf("running tickers = %d, want 0 while paused and resting idle", ft.running())
	}

	r.PauseResume()
	waitFor(t, "new elapsed ticker", func() bool { return ft.count() == 2 && ft.running() == 1 })
	ft.get(1).fire(t)
	waitFor(t, "elapsed = 1", func() bool { return r.Session().Snapshot().ElapsedSeconds == 1 })
}

// TestRunnerRestTickerLifecycle verifies the rest ticker is held only
// while the countdown is active and released when it reaches zero.
func TestRunnerRestTickerLifecycle(t *testing.T) {
	r, ft := newTestRunner(t, 3)

	if !r.ToggleSetCompletion(1, 1) {
		t.Fatal("toggle not applied")
	}
	waitFor(t, "rest ticker", func() bool { return ft.count() == 2 })
	rest := ft.get(1)

	for i := 0; i < 3; i++ {
		rest.fire(t)
	}
	waitFor(t, "rest ticker stopped", rest.isStopped)
	if got := r.Session().Snapshot().Rest; got != (RestState{}) {
		t.Errorf("rest = %+v, want idle", got)
	}
	if ft.get(0).isStopped() {
		t.Error("elapsed ticker stopped with rest")
	}
}

// TestRunnerNewSetRestartsRestTicker verifies completing a set during rest
// replaces the rest ticker so the new countdown starts on a fresh second.
func TestRunnerNewSetRestartsRestTicker(t *testing.T) {
	r, ft := newTestRunner(t, 0)
	r.ToggleSetCompletion(1, 1)
	waitFor(t, "rest ticker", func() bool { return ft.count() == 2 })
	ft.get(1).fire(t)
	waitFor(t, "rest = 89", func() bool { return r.Session().Snapshot().Rest.Remaining == 89 })

	r.ToggleSetCompletion(1, 2)
	waitFor(t, "second rest ticker", func() bool { return ft.count() == 3 })
	if !ft.get(1).isStopped() {
		t.Error("old rest ticker still running")
	}
	if got := r.Session().Snapshot().Rest.Remaining; got != DefaultRestSeconds {
		t.Errorf("rest remaining = %d, want %d", got, DefaultRestSeconds)
	}
	ft.get(2).fire(t)
	waitFor(t, "rest = 89 again", func() bool { return r.Session().Snapshot().Rest.Remaining == 89 })
}

// TestRunnerSkipReleasesRestTicker verifies skip stops the rest ticker.
func TestRunnerSkipReleasesRestTicker(t *testing.T) {
	r, ft := newTestRunner(t, 0)
	r.ToggleSetCompletion(1, 1)
	waitFor(t, "rest ticker", func() bool { return ft.count() == 2 })

	r.SkipRest()
	waitFor(t, "rest ticker stopped", ft.get(1).isStopped)
}

// TestRunnerRestContinuesWhilePaused verifies pausing keeps the rest
// ticker running.
func TestRunnerRestContinuesWhilePaused(t *testing.T) {
	r, ft := newTestRunner(t, 0)
	r.ToggleSetCompletion(1, 1)
	waitFor(t, "rest ticker", func() bool { return ft.count() == 2 })

	r.PauseResume()
	waitFor(t, "elapsed ticker stopped", ft.get(0).isStopped)
	ft.get(1).fire(t)
	waitFor(t, "rest = 89", func() bool { return r.Session().Snapshot().Rest.Remaining == 89 })
	if ft.get(1).isStopped() {
		t.Error("rest ticker stopped by pause")
	}
}

// TestRunnerCloseReleasesEverything verifies Close stops all tickers,
// closes subscriber channels and is idempotent.
func TestRunnerCloseReleasesEverything(t *testing.T) {
	r, ft := newTestRunner(t, 0)
	r.ToggleSetCompletion(1, 1)
	waitFor(t, "rest ticker", func() bool { return ft.count() == 2 })
	ch := r.Subscribe()

	r.Close()
	r.Close()

	if n := ft.running(); n != 0 {
		t.Errorf("running tickers after Close = %d, want 0", n)
	}
	for range ch {
	}
	select {
	case <-r.Done():
	default:
		t.Error("Done not closed after Close")
	}

	late := r.Subscribe()
	if _, ok := <-late; ok {
		t.Error("subscribe after Close returned an open channel")
	}
	r.Unsubscribe(ch)
}

// TestRunnerStopsOnContextCancel verifies the loop exits with its parent context.
func TestRunnerStopsOnContextCancel(t *testing.T) {
	ft := &fakeTickers{}
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRunner(ctx, New(testBlocks(), 0), WithTickerFunc(ft.New))
	waitFor(t, "elapsed ticker", func() bool { return ft.count() == 1 })

	cancel()
	select {
	case <-r.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop")
	}
	if ft.running() != 0 {
		t.Error("ticker left running after cancel")
	}
	r.Close()
}

// TestRunnerBroadcastsSnapshots verifies subscribers see operations and ticks.
func TestRunnerBroadcastsSnapshots(t *testing.T) {
	r, ft := newTestRunner(t, 0)
	ch := r.Subscribe()
	defer r.Unsubscribe(ch)

	recv := func() Snapshot {
		t.Helper()
		select {
		case s := <-ch:
			return s
		case <-time.After(2 * time.Second):
			t.Fatal("no snapshot")
		}
		return Snapshot{}
	}

	r.AdjustSetValue(1, 1, FieldWeight, 5)
	if got := recv().Exercises[0].Sets[0].Weight; got != 105 {
		t.Errorf("weight = %d, want 105", got)
	}

	ft.get(0).fire(t)
	if got := recv().ElapsedSeconds; got != 1 {
		t.Errorf("elapsed = %d, want 1", got)
	}
}

// TestRunnerUnknownTargetDoesNotWake verifies no-op operations report false.
func TestRunnerUnknownTargetDoesNotWake(t *testing.T) {
	r, _ := newTestRunner(t, 0)
	if r.ToggleSetCompletion(5, 5) {
		t.Error("toggle unknown reported applied")
	}
	if r.ExtendRest(30) {
		t.Error("extend while idle reported applied")
	}
	if r.AdjustSetValue(1, 7, FieldReps, 1) {
		t.Error("adjust unknown reported applied")
	}
}
