package session

import (
	"context"
	"sync"
	"time"
)

// Ticker is a periodic trigger. It matches the subset of *time.Ticker the
// runner uses.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFunc creates a Ticker firing every d.
type TickerFunc func(d time.Duration) Ticker

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

func newRealTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

// Option configures a Runner.
type Option func(*Runner)

// WithTickerFunc replaces the ticker constructor. Tests use it to drive
// ticks by hand.
func WithTickerFunc(fn TickerFunc) Option {
	return func(r *Runner) { r.newTicker = fn }
}

// Runner drives a Session's timers from one goroutine. A ticker is held
// only while its timer runs: the elapsed ticker while not paused, the rest
// ticker while rest is active. Close releases both.
//
// All mutations should go through the Runner so that timer changes take
// effect and subscribers see the new state.
type Runner struct {
	sess      *Session
	newTicker TickerFunc

	wake   chan struct{}
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once

	subs   map[chan Snapshot]struct{}
	subsMu sync.Mutex
	closed bool
}

// NewRunner starts the tick loop for sess. The loop stops when ctx is
// cancelled or Close is called.
func NewRunner(ctx context.Context, sess *Session, opts ...Option) *Runner {
	r := &Runner{
		sess:      sess,
		newTicker: newRealTicker,
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
		subs:      make(map[chan Snapshot]struct{}),
	}
	for _, o := range opts {
		o(r)
	}
	ctx, r.cancel = context.WithCancel(ctx)
	go r.loop(ctx)
	return r
}

// Session returns the driven session for read access.
func (r *Runner) Session() *Session { return r.sess }

func (r *Runner) loop(ctx context.Context) {
	defer close(r.done)

	var elapsed, rest Ticker
	var restStart uint64
	defer func() {
		if elapsed != nil {
			elapsed.Stop()
		}
		if rest != nil {
			rest.Stop()
		}
		r.closeSubscribers()
	}()

	for {
		wantElapsed, wantRest, start := r.sess.timers()
		if start != restStart && rest != nil {
			// A new countdown gets a full first second.
			rest.Stop()
			rest = nil
		}
		restStart = start
		elapsed = r.reconcile(elapsed, wantElapsed)
		rest = r.reconcile(rest, wantRest)

		select {
		case <-ctx.Done():
			return
		case <-r.wake:
		case <-tickC(elapsed):
			r.sess.TickElapsed()
		case <-tickC(rest):
			r.sess.TickRest()
		}
		r.broadcast(r.sess.Snapshot())
	}
}

// reconcile acquires or releases t so that it runs iff want.
func (r *Runner) reconcile(t Ticker, want bool) Ticker {
	switch {
	case want && t == nil:
		return r.newTicker(time.Second)
	case !want && t != nil:
		t.Stop()
		return nil
	}
	return t
}

// tickC returns t's channel, or nil (never ready) for a released ticker.
func tickC(t Ticker) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.C()
}

func (r *Runner) notify() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// ToggleSetCompletion forwards to the session. See Session.ToggleSetCompletion.
func (r *Runner) ToggleSetCompletion(exerciseID, setID int) bool {
	ok := r.sess.ToggleSetCompletion(exerciseID, setID)
	if ok {
		r.notify()
	}
	return ok
}

// AdjustSetValue forwards to the session.
func (r *Runner) AdjustSetValue(exerciseID, setID int, field Field, delta int) bool {
	ok := r.sess.AdjustSetValue(exerciseID, setID, field, delta)
	if ok {
		r.notify()
	}
	return ok
}

// PauseResume forwards to the session and returns the new paused state.
func (r *Runner) PauseResume() bool {
	paused := r.sess.PauseResume()
	r.notify()
	return paused
}

// ExtendRest forwards to the session.
func (r *Runner) ExtendRest(seconds int) bool {
	ok := r.sess.ExtendRest(seconds)
	if ok {
		r.notify()
	}
	return ok
}

// SkipRest forwards to the session.
func (r *Runner) SkipRest() {
	r.sess.SkipRest()
	r.notify()
}

// Subscribe returns a channel receiving a snapshot after every tick and
// every applied operation. Slow subscribers miss snapshots. The channel is
// closed when the runner stops.
func (r *Runner) Subscribe() chan Snapshot {
	ch := make(chan Snapshot, 8)
	r.subsMu.Lock()
	defer r.subsMu.Unlock()
	if r.closed {
		close(ch)
		return ch
	}
	r.subs[ch] = struct{}{}
	return ch
}

// Unsubscribe removes ch. It is safe to call after the runner stopped.
func (r *Runner) Unsubscribe(ch chan Snapshot) {
	r.subsMu.Lock()
	defer r.subsMu.Unlock()
	if _, ok := r.subs[ch]; ok {
		delete(r.subs, ch)
		close(ch)
	}
}

func (r *Runner) broadcast(snap Snapshot) {
	r.subsMu.Lock()
	defer r.subsMu.Unlock()
	for ch := range r.subs {
		select {
		case ch <- snap:
		default:
			// slow subscriber, skip
		}
	}
}

func (r *Runner) closeSubscribers() {
	r.subsMu.Lock()
	defer r.subsMu.Unlock()
	r.closed = true
	for ch := range r.subs {
		close(ch)
		delete(r.subs, ch)
	}
}

// Close stops the loop, releases its tickers and waits for the goroutine
// to exit. It is idempotent.
func (r *Runner) Close() {
	r.once.Do(r.cancel)
	<-r.done
}

// Done is closed once the loop has exited.
func (r *Runner) Done() <-chan struct{} { return r.done }
