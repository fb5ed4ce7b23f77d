// Package watchdog detects a silent serial link. It must be fed by every
// decoded packet; if a full period passes without one it latches a stalled
// flag that the serial read path turns into a fatal error.
package watchdog

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/banshee-data/chaprd/internal/monitoring"
	"github.com/banshee-data/chaprd/internal/timeutil"
)

// ErrStalled is returned by guarded reads once the watchdog has expired.
var ErrStalled = errors.New("watchdog expired: no packet received")

// DefaultPeriod is the longest gap tolerated between decoded packets.
const DefaultPeriod = 3 * time.Second

// Watchdog is a resettable one-shot timer with a sticky expiry flag.
type Watchdog struct {
	clock  timeutil.Clock
	period time.Duration

	mu    sync.Mutex
	timer timeutil.Timer
	stop  chan struct{}
	done  chan struct{}

	stalled atomic.Bool
	fires   atomic.Uint64
}

// New returns a stopped watchdog. A non-positive period uses DefaultPeriod.
func New(clock timeutil.Clock, period time.Duration) *Watchdog {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	if period <= 0 {
		period = DefaultPeriod
	}
	return &Watchdog{clock: clock, period: period}
}

// Period returns the configured expiry period.
func (w *Watchdog) Period() time.Duration { return w.period }

// Start clears the stalled flag and arms the timer. Starting a running
// watchdog is a no-op.
func (w *Watchdog) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stop != nil {
		return
	}
	w.stalled.Store(false)
	w.timer = w.clock.NewTimer(w.period)
	w.stop = make(chan struct{})
	w.done = make(chan struct{})
	go w.run(w.timer, w.stop, w.done)
}

func (w *Watchdog) run(timer timeutil.Timer, stop, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-stop:
			return
		case <-timer.C():
			if !w.stalled.Swap(true) {
				w.fires.Add(1)
				monitoring.Logf("watchdog: no packet for %v", w.period)
			}
		}
	}
}

// Feed re-arms the timer for another full period. It never blocks on the
// watchdog goroutine.
func (w *Watchdog) Feed() {
	w.mu.Lock()
	timer := w.timer
	w.mu.Unlock()
	if timer != nil {
		timer.Reset(w.period)
	}
}

// Stalled reports whether the timer expired since Start.
func (w *Watchdog) Stalled() bool { return w.stalled.Load() }

// Expirations counts how many times the watchdog has latched.
func (w *Watchdog) Expirations() uint64 { return w.fires.Load() }

// Stop disarms the timer and ends the goroutine. The stalled flag keeps its
// value until the next Start.
func (w *Watchdog) Stop() {
	w.mu.Lock()
	stop, done, timer := w.stop, w.done, w.timer
	w.stop, w.done, w.timer = nil, nil, nil
	w.mu.Unlock()

	if stop == nil {
		return
	}
	timer.Stop()
	close(stop)
	<-done
}
