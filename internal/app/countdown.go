package app

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Countdown is a per-question timer. It ticks once a second and signals completion once.
// A controller never has two live countdowns: Start cancels the previous one.
// The next tick is armed before the decremented value becomes visible to Remaining.
type Countdown struct {
	clock  clockwork.Clock
	onTick func(remaining int)

	mu         sync.Mutex
	gen        uint64
	active     bool
	duration   int
	remaining  int
	timer      clockwork.Timer
	onComplete func()
}

// NewCountdown builds an idle countdown. onTick may be nil.
func NewCountdown(c clockwork.Clock, onTick func(remaining int)) *Countdown {
	return &Countdown{clock: c, onTick: onTick}
}

// Start arms the countdown for seconds, replacing any outstanding one.
func (c *Countdown) Start(seconds int, onComplete func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelLocked()
	c.active = true
	c.duration = seconds
	c.remaining = seconds
	c.onComplete = onComplete
	c.scheduleLocked()
}

// Stop disarms the countdown; a pending completion never fires.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelLocked()
}

// Remaining returns the seconds left on the current countdown.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Active reports whether a countdown is running.
func (c *Countdown) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

func (c *Countdown) cancelLocked() {
	c.gen++
	c.active = false
	c.onComplete = nil
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Countdown) scheduleLocked() {
	gen := c.gen
	c.timer = c.clock.AfterFunc(time.Second, func() { c.tick(gen) })
}

func (c *Countdown) tick(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || !c.active {
		c.mu.Unlock()
		return
	}

	var complete func()
	if c.remaining <= 1 {
		c.remaining = 0
		c.active = false
		c.timer = nil
		complete = c.onComplete
		c.onComplete = nil
	} else {
		c.remaining--
		c.scheduleLocked()
	}
	remaining := c.remaining
	c.mu.Unlock()

	if c.onTick != nil {
		c.onTick(remaining)
	}
	if complete != nil {
		complete()
	}
}
