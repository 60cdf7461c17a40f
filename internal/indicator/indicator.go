// Package indicator drives the single status LED used to acknowledge commands
// and to show whether a peer is connected.
package indicator

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// DefaultBlinkPeriod is the on and off duration of one acknowledgment blink.
const DefaultBlinkPeriod = 300 * time.Millisecond

// Output is a binary output line.
type Output interface {
	Set(on bool) error
	Close() error
}

// Indicator remembers the resting level set by the transports and restores it
// after an acknowledgment pulse.
type Indicator struct {
	mu     sync.Mutex
	out    Output
	level  bool
	period time.Duration
}

// New creates an Indicator on out, starting off.
func New(out Output, period time.Duration) *Indicator {
	if period < 0 {
		period = DefaultBlinkPeriod
	}
	ind := &Indicator{out: out, period: period}
	ind.write(false)
	return ind
}

// Set changes the resting level (on while a peer is connected).
func (ind *Indicator) Set(on bool) {
	ind.mu.Lock()
	defer ind.mu.Unlock()
	ind.level = on
	ind.write(on)
}

// Level returns the resting level.
func (ind *Indicator) Level() bool {
	ind.mu.Lock()
	defer ind.mu.Unlock()
	return ind.level
}

// Blink emits n off/on pulses and then restores the resting level. Set may be
// called while a blink runs; the level it leaves is the one restored.
func (ind *Indicator) Blink(ctx context.Context, n int) error {
	defer ind.restore()

	for i := 0; i < n; i++ {
		ind.pulse(false)
		if err := sleep(ctx, ind.period); err != nil {
			return err
		}
		ind.pulse(true)
		if err := sleep(ctx, ind.period); err != nil {
			return err
		}
	}
	return nil
}

func (ind *Indicator) pulse(on bool) {
	ind.mu.Lock()
	defer ind.mu.Unlock()
	ind.write(on)
}

// restore writes the resting level.
func (ind *Indicator) restore() {
	ind.mu.Lock()
	defer ind.mu.Unlock()
	ind.write(ind.level)
}

// Close switches the LED off and releases the line.
func (ind *Indicator) Close() error {
	ind.mu.Lock()
	defer ind.mu.Unlock()
	ind.write(false)
	return ind.out.Close()
}

func (ind *Indicator) write(on bool) {
	if err := ind.out.Set(on); err != nil {
		log.Printf("[Indicator] Failed to set level %v: %v", on, err)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
