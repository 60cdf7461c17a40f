// Package scheduler is the command driven core of the daemon. It consumes the
// inbound queue, applies each command to the settings and keeps exactly one
// animation running for the current render target.
package scheduler

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"neopixel-controller/internal/command"
	"neopixel-controller/internal/core"
	"neopixel-controller/internal/effects"
	"neopixel-controller/internal/indicator"
	"neopixel-controller/internal/settings"
	"neopixel-controller/internal/strip"
)

// Acknowledgment blink counts.
const (
	BlinksChanged   = 3
	BlinksUnchanged = 2
)

// DefaultCancelWarning is how long the scheduler waits for a cancelled
// animation before it starts logging warnings. It keeps waiting regardless.
const DefaultCancelWarning = 2 * time.Second

// MsgRenderError is sent when the configured mode or color cannot be rendered.
const MsgRenderError = "Unknown mode or settings error."

// State is the lifecycle state of the animation slot.
type State int

const (
	Idle State = iota
	Animating
	Preempting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Animating:
		return "animating"
	case Preempting:
		return "preempting"
	default:
		return "unknown"
	}
}

// Options tune the scheduler.
type Options struct {
	DeviceName    string
	CancelWarning time.Duration
}

// Scheduler owns the settings mutations, the strip and the animation task.
// Run must be called from a single goroutine; the accessors are safe from any.
type Scheduler struct {
	queue     *core.Queue
	store     *settings.Store
	registry  *effects.Registry
	interp    *command.Interpreter
	strip     *strip.Strip
	indicator *indicator.Indicator
	notifier  core.Notifier
	opts      Options

	task        *task
	lastCommand string
	lastChanged bool

	mu        sync.RWMutex
	state     State
	current   Target
	rendered  bool
	started   uint64
	handled   uint64
	taskStats *frameCounter
}

// New creates a Scheduler. Peer replies go to n.
func New(q *core.Queue, store *settings.Store, reg *effects.Registry, px *strip.Strip, ind *indicator.Indicator, n core.Notifier, opts Options) *Scheduler {
	if opts.CancelWarning <= 0 {
		opts.CancelWarning = DefaultCancelWarning
	}
	if n == nil {
		n = core.NotifierFunc(func(text string) { log.Printf("[Notify] %s", text) })
	}
	return &Scheduler{
		queue:     q,
		store:     store,
		registry:  reg,
		interp:    command.NewInterpreter(reg, n),
		strip:     px,
		indicator: ind,
		notifier:  n,
		opts:      opts,
	}
}

// Run renders the loaded settings and then processes commands until ctx is
// cancelled. The running animation is stopped before Run returns.
func (s *Scheduler) Run(ctx context.Context) error {
	log.Printf("[Scheduler] Started with %d LEDs.", s.strip.Len())
	s.reconcile(ctx)

	for {
		var done <-chan struct{}
		if s.task != nil {
			done = s.task.done
		}

		select {
		case <-ctx.Done():
			log.Println("[Scheduler] Shutting down...")
			s.stopTask()
			return nil
		case token := <-s.queue.Out():
			s.handle(ctx, token)
		case <-done:
			if ctx.Err() != nil {
				continue
			}
			s.taskEnded()
		}
	}
}

// handle processes one command from the queue.
func (s *Scheduler) handle(ctx context.Context, token string) {
	log.WithField("command", token).Debug("[Scheduler] Handling command")

	var changed bool
	s.store.Update(func(cfg *core.Settings) {
		changed = s.interp.Interpret(token, cfg)
	})
	s.lastCommand = token
	s.lastChanged = changed

	blinks := BlinksUnchanged
	if changed {
		blinks = BlinksChanged
	}
	if s.indicator != nil {
		if err := s.indicator.Blink(ctx, blinks); err != nil {
			log.Debugf("[Scheduler] Blink interrupted: %v", err)
		}
	}

	if changed {
		snap := s.store.Snapshot()
		s.notifier.Notify(snap.Summary())
	}

	s.runDirective()
	s.reconcile(ctx)

	s.mu.Lock()
	s.handled++
	s.mu.Unlock()
}

// reconcile makes the strip render the target implied by the current settings.
func (s *Scheduler) reconcile(ctx context.Context) {
	target := TargetOf(s.store.Snapshot(), s.registry)

	s.mu.RLock()
	same := s.rendered && s.current == target
	s.mu.RUnlock()
	if same {
		return
	}

	s.stopTask()
	s.render(ctx, target)
}

// State returns the lifecycle state of the animation slot.
func (s *Scheduler) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Current returns the target the strip currently renders. The second value is
// false when nothing valid is rendered.
func (s *Scheduler) Current() (Target, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.rendered
}

// Started returns how many animation tasks have been started.
func (s *Scheduler) Started() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// Handled returns how many commands have been processed.
func (s *Scheduler) Handled() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.handled
}

// Frames returns the frames written by the running animation task.
func (s *Scheduler) Frames() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.taskStats == nil {
		return 0
	}
	return s.taskStats.Frames()
}

func (s *Scheduler) setState(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st
}
