package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"neopixel-controller/internal/core"
	"neopixel-controller/internal/effects"
	"neopixel-controller/internal/palette"
	"neopixel-controller/internal/strip"
)

// task is one running animation.
type task struct {
	target Target
	cancel context.CancelFunc
	done   chan struct{}
	err    error
	frames *frameCounter
}

// frameCounter is the task-local view of the strip. It counts the frames the
// task managed to write.
type frameCounter struct {
	*strip.Strip
	frames atomic.Uint64
}

func (f *frameCounter) Show() error {
	if err := f.Strip.Show(); err != nil {
		return err
	}
	f.frames.Add(1)
	return nil
}

// Frames returns the number of frames written through f.
func (f *frameCounter) Frames() uint64 {
	return f.frames.Load()
}

// render shows target. Static modes are drawn once, effects get a new task.
// The animation slot must be idle.
func (s *Scheduler) render(ctx context.Context, target Target) {
	s.strip.Clear()

	switch target.Mode {
	case core.ModeOff:
		s.showStatic(target)
		return
	case core.ModeOn:
		s.strip.Fill(palette.White.Scale(palette.Level(target.Brightness)))
		s.showStatic(target)
		return
	case core.ModeColor:
		c, ok := palette.Lookup(target.Color)
		if !ok {
			s.renderError(target, fmt.Errorf("unknown color '%s'", target.Color))
			return
		}
		s.strip.Fill(c.Scale(palette.Level(target.Brightness)))
		s.showStatic(target)
		return
	}

	effect, err := s.registry.Lookup(target.Mode)
	if err != nil {
		s.renderError(target, err)
		return
	}

	params := effects.Params{
		Brightness: palette.Level(target.Brightness),
		Speed:      time.Duration(target.Speed) * time.Millisecond,
	}
	if effect.NeedsColor {
		c, ok := palette.Lookup(target.Color)
		if !ok {
			s.renderError(target, fmt.Errorf("%w: unknown color '%s'", effects.ErrColorRequired, target.Color))
			return
		}
		params.Color = c
		params.HasColor = true
	}

	s.startTask(ctx, target, effect, params)
}

func (s *Scheduler) showStatic(target Target) {
	if err := s.strip.Show(); err != nil {
		log.Printf("[Scheduler] Failed to render '%s': %v", target.Mode, err)
	}
	s.mu.Lock()
	s.current = target
	s.rendered = true
	s.mu.Unlock()
}

// renderError blanks the strip and reports that target cannot be shown.
func (s *Scheduler) renderError(target Target, err error) {
	log.Printf("[Scheduler] Cannot render '%s': %v", target.Mode, err)
	if showErr := s.strip.Show(); showErr != nil {
		log.Printf("[Scheduler] Failed to blank strip: %v", showErr)
	}
	s.mu.Lock()
	s.current = Target{}
	s.rendered = false
	s.mu.Unlock()
	s.notifier.Notify(MsgRenderError)
}

func (s *Scheduler) startTask(ctx context.Context, target Target, effect effects.Effect, params effects.Params) {
	taskCtx, cancel := context.WithCancel(ctx)
	t := &task{
		target: target,
		cancel: cancel,
		done:   make(chan struct{}),
		frames: &frameCounter{Strip: s.strip},
	}

	s.mu.Lock()
	s.task = t
	s.taskStats = t.frames
	s.state = Animating
	s.current = target
	s.rendered = true
	s.started++
	s.mu.Unlock()

	log.Printf("[Scheduler] Starting animation '%s'.", target.Mode)
	go func() {
		defer close(t.done)
		t.err = effect.Run(taskCtx, t.frames, params)
	}()
}

// stopTask cancels the running task and waits until it returned. A cancelled
// task parks at its next frame boundary, so this normally takes at most one
// frame period.
func (s *Scheduler) stopTask() {
	t := s.task
	if t == nil {
		return
	}

	s.setState(Preempting)
	t.cancel()

	warn := time.NewTicker(s.opts.CancelWarning)
	defer warn.Stop()
	for waiting := true; waiting; {
		select {
		case <-t.done:
			waiting = false
		case <-warn.C:
			log.Warnf("[Scheduler] Still waiting for animation '%s' to stop.", t.target.Mode)
		}
	}

	log.Printf("[Scheduler] Animation '%s' stopped after %d frames.", t.target.Mode, t.frames.Frames())
	s.clearTask()
}

// taskEnded handles a task that returned without being cancelled.
func (s *Scheduler) taskEnded() {
	t := s.task
	t.cancel()
	s.clearTask()

	s.mu.Lock()
	s.rendered = false
	s.current = Target{}
	s.mu.Unlock()

	if t.err == nil || errors.Is(t.err, context.Canceled) {
		log.Printf("[Scheduler] Animation '%s' finished.", t.target.Mode)
		s.notifier.Notify(fmt.Sprintf("Animation %s stopped.", t.target.Mode))
		return
	}
	log.Printf("[Scheduler] Animation '%s' failed: %v", t.target.Mode, t.err)
	s.notifier.Notify(fmt.Sprintf("Animation %s stopped: %v", t.target.Mode, t.err))
}

func (s *Scheduler) clearTask() {
	s.task = nil
	s.mu.Lock()
	s.state = Idle
	s.taskStats = nil
	s.mu.Unlock()
}
