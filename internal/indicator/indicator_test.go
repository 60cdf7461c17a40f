package indicator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type recordingOutput struct {
	mu     sync.Mutex
	levels []bool
}

func (r *recordingOutput) Set(on bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.levels = append(r.levels, on)
	return nil
}

func (r *recordingOutput) Close() error { return nil }

func (r *recordingOutput) history() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bool(nil), r.levels...)
}

func TestBlinkPulsesAndRestores(t *testing.T) {
	for _, n := range []int{2, 3} {
		out := &recordingOutput{}
		ind := New(out, 0)
		ind.Set(true)

		if err := ind.Blink(context.Background(), n); err != nil {
			t.Fatal(err)
		}

		levels := out.history()[2:] // initial off + Set(true)
		if len(levels) != 2*n+1 {
			t.Fatalf("n=%d: expected %d writes, got %v", n, 2*n+1, levels)
		}
		ons := 0
		for _, l := range levels[:2*n] {
			if l {
				ons++
			}
		}
		if ons != n {
			t.Errorf("n=%d: expected %d on pulses, got %d", n, n, ons)
		}
		if !levels[len(levels)-1] {
			t.Errorf("n=%d: expected resting level on to be restored", n)
		}
	}
}

func TestBlinkRestoresOffLevel(t *testing.T) {
	out := &recordingOutput{}
	ind := New(out, 0)
	if err := ind.Blink(context.Background(), 2); err != nil {
		t.Fatal(err)
	}
	levels := out.history()
	if levels[len(levels)-1] {
		t.Error("expected the LED to end off when no peer is connected")
	}
}

func TestBlinkCancelled(t *testing.T) {
	ind := New(&Discard{}, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := ind.Blink(ctx, 3); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestSetDuringBlinkIsNotBlocked(t *testing.T) {
	out := &recordingOutput{}
	ind := New(out, 200*time.Millisecond)

	blinked := make(chan error, 1)
	go func() { blinked <- ind.Blink(context.Background(), 3) }()

	time.Sleep(20 * time.Millisecond)
	set := make(chan struct{})
	go func() {
		ind.Set(true)
		close(set)
	}()

	select {
	case <-set:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Set blocked behind the running blink")
	}

	select {
	case err := <-blinked:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("blink did not finish")
	}

	levels := out.history()
	if !levels[len(levels)-1] || !ind.Level() {
		t.Errorf("expected the level set during the blink to be restored, got %v", levels)
	}
}
