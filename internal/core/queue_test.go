package core

import (
	"errors"
	"testing"
)

func TestQueueFIFO(t *testing.T) {
	q := NewQueue(3)
	for _, msg := range []string{"red", "fire", "50%"} {
		if err := q.TryPut(msg); err != nil {
			t.Fatalf("TryPut(%q): %v", msg, err)
		}
	}
	for _, want := range []string{"red", "fire", "50%"} {
		if got := <-q.Out(); got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	}
}

func TestQueueOverflowFailsExplicitly(t *testing.T) {
	q := NewQueue(1)
	if err := q.TryPut("on"); err != nil {
		t.Fatalf("first put failed: %v", err)
	}
	if err := q.TryPut("off"); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	if q.Len() != 1 {
		t.Errorf("expected 1 queued command, got %d", q.Len())
	}
}

func TestNewQueueDefaultSize(t *testing.T) {
	if got := NewQueue(0).Cap(); got != DefaultQueueSize {
		t.Errorf("expected capacity %d, got %d", DefaultQueueSize, got)
	}
}

func TestSubmitReportsOverflow(t *testing.T) {
	q := NewQueue(1)
	var sent []string
	n := NotifierFunc(func(text string) { sent = append(sent, text) })

	if !Submit(q, n, "on") {
		t.Fatal("expected first submit to succeed")
	}
	if Submit(q, n, "off") {
		t.Fatal("expected second submit to be discarded")
	}
	if len(sent) != 1 || sent[0] != QueueFullMessage {
		t.Errorf("expected %q to be reported, got %v", QueueFullMessage, sent)
	}
}
