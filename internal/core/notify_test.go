package core

import (
	"sync"
	"testing"
	"time"
)

type fakePeer struct {
	mu        sync.Mutex
	connected bool
	sent      []string
	got       chan struct{}
}

func newFakePeer(connected bool) *fakePeer {
	return &fakePeer{connected: connected, got: make(chan struct{}, 10)}
}

func (p *fakePeer) Name() string { return "fake" }

func (p *fakePeer) Connected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

func (p *fakePeer) Send(text string) error {
	p.mu.Lock()
	p.sent = append(p.sent, text)
	p.mu.Unlock()
	p.got <- struct{}{}
	return nil
}

func (p *fakePeer) messages() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.sent...)
}

func TestBroadcasterDeliversNewlineTerminated(t *testing.T) {
	b := NewBroadcaster()
	p := newFakePeer(true)
	b.Attach(p)

	b.Notify("Settings saved.")

	select {
	case <-p.got:
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for notification")
	}
	b.Close()

	msgs := p.messages()
	if len(msgs) != 1 || msgs[0] != "Settings saved.\n" {
		t.Errorf("unexpected messages: %q", msgs)
	}
}

func TestBroadcasterSkipsDisconnectedPeers(t *testing.T) {
	b := NewBroadcaster()
	p := newFakePeer(false)
	b.Attach(p)

	b.Notify("Unknown command.")
	b.Close()

	if msgs := p.messages(); len(msgs) != 0 {
		t.Errorf("expected no delivery to a disconnected peer, got %q", msgs)
	}
}

func TestBroadcasterNotifyAfterClose(t *testing.T) {
	b := NewBroadcaster()
	b.Attach(newFakePeer(true))
	b.Close()

	// Must not panic on a closed pump.
	b.Notify("late")
}
