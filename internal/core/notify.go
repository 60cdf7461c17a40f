package core

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// Notifier delivers a text message to the remote peers.
type Notifier interface {
	Notify(text string)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(text string)

// Notify calls f(text).
func (f NotifierFunc) Notify(text string) { f(text) }

// Peer is a transport able to carry notifications to its connected clients.
type Peer interface {
	Name() string
	Connected() bool
	Send(text string) error
}

type subscription struct {
	peer Peer
	ch   chan string
}

// Broadcaster fans notifications out to every attached peer that currently has
// clients. Without any connected client the message goes to the log instead.
type Broadcaster struct {
	mu     sync.RWMutex
	subs   []*subscription
	wg     sync.WaitGroup
	closed bool
}

// NewBroadcaster creates an empty Broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{}
}

// Attach registers a peer. Each peer gets its own buffered pump so a slow
// transport never blocks the caller of Notify.
func (b *Broadcaster) Attach(p Peer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}

	sub := &subscription{peer: p, ch: make(chan string, 100)}
	b.subs = append(b.subs, sub)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for msg := range sub.ch {
			if err := sub.peer.Send(msg); err != nil {
				log.Printf("[Notify] %s send failed: %v", sub.peer.Name(), err)
			}
		}
	}()
}

// Notify sends a newline terminated message to all connected peers.
func (b *Broadcaster) Notify(text string) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	delivered := false
	if !b.closed {
		for _, sub := range b.subs {
			if !sub.peer.Connected() {
				continue
			}
			delivered = true
			select {
			case sub.ch <- text + "\n":
			default:
				log.Printf("[Notify] %s backlog full, dropping message", sub.peer.Name())
			}
		}
	}

	if !delivered {
		log.Printf("[Notify] %s", text)
	}
}

// Close stops all pumps after they drained their backlog.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for _, sub := range b.subs {
		close(sub.ch)
	}
	b.mu.Unlock()
	b.wg.Wait()
}
