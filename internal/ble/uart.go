// Package ble exposes the command interface as a Nordic UART service
// peripheral: writes to the RX characteristic are commands, notifications on
// the TX characteristic carry the replies.
package ble

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"neopixel-controller/internal/core"
	"neopixel-controller/internal/indicator"
)

// DefaultMTU is the notification payload size without a negotiated MTU.
const DefaultMTU = 20

// txWriter sends one notification payload.
type txWriter interface {
	Write(p []byte) (int, error)
}

// Link holds the transport state shared by the radio callbacks: the RX
// buffer, the connection flag and the paced TX path.
type Link struct {
	name      string
	mtu       int
	queue     *core.Queue
	indicator *indicator.Indicator
	limiter   *rate.Limiter

	rxMu sync.Mutex
	rx   []byte

	txMu      sync.Mutex
	tx        txWriter
	connected atomic.Bool
	ctx       context.Context
}

// NewLink creates a Link that hands commands to q. Notifications are split
// into mtu sized chunks, at most rps chunks per second with the given burst.
func NewLink(ctx context.Context, name string, q *core.Queue, ind *indicator.Indicator, mtu int, rps float64, burst int) *Link {
	if mtu <= 0 {
		mtu = DefaultMTU
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	if burst <= 0 {
		burst = 1
	}
	return &Link{
		name:      name,
		mtu:       mtu,
		queue:     q,
		indicator: ind,
		limiter:   rate.NewLimiter(limit, burst),
		ctx:       ctx,
	}
}

// Name implements core.Peer.
func (l *Link) Name() string {
	return "ble"
}

// Connected implements core.Peer.
func (l *Link) Connected() bool {
	return l.connected.Load()
}

// SetConnected records a central connecting or leaving. The status LED is on
// while a central is connected.
func (l *Link) SetConnected(connected bool) {
	if l.connected.Swap(connected) == connected {
		return
	}
	if connected {
		log.Printf("[BLE] Central connected to '%s'.", l.name)
	} else {
		log.Printf("[BLE] Central disconnected from '%s'.", l.name)
		l.rxMu.Lock()
		l.rx = l.rx[:0]
		l.rxMu.Unlock()
	}
	if l.indicator != nil {
		l.indicator.Set(connected)
	}
}

// Receive handles a write to the RX characteristic. The buffered bytes are
// decoded, trimmed and handed over as one command.
func (l *Link) Receive(value []byte) {
	l.rxMu.Lock()
	l.rx = append(l.rx, value...)
	token := strings.TrimSpace(strings.ToValidUTF8(string(l.rx), ""))
	l.rx = l.rx[:0]
	l.rxMu.Unlock()

	if token == "" {
		return
	}
	log.WithField("command", token).Debug("[BLE] Received")
	core.Submit(l.queue, l, token)
}

// Notify sends text to the connected central. It is used for replies that
// concern only this link, such as a full queue.
func (l *Link) Notify(text string) {
	if err := l.Send(text + "\n"); err != nil {
		log.Printf("[BLE] Failed to notify: %v", err)
	}
}

// Send implements core.Peer. The text is written in mtu sized chunks paced
// by the rate limiter.
func (l *Link) Send(text string) error {
	l.txMu.Lock()
	defer l.txMu.Unlock()

	if l.tx == nil || !l.Connected() {
		return nil
	}
	for _, chunk := range Chunk([]byte(text), l.mtu) {
		if err := l.limiter.Wait(l.ctx); err != nil {
			return err
		}
		if _, err := l.tx.Write(chunk); err != nil {
			return err
		}
	}
	return nil
}

func (l *Link) setTX(tx txWriter) {
	l.txMu.Lock()
	defer l.txMu.Unlock()
	l.tx = tx
}

// Chunk splits data into pieces of at most size bytes.
func Chunk(data []byte, size int) [][]byte {
	if size <= 0 {
		size = DefaultMTU
	}
	var out [][]byte
	for len(data) > 0 {
		n := min(size, len(data))
		out = append(out, data[:n])
		data = data[n:]
	}
	return out
}
