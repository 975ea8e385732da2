package hub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/soar/joymidi/internal/controller"
)

const (
	fullSyncInterval = 5 * time.Second
	deltaCountSync   = 100
)

// Broadcaster turns status changes into full and delta messages for the hub.
type Broadcaster struct {
	hub     *Hub
	changes <-chan controller.Status
	logger  *zap.SugaredLogger

	mu         sync.Mutex
	lastStatus controller.Status
	started    bool
	seq        int64
	deltaCount int
}

func NewBroadcaster(h *Hub, changes <-chan controller.Status, logger *zap.SugaredLogger) *Broadcaster {
	return &Broadcaster{
		hub:     h,
		changes: changes,
		logger:  logger,
	}
}

// Run forwards changes until the channel closes or ctx is done. A full
// message goes out every fullSyncInterval and every deltaCountSync deltas.
func (b *Broadcaster) Run(ctx context.Context) {
	ticker := time.NewTicker(fullSyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-b.changes:
			if !ok {
				return
			}
			if data := b.next(st); data != nil {
				b.hub.Broadcast(data)
			}
		case <-ticker.C:
			if data := b.full(); data != nil {
				b.hub.Broadcast(data)
			}
		}
	}
}

// Seed sets the status that new clients receive before the first change.
func (b *Broadcaster) Seed(st controller.Status) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastStatus = st
	b.started = true
}

// SendInitialState queues the current full status for a new client.
func (b *Broadcaster) SendInitialState(c *Client) {
	if data := b.full(); data != nil {
		c.enqueue(data)
	}
}

// next records st and returns the message to broadcast, or nil when
// nothing changed.
func (b *Broadcaster) next(st controller.Status) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	first := !b.started
	delta := controller.ComputeDelta(b.lastStatus, st)
	b.lastStatus = st
	b.started = true
	if !first && delta.IsEmpty() {
		return nil
	}

	b.seq++
	b.deltaCount++
	if first || b.deltaCount >= deltaCountSync {
		b.deltaCount = 0
		return b.marshal(NewFullMessage(b.seq, &b.lastStatus))
	}
	return b.marshal(NewDeltaMessage(b.seq, delta))
}

func (b *Broadcaster) full() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.started {
		return nil
	}
	b.seq++
	st := b.lastStatus
	return b.marshal(NewFullMessage(b.seq, &st))
}

func (b *Broadcaster) marshal(msg *WSMessage) []byte {
	data, err := json.Marshal(msg)
	if err != nil {
		b.logger.Errorw("marshaling status message", "type", msg.Type, "error", err)
		return nil
	}
	return data
}
