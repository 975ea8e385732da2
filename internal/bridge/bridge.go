// Package bridge runs the polling loop that turns controller input into
// MIDI control changes.
package bridge

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/soar/joymidi/internal/controller"
	"github.com/soar/joymidi/internal/midiout"
)

const changesBuffer = 64

// Options are the per-run settings of a Bridge.
type Options struct {
	Mapping        *controller.Mapping
	Flags          controller.Flags
	PollInterval   time.Duration
	StatusInterval time.Duration
}

// Bridge polls both device endpoints, sends the resulting messages and
// publishes status copies for presentation.
type Bridge struct {
	opts    Options
	snap    *controller.Snapshot
	merger  *controller.Merger
	emitter *controller.Emitter
	sink    midiout.Sink
	present func(controller.Status)
	logger  *zap.SugaredLogger

	changes chan controller.Status
	mu      sync.RWMutex
	status  controller.Status
}

// New builds a bridge over a fresh snapshot. present is called with the
// current status every StatusInterval and may be nil.
func New(
	opts Options,
	motion, input controller.Source,
	sink midiout.Sink,
	present func(controller.Status),
	logger *zap.SugaredLogger,
) *Bridge {
	snap := controller.NewSnapshot(opts.Mapping)
	return &Bridge{
		opts:    opts,
		snap:    snap,
		merger:  controller.NewMerger(snap, motion, input, logger),
		emitter: controller.NewEmitter(opts.Mapping),
		sink:    sink,
		present: present,
		logger:  logger,
		changes: make(chan controller.Status, changesBuffer),
		status:  controller.StatusOf(snap, opts.Flags),
	}
}

// Changes returns the channel on which a status is sent after every change.
// It is closed when Run returns.
func (b *Bridge) Changes() <-chan controller.Status {
	return b.changes
}

// CurrentStatus returns a copy of the latest status.
func (b *Bridge) CurrentStatus() controller.Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status
}

// Run polls until ctx is done.
func (b *Bridge) Run(ctx context.Context) error {
	defer close(b.changes)

	poll := time.NewTicker(b.opts.PollInterval)
	defer poll.Stop()
	status := time.NewTicker(b.opts.StatusInterval)
	defer status.Stop()

	b.logger.Infow("bridge running",
		"variant", b.opts.Mapping.Layout.Variant,
		"gyro", b.opts.Flags.Gyro,
		"joystick", b.opts.Flags.Joystick,
		"channel", b.opts.Mapping.Channel)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-poll.C:
			b.step()
		case <-status.C:
			if b.present != nil {
				b.present(b.CurrentStatus())
			}
		}
	}
}

// step runs one poll cycle and reports whether the snapshot changed.
func (b *Bridge) step() bool {
	if !b.merger.Tick() {
		return false
	}

	msgs := b.emitter.Emit(b.snap, b.opts.Flags)
	if err := midiout.SendAll(b.sink, b.opts.Mapping.Channel, msgs); err != nil {
		b.logger.Debugw("send failed", "error", err)
	}

	st := controller.StatusOf(b.snap, b.opts.Flags)
	b.mu.Lock()
	b.status = st
	b.mu.Unlock()

	select {
	case b.changes <- st:
	default:
		// Nobody is draining; the latest status is still in CurrentStatus.
	}
	return true
}
