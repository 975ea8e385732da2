package learn

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/soar/joymidi/internal/console"
	"github.com/soar/joymidi/internal/controller"
	"github.com/soar/joymidi/internal/midiout"
)

// Session drives a Machine from the terminal.
type Session struct {
	machine  *Machine
	mapping  *controller.Mapping
	emitter  *controller.Emitter
	motion   controller.Source
	input    controller.Source
	sink     midiout.Sink
	in       *console.Input
	out      *console.Printer
	interval time.Duration
	logger   *zap.SugaredLogger
}

func NewSession(
	mapping *controller.Mapping,
	motion, input controller.Source,
	sink midiout.Sink,
	in *console.Input,
	out *console.Printer,
	interval time.Duration,
	logger *zap.SugaredLogger,
) *Session {
	return &Session{
		machine:  NewMachine(mapping.Layout.Variant),
		mapping:  mapping,
		emitter:  controller.NewEmitter(mapping),
		motion:   motion,
		input:    input,
		sink:     sink,
		in:       in,
		out:      out,
		interval: interval,
		logger:   logger,
	}
}

// Machine exposes the underlying state machine.
func (s *Session) Machine() *Machine {
	return s.machine
}

// Run shows the menu until the user finishes and returns the flags derived
// from the learned controls. Closing stdin finishes the session.
func (s *Session) Run(ctx context.Context) (controller.Flags, error) {
	labels := make([]string, len(s.machine.Options()))
	for i, o := range s.machine.Options() {
		labels[i] = o.Label
	}

	for s.machine.State() != Finished {
		s.out.Menu("MIDI Learn Menu:", labels, "Finish MIDI Learn and start normal operation")
		s.out.Printf("\nSelect a control to learn (0-%d) or 'q' to finish:\n", len(labels)-1)

		line, err := s.in.Line(ctx)
		if errors.Is(err, io.EOF) {
			line = "q"
		} else if err != nil {
			return controller.Flags{}, err
		}

		opt, err := s.machine.Select(line)
		if errors.Is(err, ErrInvalidSelection) {
			s.out.Error("Invalid selection. Please enter a number from the menu or 'q'.")
			continue
		}
		if err != nil {
			return controller.Flags{}, err
		}
		if s.machine.State() == Finished {
			break
		}

		s.out.Printf("\nLearning %s... Move the control or press buttons, then press any key to stop\n", opt.Label)
		if err := s.monitor(ctx, opt.Control); err != nil {
			return controller.Flags{}, err
		}
		s.out.Printf("\n%s learning complete!\n", opt.Label)
	}

	s.out.Println("\nMIDI Learn complete! Starting normal operation with your selections...")
	return s.machine.Flags(), nil
}

// monitor sends only c until a key is pressed. Every entry starts from a
// fresh snapshot.
func (s *Session) monitor(ctx context.Context, c controller.ControlID) (err error) {
	snap := controller.NewSnapshot(s.mapping)
	merger := controller.NewMerger(snap, s.motion, s.input, s.logger)

	s.in.Discard()
	if err := s.in.RawMode(); err != nil {
		s.logger.Warnw("keypress detection needs Enter", "error", err)
	}
	defer func() {
		if rerr := s.in.Restore(); rerr != nil && err == nil {
			err = rerr
		}
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if s.in.KeyPressed() {
			return s.machine.KeyPressed()
		}

		merger.Tick()
		if s.emitter.Engaged(snap, c) {
			msgs := s.emitter.EmitControl(snap, c)
			if err := midiout.SendAll(s.sink, s.mapping.Channel, msgs); err != nil {
				s.logger.Debugw("learn send failed", "control", c, "error", err)
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// String renders the learned controls, for logging.
func (s *Session) String() string {
	var done []controller.ControlID
	for _, o := range s.machine.Options() {
		if s.machine.Learned(o.Control) {
			done = append(done, o.Control)
		}
	}
	return fmt.Sprintf("learned %v", done)
}
