// Package midiout sends control-change messages to a MIDI output port.
package midiout

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // registers the rtmidi driver
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/soar/joymidi/internal/controller"
)

// ErrNoPort is returned when a requested port does not exist.
var ErrNoPort = errors.New("no such MIDI output port")

// Sink receives control-change messages. Send is fire-and-forget: a failed
// send affects only that message.
type Sink interface {
	Send(control, value, channel int) error
	Close() error
}

type nopSink struct{}

func (nopSink) Send(int, int, int) error { return nil }
func (nopSink) Close() error             { return nil }

// Nop returns a sink that drops every message. It backs preview mode.
func Nop() Sink {
	return nopSink{}
}

// IsNop reports whether s is the preview sink.
func IsNop(s Sink) bool {
	_, ok := s.(nopSink)
	return ok
}

// Port is an open MIDI output.
type Port struct {
	name   string
	send   func(midi.Message) error
	close  func() error
	logger *zap.SugaredLogger
}

// Ports lists the available output port names; the index of a name is its
// port number.
func Ports() []string {
	var names []string
	for _, out := range midi.GetOutPorts() {
		names = append(names, out.String())
	}
	return names
}

// Open opens the output port named by sel, which may be a port number or
// a (case-insensitive) substring of a port name.
func Open(sel string, logger *zap.SugaredLogger) (*Port, error) {
	out, err := lookup(sel)
	if err != nil {
		return nil, err
	}
	send, err := midi.SendTo(out)
	if err != nil {
		return nil, errors.Wrapf(err, "opening MIDI output %q", out.String())
	}
	logger.Infow("connected to MIDI output", "port", out.String())
	return newPort(out.String(), send, out.Close, logger), nil
}

func newPort(name string, send func(midi.Message) error, closeFn func() error, logger *zap.SugaredLogger) *Port {
	return &Port{name: name, send: send, close: closeFn, logger: logger}
}

func lookup(sel string) (drivers.Out, error) {
	sel = strings.TrimSpace(sel)
	if n, err := strconv.Atoi(sel); err == nil {
		out, err := midi.OutPort(n)
		if err != nil {
			return nil, errors.Wrapf(ErrNoPort, "port %d", n)
		}
		return out, nil
	}
	for _, out := range midi.GetOutPorts() {
		if strings.Contains(strings.ToLower(out.String()), strings.ToLower(sel)) {
			return out, nil
		}
	}
	return nil, errors.Wrapf(ErrNoPort, "%q", sel)
}

// Name returns the port name.
func (p *Port) Name() string {
	return p.name
}

// Send writes one control-change message.
func (p *Port) Send(control, value, channel int) error {
	msg := midi.ControlChange(uint8(channel), uint8(control), uint8(value))
	if err := p.send(msg); err != nil {
		return errors.Wrapf(err, "sending CC%d=%d", control, value)
	}
	return nil
}

// Close closes the port.
func (p *Port) Close() error {
	p.logger.Debugw("closing MIDI output", "port", p.name)
	return p.close()
}

// CloseDriver releases the MIDI driver once all ports are closed.
func CloseDriver() {
	midi.CloseDriver()
}

// SendAll sends msgs on channel. Every message is attempted; failures are
// combined.
func SendAll(s Sink, channel int, msgs []controller.Message) error {
	var err error
	for _, m := range msgs {
		err = multierr.Append(err, s.Send(m.Control, m.Value, channel))
	}
	return err
}
