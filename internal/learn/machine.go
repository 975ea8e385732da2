// Package learn implements MIDI learn: the user picks one control at a
// time and only that control is sent while they map it in their software.
package learn

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/soar/joymidi/internal/controller"
)

// ErrInvalidSelection is returned for menu input that is neither "q" nor
// the index of an offered option. The machine stays Idle.
var ErrInvalidSelection = errors.New("invalid selection")

// ErrWrongState is returned when an input does not apply to the current
// state.
var ErrWrongState = errors.New("not allowed in this state")

// State is the phase of a learn session.
type State int

const (
	Idle State = iota
	Monitoring
	Finished
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Monitoring:
		return "monitoring"
	case Finished:
		return "finished"
	}
	return "unknown"
}

// Option is one entry of the learn menu.
type Option struct {
	Control controller.ControlID
	Label   string
	// Variant restricts the option to one Joy-Con; empty means both.
	Variant controller.Variant
}

var allOptions = []Option{
	{controller.GyroX, "Gyro X-axis", ""},
	{controller.GyroY, "Gyro Y-axis", ""},
	{controller.GyroZ, "Gyro Z-axis", ""},
	{controller.JoystickX, "Left Joystick X-axis", controller.Left},
	{controller.JoystickY, "Left Joystick Y-axis", controller.Left},
	{controller.JoystickRX, "Right Joystick X-axis", controller.Right},
	{controller.JoystickRY, "Right Joystick Y-axis", controller.Right},
	{controller.Buttons, "Buttons (all)", ""},
}

// Machine is the learn state machine.
type Machine struct {
	state   State
	options []Option
	current controller.ControlID
	learned map[controller.ControlID]bool
}

// NewMachine offers only the options that exist on variant v.
func NewMachine(v controller.Variant) *Machine {
	m := &Machine{learned: make(map[controller.ControlID]bool, len(allOptions))}
	for _, o := range allOptions {
		if o.Variant == "" || o.Variant == v {
			m.options = append(m.options, o)
		}
		m.learned[o.Control] = false
	}
	return m
}

func (m *Machine) State() State {
	return m.state
}

// Options returns the menu; an option's index is its selection number.
func (m *Machine) Options() []Option {
	return m.options
}

// Current returns the control being monitored.
func (m *Machine) Current() (controller.ControlID, bool) {
	return m.current, m.state == Monitoring
}

// Select applies one line of menu input while Idle: "q" finishes the
// session, an option index starts monitoring it.
func (m *Machine) Select(input string) (Option, error) {
	if m.state != Idle {
		return Option{}, errors.Wrapf(ErrWrongState, "select while %s", m.state)
	}

	input = strings.ToLower(strings.TrimSpace(input))
	if input == "q" {
		m.state = Finished
		return Option{}, nil
	}

	n, err := strconv.Atoi(input)
	if err != nil {
		return Option{}, errors.Wrapf(ErrInvalidSelection, "%q is not a number", input)
	}
	if n < 0 || n >= len(m.options) {
		return Option{}, errors.Wrapf(ErrInvalidSelection, "%d is not between 0 and %d", n, len(m.options)-1)
	}

	o := m.options[n]
	m.current = o.Control
	m.state = Monitoring
	return o, nil
}

// KeyPressed ends monitoring. The control counts as learned whether or not
// it was ever moved.
func (m *Machine) KeyPressed() error {
	if m.state != Monitoring {
		return errors.Wrapf(ErrWrongState, "keypress while %s", m.state)
	}
	m.learned[m.current] = true
	m.current = ""
	m.state = Idle
	return nil
}

// Learned reports whether c was completed in this session.
func (m *Machine) Learned(c controller.ControlID) bool {
	return m.learned[c]
}

// Flags derives the run's emission flags from what was learned.
func (m *Machine) Flags() controller.Flags {
	var f controller.Flags
	for c, ok := range m.learned {
		if !ok {
			continue
		}
		if c.IsGyro() {
			f.Gyro = true
		}
		if c.IsJoystick() {
			f.Joystick = true
		}
	}
	return f
}
