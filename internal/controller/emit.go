package controller

// ControlID names a control that can be learned on its own.
type ControlID string

const (
	GyroX      ControlID = "gyro_x"
	GyroY      ControlID = "gyro_y"
	GyroZ      ControlID = "gyro_z"
	JoystickX  ControlID = "joystick_x"
	JoystickY  ControlID = "joystick_y"
	JoystickRX ControlID = "joystick_rx"
	JoystickRY ControlID = "joystick_ry"
	Buttons    ControlID = "buttons"
)

// IsGyro reports whether c is one of the gyro axes.
func (c ControlID) IsGyro() bool {
	return c == GyroX || c == GyroY || c == GyroZ
}

// IsJoystick reports whether c is a stick axis of either variant.
func (c ControlID) IsJoystick() bool {
	return c == JoystickX || c == JoystickY || c == JoystickRX || c == JoystickRY
}

// Message is one control-change message without its channel.
type Message struct {
	Control int
	Value   int
}

// Flags selects which continuous groups are emitted.
type Flags struct {
	Gyro     bool `json:"gyro"`
	Joystick bool `json:"joystick"`
}

// Emitter turns a snapshot into control-change messages.
type Emitter struct {
	m *Mapping
}

func NewEmitter(m *Mapping) *Emitter {
	return &Emitter{m: m}
}

// Emit returns the messages for a changed snapshot: gyro x, y, z, then
// joystick x, y, then every held button in code order.
func (e *Emitter) Emit(s *Snapshot, flags Flags) []Message {
	var msgs []Message
	if flags.Gyro {
		msgs = e.appendGyro(msgs, s, 0, 1, 2)
	}
	if flags.Joystick {
		msgs = e.appendStick(msgs, s, 0, 1)
	}
	return e.appendButtons(msgs, s)
}

// EmitControl returns only the messages belonging to c. Stick controls of
// the other variant produce nothing.
func (e *Emitter) EmitControl(s *Snapshot, c ControlID) []Message {
	switch c {
	case GyroX:
		return e.appendGyro(nil, s, 0)
	case GyroY:
		return e.appendGyro(nil, s, 1)
	case GyroZ:
		return e.appendGyro(nil, s, 2)
	case Buttons:
		return e.appendButtons(nil, s)
	}
	for i, sc := range e.m.Layout.StickControls {
		if sc == c {
			return e.appendStick(nil, s, i)
		}
	}
	return nil
}

// Engaged reports whether c is away from rest: a non-zero axis or, for
// Buttons, any held button.
func (e *Emitter) Engaged(s *Snapshot, c ControlID) bool {
	switch c {
	case GyroX:
		return s.Gyro.X != 0
	case GyroY:
		return s.Gyro.Y != 0
	case GyroZ:
		return s.Gyro.Z != 0
	case Buttons:
		return s.Buttons.AnyActive()
	}
	sc := e.m.Layout.StickControls
	switch c {
	case sc[0]:
		return s.Joystick.X != 0
	case sc[1]:
		return s.Joystick.Y != 0
	}
	return false
}

func (e *Emitter) appendGyro(msgs []Message, s *Snapshot, axes ...int) []Message {
	raw := [3]int{s.Gyro.X, s.Gyro.Y, s.Gyro.Z}
	for _, i := range axes {
		msgs = append(msgs, Message{Control: e.m.GyroCC[i], Value: e.m.Gyro.Scale(raw[i])})
	}
	return msgs
}

func (e *Emitter) appendStick(msgs []Message, s *Snapshot, axes ...int) []Message {
	raw := [2]int{s.Joystick.X, s.Joystick.Y}
	for _, i := range axes {
		msgs = append(msgs, Message{Control: e.m.StickCC[i], Value: e.m.Joystick.Scale(raw[i])})
	}
	return msgs
}

func (e *Emitter) appendButtons(msgs []Message, s *Snapshot) []Message {
	for _, b := range e.m.Buttons {
		st, ok := s.Buttons.State(b.Code)
		if !ok || !st.Active {
			continue
		}
		msgs = append(msgs, Message{Control: b.CC, Value: st.Value})
	}
	return msgs
}
