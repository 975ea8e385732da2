package controller

// SampleKind says which part of the snapshot a raw sample addresses.
type SampleKind uint8

const (
	GyroAxis SampleKind = iota
	JoystickAxis
	Button
)

// RawSample is one hardware event as read from a device.
type RawSample struct {
	Kind  SampleKind
	Code  int
	Value int
}

type GyroVector struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

type JoystickVector struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Snapshot holds the last known value of every control. It is not safe for
// concurrent use; one polling loop owns it.
type Snapshot struct {
	Gyro     GyroVector
	Joystick JoystickVector
	Buttons  *ButtonRegistry

	layout *Layout
}

// NewSnapshot creates a zeroed snapshot with one button state per
// configured button.
func NewSnapshot(m *Mapping) *Snapshot {
	return &Snapshot{
		Buttons: NewButtonRegistry(m.ButtonCodes(), m.Toggle),
		layout:  m.Layout,
	}
}

// Ingest applies every motion and input sample and reports whether any
// stored value actually moved.
func (s *Snapshot) Ingest(motion, input []RawSample) bool {
	changed := false
	for _, e := range motion {
		if e.Kind != GyroAxis {
			continue
		}
		if s.applyGyro(e) {
			changed = true
		}
	}
	for _, e := range input {
		switch e.Kind {
		case JoystickAxis:
			if s.applyJoystick(e) {
				changed = true
			}
		case Button:
			if c, _ := s.Buttons.OnEvent(e.Code, e.Value != 0); c {
				changed = true
			}
		}
	}
	return changed
}

func (s *Snapshot) applyGyro(e RawSample) bool {
	var dst *int
	switch e.Code {
	case gyroCodes[0]:
		dst = &s.Gyro.X
	case gyroCodes[1]:
		dst = &s.Gyro.Y
	case gyroCodes[2]:
		dst = &s.Gyro.Z
	default:
		return false
	}
	return set(dst, e.Value)
}

func (s *Snapshot) applyJoystick(e RawSample) bool {
	switch e.Code {
	case s.layout.StickX:
		return set(&s.Joystick.X, e.Value)
	case s.layout.StickY:
		return set(&s.Joystick.Y, e.Value)
	}
	return false
}

func set(dst *int, v int) bool {
	if *dst == v {
		return false
	}
	*dst = v
	return true
}
