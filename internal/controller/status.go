package controller

type ButtonStatus struct {
	Code   int    `json:"code"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
	On     bool   `json:"on"`
}

// Status is a copy of the snapshot for presentation. It shares no memory
// with the snapshot and may be handed to other goroutines.
type Status struct {
	Variant  Variant        `json:"variant"`
	Gyro     GyroVector     `json:"gyro"`
	Joystick JoystickVector `json:"joystick"`
	Buttons  []ButtonStatus `json:"buttons"`
	Flags    Flags          `json:"flags"`
}

// StatusOf copies s into a Status.
func StatusOf(s *Snapshot, flags Flags) Status {
	st := Status{
		Variant:  s.layout.Variant,
		Gyro:     s.Gyro,
		Joystick: s.Joystick,
		Flags:    flags,
		Buttons:  make([]ButtonStatus, 0, len(s.Buttons.Codes())),
	}
	for _, code := range s.Buttons.Codes() {
		b, _ := s.Buttons.State(code)
		st.Buttons = append(st.Buttons, ButtonStatus{
			Code:   code,
			Name:   ButtonName(code),
			Active: b.Active,
			On:     s.Buttons.IsOn(b.Value),
		})
	}
	return st
}

// ActiveButtons returns the held buttons.
func (s Status) ActiveButtons() []ButtonStatus {
	var out []ButtonStatus
	for _, b := range s.Buttons {
		if b.Active {
			out = append(out, b)
		}
	}
	return out
}

// Delta carries only the groups that differ between two statuses.
type Delta struct {
	Variant  *Variant        `json:"variant,omitempty"`
	Gyro     *GyroVector     `json:"gyro,omitempty"`
	Joystick *JoystickVector `json:"joystick,omitempty"`
	Buttons  []ButtonStatus  `json:"buttons,omitempty"`
	Flags    *Flags          `json:"flags,omitempty"`
}

func (d *Delta) IsEmpty() bool {
	return d.Variant == nil &&
		d.Gyro == nil &&
		d.Joystick == nil &&
		d.Buttons == nil &&
		d.Flags == nil
}

// ComputeDelta returns the groups of new_ that differ from old. Buttons are
// reported individually.
func ComputeDelta(old, new_ Status) *Delta {
	d := &Delta{}

	if old.Variant != new_.Variant {
		d.Variant = &new_.Variant
	}
	if old.Gyro != new_.Gyro {
		d.Gyro = &new_.Gyro
	}
	if old.Joystick != new_.Joystick {
		d.Joystick = &new_.Joystick
	}
	if old.Flags != new_.Flags {
		d.Flags = &new_.Flags
	}

	prev := make(map[int]ButtonStatus, len(old.Buttons))
	for _, b := range old.Buttons {
		prev[b.Code] = b
	}
	for _, b := range new_.Buttons {
		if p, ok := prev[b.Code]; !ok || p != b {
			d.Buttons = append(d.Buttons, b)
		}
	}

	return d
}
