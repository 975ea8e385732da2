package controller

import "sort"

// Toggle holds the two values every button alternates between.
type Toggle struct {
	On  int `json:"on"`
	Off int `json:"off"`
}

// ButtonState is the state of one configured button.
type ButtonState struct {
	// Active is true only while the button is physically held.
	Active bool
	// Value is the toggled output value. It survives releases.
	Value int
}

// ButtonRegistry tracks toggle state for a fixed set of button codes.
type ButtonRegistry struct {
	toggle Toggle
	codes  []int
	states map[int]*ButtonState
}

// NewButtonRegistry creates one state per code, all released and off.
// Duplicate codes are collapsed.
func NewButtonRegistry(codes []int, toggle Toggle) *ButtonRegistry {
	r := &ButtonRegistry{
		toggle: toggle,
		states: make(map[int]*ButtonState, len(codes)),
	}
	for _, code := range codes {
		if _, ok := r.states[code]; ok {
			continue
		}
		r.states[code] = &ButtonState{Value: toggle.Off}
		r.codes = append(r.codes, code)
	}
	sort.Ints(r.codes)
	return r
}

// OnEvent applies a press or release edge for code. handled is false for
// codes the registry does not own. changed reports whether Active or Value
// moved; a press on an already held button is an auto-repeat and changes
// nothing.
func (r *ButtonRegistry) OnEvent(code int, isPress bool) (changed, handled bool) {
	s, ok := r.states[code]
	if !ok {
		return false, false
	}

	if isPress {
		if s.Active {
			return false, true
		}
		if s.Value == r.toggle.On {
			s.Value = r.toggle.Off
		} else {
			s.Value = r.toggle.On
		}
		s.Active = true
		return true, true
	}

	if !s.Active {
		return false, true
	}
	s.Active = false
	return true, true
}

// State returns a copy of the state for code.
func (r *ButtonRegistry) State(code int) (ButtonState, bool) {
	s, ok := r.states[code]
	if !ok {
		return ButtonState{}, false
	}
	return *s, true
}

// Codes returns the registered button codes in ascending order.
func (r *ButtonRegistry) Codes() []int {
	return r.codes
}

// AnyActive reports whether at least one button is held.
func (r *ButtonRegistry) AnyActive() bool {
	for _, s := range r.states {
		if s.Active {
			return true
		}
	}
	return false
}

// IsOn reports whether v is the toggle's on value.
func (r *ButtonRegistry) IsOn(v int) bool {
	return v == r.toggle.On
}
