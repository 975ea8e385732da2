package controller

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Linux input axis codes used by Joy-Con endpoints.
const (
	AbsX  = 0x00
	AbsY  = 0x01
	AbsZ  = 0x02
	AbsRX = 0x03
	AbsRY = 0x04
)

// Variant identifies which physical Joy-Con is in use.
type Variant string

const (
	Left  Variant = "Left"
	Right Variant = "Right"
)

// ErrUnknownVariant is returned for controller names that match no layout.
var ErrUnknownVariant = errors.New("unknown controller variant")

// ParseVariant accepts "left"/"right" in any case.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left", "l":
		return Left, nil
	case "right", "r":
		return Right, nil
	}
	return "", errors.Wrapf(ErrUnknownVariant, "%q", s)
}

// Layout describes how one controller variant routes its stick axes.
type Layout struct {
	Variant Variant
	// StickX and StickY are the raw axis codes feeding the joystick vector.
	StickX int
	StickY int
	// Controls are the joystick controls this variant exposes.
	StickControls [2]ControlID
}

// The gyro uses the same codes on both variants.
var gyroCodes = [3]int{AbsX, AbsY, AbsZ}

var leftLayout = &Layout{
	Variant:       Left,
	StickX:        AbsX,
	StickY:        AbsY,
	StickControls: [2]ControlID{JoystickX, JoystickY},
}

var rightLayout = &Layout{
	Variant:       Right,
	StickX:        AbsRX,
	StickY:        AbsRY,
	StickControls: [2]ControlID{JoystickRX, JoystickRY},
}

var layouts = map[Variant]*Layout{
	Left:  leftLayout,
	Right: rightLayout,
}

// LayoutFor returns the layout of v.
func LayoutFor(v Variant) (*Layout, error) {
	if l, ok := layouts[v]; ok {
		return l, nil
	}
	return nil, errors.Wrapf(ErrUnknownVariant, "%q", string(v))
}

// ButtonInfo names a button code. Variant is empty for buttons both
// Joy-Cons report.
type ButtonInfo struct {
	Name    string
	Variant Variant
}

var buttonNames = map[int]ButtonInfo{
	309: {"Z", Left},
	314: {"-", Left},
	317: {"THUMB", Left},
	544: {"↑", Left},
	545: {"↓", Left},
	546: {"←", Left},
	547: {"→", Left},

	304: {"B", Right},
	305: {"A", Right},
	307: {"X", Right},
	308: {"Y", Right},
	315: {"+", Right},
	316: {"MODE", Right},
	318: {"THUMB", Right},

	310: {"TL", ""},
	311: {"TR", ""},
	312: {"TL2", ""},
	313: {"TR2", ""},
}

// ButtonName returns the display name of code, or "?" when unknown.
func ButtonName(code int) string {
	if b, ok := buttonNames[code]; ok {
		return b.Name
	}
	return "?"
}

// ButtonOnVariant reports whether code belongs to v. Unknown codes are
// assumed to exist on both.
func ButtonOnVariant(code int, v Variant) bool {
	b, ok := buttonNames[code]
	return !ok || b.Variant == "" || b.Variant == v
}

// ButtonCC maps one button code to its control-change number.
type ButtonCC struct {
	Code int
	CC   int
}

// Mapping is the fully resolved control routing for one run.
type Mapping struct {
	Layout   *Layout
	Gyro     Range
	Joystick Range
	// GyroCC holds the CC numbers for gyro x, y and z.
	GyroCC [3]int
	// StickCC holds the CC numbers for joystick x and y on this variant.
	StickCC [2]int
	// Buttons is sorted by button code.
	Buttons []ButtonCC
	Toggle  Toggle
	Channel int
}

// NewMapping sorts the button table and checks both ranges.
func NewMapping(layout *Layout, gyro, joystick Range, gyroCC [3]int, stickCC [2]int,
	buttons map[int]int, toggle Toggle, channel int,
) (*Mapping, error) {
	if layout == nil {
		return nil, errors.New("layout is required")
	}
	if err := gyro.Validate(); err != nil {
		return nil, errors.Wrap(err, "gyro range")
	}
	if err := joystick.Validate(); err != nil {
		return nil, errors.Wrap(err, "joystick range")
	}

	m := &Mapping{
		Layout:   layout,
		Gyro:     gyro,
		Joystick: joystick,
		GyroCC:   gyroCC,
		StickCC:  stickCC,
		Toggle:   toggle,
		Channel:  channel,
	}
	for code, cc := range buttons {
		m.Buttons = append(m.Buttons, ButtonCC{Code: code, CC: cc})
	}
	sort.Slice(m.Buttons, func(i, j int) bool { return m.Buttons[i].Code < m.Buttons[j].Code })
	return m, nil
}

// ButtonCodes returns the configured codes in emission order.
func (m *Mapping) ButtonCodes() []int {
	codes := make([]int, len(m.Buttons))
	for i, b := range m.Buttons {
		codes[i] = b.Code
	}
	return codes
}
