package device

import (
	"fmt"
	"io"
	"strings"

	evdev "github.com/gvalkov/golang-evdev"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/soar/joymidi/internal/controller"
)

// NotFoundError lists what discovery could not find and what it saw.
type NotFoundError struct {
	MissingMain   bool
	MissingMotion bool
	Available     []string
}

func (e *NotFoundError) Error() string {
	var missing []string
	if e.MissingMain {
		missing = append(missing, "main Joy-Con device")
	}
	if e.MissingMotion {
		missing = append(missing, "IMU Joy-Con device")
	}
	return "could not find " + strings.Join(missing, " and ")
}

// Pair is the two endpoints of one Joy-Con.
type Pair struct {
	Main    *Source
	Motion  *Source
	Variant controller.Variant
}

// classify recognises Joy-Con endpoints by kernel device name. Both the
// joycond style ("Joy-Con (L) (IMU)") and the hid-nintendo style
// ("Nintendo Switch Left Joy-Con IMU") are accepted.
func classify(name string) (v controller.Variant, role Role, ok bool) {
	switch {
	case strings.Contains(name, "Joy-Con (L)"), strings.Contains(name, "Left Joy-Con"):
		v = controller.Left
	case strings.Contains(name, "Joy-Con (R)"), strings.Contains(name, "Right Joy-Con"):
		v = controller.Right
	default:
		return "", Main, false
	}
	if strings.Contains(name, "IMU") {
		role = Motion
	}
	return v, role, true
}

// Find opens the main and IMU endpoints of one Joy-Con. When want is empty
// the first Joy-Con found decides the variant. Devices that are not used
// are closed.
func Find(want controller.Variant, logger *zap.SugaredLogger) (*Pair, error) {
	devices, err := evdev.ListInputDevices()
	if err != nil {
		return nil, errors.Wrap(err, "listing input devices")
	}

	var main, motion *evdev.InputDevice
	variant := want
	var available []string
	for _, dev := range devices {
		available = append(available, fmt.Sprintf("%s - %s", dev.Fn, dev.Name))

		v, role, ok := classify(dev.Name)
		if !ok || (variant != "" && v != variant) {
			continue
		}
		switch {
		case role == Main && main == nil:
			main = dev
			variant = v
			logger.Infow("found main device", "variant", v, "name", dev.Name, "path", dev.Fn)
		case role == Motion && motion == nil:
			motion = dev
			variant = v
			logger.Infow("found IMU device", "variant", v, "name", dev.Name, "path", dev.Fn)
		}
	}

	for _, dev := range devices {
		if dev != main && dev != motion {
			closeDevice(dev.File, dev.Fn, logger)
		}
	}

	if main == nil || motion == nil {
		if main != nil {
			closeDevice(main.File, main.Fn, logger)
		}
		if motion != nil {
			closeDevice(motion.File, motion.Fn, logger)
		}
		return nil, &NotFoundError{
			MissingMain:   main == nil,
			MissingMotion: motion == nil,
			Available:     available,
		}
	}

	return &Pair{
		Main:    newSource(main, Main, logger),
		Motion:  newSource(motion, Motion, logger),
		Variant: variant,
	}, nil
}

// closeDevice releases a device discovery opened but will not use.
func closeDevice(f io.Closer, path string, logger *zap.SugaredLogger) {
	if err := f.Close(); err != nil {
		logger.Debugw("closing unused device", "path", path, "error", err)
	}
}
