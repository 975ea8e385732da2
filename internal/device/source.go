// Package device reads Joy-Con evdev endpoints without blocking.
package device

import (
	"os"

	evdev "github.com/gvalkov/golang-evdev"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/soar/joymidi/internal/controller"
)

// maxReadsPerPending bounds how many kernel reads one Pending call makes,
// so a flooding device cannot starve the other stream.
const maxReadsPerPending = 8

// ErrDisconnected is returned once the kernel reports the device gone.
var ErrDisconnected = errors.New("device disconnected")

// Role says which endpoint a source reads.
type Role int

const (
	// Main is the button and stick endpoint.
	Main Role = iota
	// Motion is the IMU endpoint.
	Motion
)

func (r Role) String() string {
	if r == Motion {
		return "motion"
	}
	return "main"
}

// Source is a non-blocking sample source over one evdev node.
type Source struct {
	dev    *evdev.InputDevice
	fd     int
	role   Role
	logger *zap.SugaredLogger
}

// Open opens the evdev node at path.
func Open(path string, role Role, logger *zap.SugaredLogger) (*Source, error) {
	dev, err := evdev.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	return newSource(dev, role, logger), nil
}

func newSource(dev *evdev.InputDevice, role Role, logger *zap.SugaredLogger) *Source {
	// Fd puts the file in blocking mode; reads are only issued after poll
	// reports data, so they return immediately.
	return &Source{
		dev:    dev,
		fd:     int(dev.File.Fd()),
		role:   role,
		logger: logger,
	}
}

// Name returns the kernel name of the device.
func (s *Source) Name() string {
	return s.dev.Name
}

// Path returns the device node.
func (s *Source) Path() string {
	return s.dev.Fn
}

// Pending returns every sample the kernel has queued. It never blocks:
// when nothing is ready it returns an empty slice.
func (s *Source) Pending() ([]controller.RawSample, error) {
	var out []controller.RawSample
	for i := 0; i < maxReadsPerPending; i++ {
		ready, err := s.ready()
		if err != nil || !ready {
			return out, err
		}

		events, err := s.dev.Read()
		if err != nil {
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
				return out, nil
			}
			return out, errors.Wrapf(err, "reading %s", s.dev.Fn)
		}
		for _, ev := range events {
			if sample, ok := toSample(ev, s.role); ok {
				out = append(out, sample)
			}
		}
	}
	return out, nil
}

func (s *Source) ready() (bool, error) {
	fds := []unix.PollFd{{Fd: int32(s.fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, 0)
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return false, nil
		}
		return false, os.NewSyscallError("poll", err)
	}
	if n == 0 {
		return false, nil
	}
	if fds[0].Revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0 {
		return false, errors.Wrapf(ErrDisconnected, "%s", s.dev.Fn)
	}
	return fds[0].Revents&unix.POLLIN != 0, nil
}

// Close releases the device node.
func (s *Source) Close() error {
	s.logger.Debugw("closing device", "role", s.role, "path", s.dev.Fn)
	return s.dev.File.Close()
}

func toSample(ev evdev.InputEvent, role Role) (controller.RawSample, bool) {
	switch {
	case ev.Type == evdev.EV_ABS && role == Motion:
		return controller.RawSample{Kind: controller.GyroAxis, Code: int(ev.Code), Value: int(ev.Value)}, true
	case ev.Type == evdev.EV_ABS:
		return controller.RawSample{Kind: controller.JoystickAxis, Code: int(ev.Code), Value: int(ev.Value)}, true
	case ev.Type == evdev.EV_KEY && role == Main:
		return controller.RawSample{Kind: controller.Button, Code: int(ev.Code), Value: int(ev.Value)}, true
	}
	return controller.RawSample{}, false
}
