package learn

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap/zaptest"
	"go.viam.com/test"

	"github.com/soar/joymidi/internal/console"
	"github.com/soar/joymidi/internal/controller"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type sent struct {
	control, value, channel int
}

type recordingSink struct {
	mu   sync.Mutex
	msgs []sent
}

func (r *recordingSink) Send(control, value, channel int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, sent{control, value, channel})
	return nil
}

func (r *recordingSink) Close() error { return nil }

func (r *recordingSink) all() []sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sent(nil), r.msgs...)
}

// onceSource yields its samples on the first read and nothing afterwards.
type onceSource struct {
	samples []controller.RawSample
}

func (s *onceSource) Pending() ([]controller.RawSample, error) {
	out := s.samples
	s.samples = nil
	return out, nil
}

func testMapping(t *testing.T) *controller.Mapping {
	t.Helper()
	layout, err := controller.LayoutFor(controller.Left)
	test.That(t, err, test.ShouldBeNil)
	m, err := controller.NewMapping(layout,
		controller.Range{Min: -4100, Max: 4100},
		controller.Range{Min: -32767, Max: 32767},
		[3]int{1, 2, 3}, [2]int{4, 5},
		map[int]int{309: 20},
		controller.Toggle{On: 127, Off: 0}, 5)
	test.That(t, err, test.ShouldBeNil)
	return m
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for condition")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSessionMonitorsOnlySelectedControl(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	out := &syncBuffer{}
	sink := &recordingSink{}
	motion := &onceSource{samples: []controller.RawSample{
		{Kind: controller.GyroAxis, Code: controller.AbsX, Value: 4100},
		{Kind: controller.GyroAxis, Code: controller.AbsY, Value: 100},
	}}
	input := &onceSource{samples: []controller.RawSample{
		{Kind: controller.Button, Code: 309, Value: 1},
		{Kind: controller.JoystickAxis, Code: controller.AbsX, Value: 900},
	}}

	s := NewSession(testMapping(t), motion, input, sink,
		console.NewInput(r), console.NewPrinter(out), time.Millisecond, zaptest.NewLogger(t).Sugar())

	type result struct {
		flags controller.Flags
		err   error
	}
	done := make(chan result, 1)
	go func() {
		flags, err := s.Run(context.Background())
		done <- result{flags, err}
	}()

	_, err := w.Write([]byte("abc\n"))
	test.That(t, err, test.ShouldBeNil)
	waitFor(t, func() bool { return strings.Contains(out.String(), "Invalid selection") })

	_, err = w.Write([]byte("0\n"))
	test.That(t, err, test.ShouldBeNil)
	waitFor(t, func() bool { return len(sink.all()) >= 3 })

	_, err = w.Write([]byte("k"))
	test.That(t, err, test.ShouldBeNil)
	waitFor(t, func() bool { return strings.Contains(out.String(), "Gyro X-axis learning complete!") })

	_, err = w.Write([]byte("q\n"))
	test.That(t, err, test.ShouldBeNil)

	res := <-done
	test.That(t, res.err, test.ShouldBeNil)
	test.That(t, res.flags, test.ShouldResemble, controller.Flags{Gyro: true})

	for _, m := range sink.all() {
		test.That(t, m, test.ShouldResemble, sent{control: 1, value: 127, channel: 5})
	}
	test.That(t, out.String(), test.ShouldContainSubstring, "MIDI Learn complete!")
}

func TestSessionIdleControlSendsNothing(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	out := &syncBuffer{}
	sink := &recordingSink{}

	s := NewSession(testMapping(t), &onceSource{}, &onceSource{}, sink,
		console.NewInput(r), console.NewPrinter(out), time.Millisecond, zaptest.NewLogger(t).Sugar())

	done := make(chan error, 1)
	go func() {
		_, err := s.Run(context.Background())
		done <- err
	}()

	_, err := w.Write([]byte("5\n"))
	test.That(t, err, test.ShouldBeNil)
	waitFor(t, func() bool { return strings.Contains(out.String(), "Learning Buttons (all)") })
	time.Sleep(10 * time.Millisecond)

	_, err = w.Write([]byte(" "))
	test.That(t, err, test.ShouldBeNil)
	waitFor(t, func() bool { return strings.Contains(out.String(), "learning complete!") })

	_, err = w.Write([]byte("q\n"))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, <-done, test.ShouldBeNil)
	test.That(t, sink.all(), test.ShouldBeEmpty)
	test.That(t, s.Machine().Learned(controller.Buttons), test.ShouldBeTrue)
}

func TestSessionEndsOnEOF(t *testing.T) {
	s := NewSession(testMapping(t), &onceSource{}, &onceSource{}, &recordingSink{},
		console.NewInput(strings.NewReader("")), console.NewPrinter(io.Discard), time.Millisecond,
		zaptest.NewLogger(t).Sugar())

	flags, err := s.Run(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, flags, test.ShouldResemble, controller.Flags{})
	test.That(t, s.Machine().State(), test.ShouldEqual, Finished)
}

func TestSessionCancelledWhileMonitoring(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	out := &syncBuffer{}
	s := NewSession(testMapping(t), &onceSource{}, &onceSource{}, &recordingSink{},
		console.NewInput(r), console.NewPrinter(out), time.Millisecond, zaptest.NewLogger(t).Sugar())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := s.Run(ctx)
		done <- err
	}()

	_, err := w.Write([]byte("1\n"))
	test.That(t, err, test.ShouldBeNil)
	waitFor(t, func() bool { return strings.Contains(out.String(), "Learning Gyro Y-axis") })
	cancel()
	test.That(t, errors.Is(<-done, context.Canceled), test.ShouldBeTrue)
}
