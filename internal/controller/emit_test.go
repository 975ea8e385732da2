package controller

import (
	"testing"

	"go.viam.com/test"
)

func TestEmitOrder(t *testing.T) {
	m := testMapping(t, Left)
	s := NewSnapshot(m)
	s.Ingest(
		[]RawSample{
			{Kind: GyroAxis, Code: AbsZ, Value: 4100},
			{Kind: GyroAxis, Code: AbsX, Value: -4100},
		},
		[]RawSample{
			{Kind: Button, Code: 310, Value: 1},
			{Kind: Button, Code: 304, Value: 1},
			{Kind: JoystickAxis, Code: AbsY, Value: 32767},
		},
	)

	msgs := NewEmitter(m).Emit(s, Flags{Gyro: true, Joystick: true})
	test.That(t, msgs, test.ShouldResemble, []Message{
		{Control: 1, Value: 0},
		{Control: 2, Value: 63},
		{Control: 3, Value: 127},
		{Control: 4, Value: 63},
		{Control: 5, Value: 127},
		{Control: 22, Value: 127},
		{Control: 21, Value: 127},
	})
}

func TestEmitFlags(t *testing.T) {
	m := testMapping(t, Left)
	s := NewSnapshot(m)
	e := NewEmitter(m)

	test.That(t, e.Emit(s, Flags{}), test.ShouldBeEmpty)
	test.That(t, e.Emit(s, Flags{Gyro: true}), test.ShouldHaveLength, 3)
	test.That(t, e.Emit(s, Flags{Joystick: true}), test.ShouldHaveLength, 2)

	s.Ingest(nil, []RawSample{{Kind: Button, Code: 309, Value: 1}})
	test.That(t, e.Emit(s, Flags{}), test.ShouldResemble, []Message{{Control: 20, Value: 127}})
}

func TestEmitReleasedButtonKeepsToggleButIsSilent(t *testing.T) {
	m := testMapping(t, Left)
	s := NewSnapshot(m)
	e := NewEmitter(m)

	s.Ingest(nil, []RawSample{{Kind: Button, Code: 309, Value: 1}, {Kind: Button, Code: 309, Value: 0}})
	test.That(t, e.Emit(s, Flags{}), test.ShouldBeEmpty)

	s.Ingest(nil, []RawSample{{Kind: Button, Code: 309, Value: 1}})
	test.That(t, e.Emit(s, Flags{}), test.ShouldResemble, []Message{{Control: 20, Value: 0}})
}

func TestEmitDoesNotMutateRawValues(t *testing.T) {
	m := testMapping(t, Left)
	s := NewSnapshot(m)
	s.Ingest([]RawSample{{Kind: GyroAxis, Code: AbsX, Value: 9999}}, nil)

	NewEmitter(m).Emit(s, Flags{Gyro: true})
	test.That(t, s.Gyro.X, test.ShouldEqual, 9999)
}

func TestEmitControlContainment(t *testing.T) {
	m := testMapping(t, Right)
	s := NewSnapshot(m)
	e := NewEmitter(m)
	s.Ingest(
		[]RawSample{
			{Kind: GyroAxis, Code: AbsX, Value: 1},
			{Kind: GyroAxis, Code: AbsY, Value: 2},
			{Kind: GyroAxis, Code: AbsZ, Value: 3},
		},
		[]RawSample{
			{Kind: JoystickAxis, Code: AbsRX, Value: 10},
			{Kind: JoystickAxis, Code: AbsRY, Value: 20},
			{Kind: Button, Code: 304, Value: 1},
		},
	)

	for _, tc := range []struct {
		control ControlID
		want    []int
	}{
		{GyroX, []int{1}},
		{GyroY, []int{2}},
		{GyroZ, []int{3}},
		{JoystickRX, []int{4}},
		{JoystickRY, []int{5}},
		{JoystickX, nil},
		{JoystickY, nil},
		{Buttons, []int{22}},
	} {
		var got []int
		for _, msg := range e.EmitControl(s, tc.control) {
			got = append(got, msg.Control)
		}
		test.That(t, got, test.ShouldResemble, tc.want)
	}
}

func TestEngaged(t *testing.T) {
	m := testMapping(t, Left)
	s := NewSnapshot(m)
	e := NewEmitter(m)

	for _, c := range []ControlID{GyroX, GyroY, GyroZ, JoystickX, JoystickY, Buttons} {
		test.That(t, e.Engaged(s, c), test.ShouldBeFalse)
	}

	s.Ingest(
		[]RawSample{{Kind: GyroAxis, Code: AbsY, Value: -1}},
		[]RawSample{{Kind: JoystickAxis, Code: AbsX, Value: 3}, {Kind: Button, Code: 310, Value: 1}},
	)
	test.That(t, e.Engaged(s, GyroX), test.ShouldBeFalse)
	test.That(t, e.Engaged(s, GyroY), test.ShouldBeTrue)
	test.That(t, e.Engaged(s, JoystickX), test.ShouldBeTrue)
	test.That(t, e.Engaged(s, JoystickY), test.ShouldBeFalse)
	test.That(t, e.Engaged(s, JoystickRX), test.ShouldBeFalse)
	test.That(t, e.Engaged(s, Buttons), test.ShouldBeTrue)
}
