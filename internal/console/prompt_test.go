package console

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.viam.com/test"
)

func TestChoose(t *testing.T) {
	for _, tc := range []struct {
		name  string
		input string
		want  int
	}{
		{"number", "1\n", 1},
		{"retry after invalid", "x\n7\n0\n", 0},
		{"quit", " Q \n", Skipped},
		{"eof", "", Skipped},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			got, err := Choose(context.Background(), NewInput(strings.NewReader(tc.input)), NewPrinter(&buf),
				"Available MIDI outputs:", []string{"Midi Through", "IAC Bus 1"}, "Preview mode", "Enter device number:")
			test.That(t, err, test.ShouldBeNil)
			test.That(t, got, test.ShouldEqual, tc.want)
			test.That(t, buf.String(), test.ShouldContainSubstring, "1: IAC Bus 1")
		})
	}
}

func TestChooseReportsInvalidInput(t *testing.T) {
	var buf bytes.Buffer
	_, err := Choose(context.Background(), NewInput(strings.NewReader("abc\n5\n1\n")), NewPrinter(&buf),
		"Ports", []string{"a", "b"}, "", ">")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, buf.String(), test.ShouldContainSubstring, "Please enter a number or 'q'.")
	test.That(t, buf.String(), test.ShouldContainSubstring, "Invalid selection. Try again.")
}
