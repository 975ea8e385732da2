package teardown

import (
	"testing"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap/zaptest"
	"go.viam.com/test"
)

func TestCloseRunsEveryStepOnceInReverse(t *testing.T) {
	c := New(zaptest.NewLogger(t).Sugar())
	var order []string
	errA := errors.New("a failed")
	errC := errors.New("c failed")

	c.Add("a", func() error { order = append(order, "a"); return errA })
	c.AddFunc("b", func() { order = append(order, "b") })
	c.Add("c", func() error { order = append(order, "c"); return errC })

	err := c.Close()
	test.That(t, order, test.ShouldResemble, []string{"c", "b", "a"})
	test.That(t, multierr.Errors(err), test.ShouldResemble, []error{errC, errA})

	test.That(t, c.Close(), test.ShouldBeError, err)
	test.That(t, order, test.ShouldHaveLength, 3)
}

func TestCloseEmpty(t *testing.T) {
	c := New(zaptest.NewLogger(t).Sugar())
	test.That(t, c.Close(), test.ShouldBeNil)

	ran := false
	c.AddFunc("late", func() { ran = true })
	test.That(t, c.Close(), test.ShouldBeNil)
	test.That(t, ran, test.ShouldBeFalse)
}
