// Package teardown releases the resources of a run exactly once, however
// the run ends.
package teardown

import (
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type step struct {
	name  string
	close func() error
}

// Closer runs registered close steps in reverse order of registration.
// Every step is attempted even when earlier ones fail.
type Closer struct {
	mu     sync.Mutex
	steps  []step
	once   sync.Once
	err    error
	logger *zap.SugaredLogger
}

func New(logger *zap.SugaredLogger) *Closer {
	return &Closer{logger: logger}
}

// Add registers a step. Steps added after Close are never run.
func (c *Closer) Add(name string, fn func() error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.steps = append(c.steps, step{name: name, close: fn})
}

// AddFunc registers a step that cannot fail.
func (c *Closer) AddFunc(name string, f func()) {
	c.Add(name, func() error {
		f()
		return nil
	})
}

// Close runs every step once. Later calls return the first call's result.
func (c *Closer) Close() error {
	c.once.Do(func() {
		c.mu.Lock()
		steps := c.steps
		c.steps = nil
		c.mu.Unlock()

		for i := len(steps) - 1; i >= 0; i-- {
			s := steps[i]
			if err := s.close(); err != nil {
				c.logger.Warnw("cleanup failed", "step", s.name, "error", err)
				c.err = multierr.Append(c.err, err)
				continue
			}
			c.logger.Debugw("released", "step", s.name)
		}
	})
	return c.err
}
