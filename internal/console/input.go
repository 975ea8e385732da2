// Package console provides the terminal side of the bridge: line and
// keypress input from stdin, and the styled status line and menus.
package console

import (
	"bytes"
	"context"
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/term"
)

// Input reads stdin on a background goroutine so that callers can either
// wait for a whole line or poll for a single key without blocking.
type Input struct {
	chunks chan []byte
	done   chan struct{}

	mu      sync.Mutex
	pending []byte
	err     error

	fd    int
	isTTY bool
	raw   *term.State
}

// NewInput starts reading r. When r is a terminal, raw mode is available
// for keypress detection.
func NewInput(r io.Reader) *Input {
	in := &Input{
		chunks: make(chan []byte, 16),
		done:   make(chan struct{}),
		fd:     -1,
	}
	if f, ok := r.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		in.fd = int(f.Fd())
		in.isTTY = true
	}
	go in.readLoop(r)
	return in
}

func (in *Input) readLoop(r io.Reader) {
	defer close(in.done)
	buf := make([]byte, 256)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			in.chunks <- chunk
		}
		if err != nil {
			in.mu.Lock()
			in.err = err
			in.mu.Unlock()
			return
		}
	}
}

// collect moves every chunk already read into the pending buffer.
func (in *Input) collect() {
	for {
		select {
		case c := <-in.chunks:
			in.pending = append(in.pending, c...)
		default:
			return
		}
	}
}

// Line waits for one line of input. It returns io.EOF once stdin is closed
// and no full line is left, and ctx.Err() when ctx is cancelled first.
func (in *Input) Line(ctx context.Context) (string, error) {
	for {
		in.collect()
		if i := bytes.IndexAny(in.pending, "\r\n"); i >= 0 {
			line, sep := string(in.pending[:i]), in.pending[i]
			in.pending = in.pending[i+1:]
			if sep == '\r' && len(in.pending) > 0 && in.pending[0] == '\n' {
				in.pending = in.pending[1:]
			}
			return line, nil
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case c := <-in.chunks:
			in.pending = append(in.pending, c...)
		case <-in.done:
			in.collect()
			if bytes.IndexAny(in.pending, "\r\n") >= 0 {
				continue
			}
			in.mu.Lock()
			err := in.err
			in.mu.Unlock()
			if len(in.pending) > 0 {
				line := string(in.pending)
				in.pending = nil
				return line, nil
			}
			if err == nil {
				err = io.EOF
			}
			return "", err
		}
	}
}

// KeyPressed reports, without blocking, whether any input arrived since
// the last call or Discard. The input is consumed.
func (in *Input) KeyPressed() bool {
	in.collect()
	if len(in.pending) == 0 {
		return false
	}
	in.pending = in.pending[:0]
	return true
}

// Discard drops input that has already been read.
func (in *Input) Discard() {
	in.collect()
	in.pending = in.pending[:0]
}

// RawMode switches the terminal to raw mode so single keys are delivered
// without Enter. It is a no-op when stdin is not a terminal.
func (in *Input) RawMode() error {
	if !in.isTTY || in.raw != nil {
		return nil
	}
	st, err := term.MakeRaw(in.fd)
	if err != nil {
		return errors.Wrap(err, "entering raw mode")
	}
	in.raw = st
	return nil
}

// Restore leaves raw mode.
func (in *Input) Restore() error {
	if in.raw == nil {
		return nil
	}
	st := in.raw
	in.raw = nil
	return errors.Wrap(term.Restore(in.fd, st), "restoring terminal")
}
