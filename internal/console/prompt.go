package console

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Skipped is returned by Choose when the user enters "q" or closes stdin.
const Skipped = -1

// Choose shows options and reads lines until one names an option by
// number. Invalid input is reported and asked again.
func Choose(ctx context.Context, in *Input, out *Printer, title string, options []string, quit, prompt string) (int, error) {
	out.Menu(title, options, quit)
	for {
		out.Printf("%s ", prompt)
		line, err := in.Line(ctx)
		if errors.Is(err, io.EOF) {
			return Skipped, nil
		}
		if err != nil {
			return Skipped, err
		}

		line = strings.ToLower(strings.TrimSpace(line))
		if line == "q" {
			return Skipped, nil
		}
		n, err := strconv.Atoi(line)
		if err != nil {
			out.Error("Please enter a number or 'q'.")
			continue
		}
		if n < 0 || n >= len(options) {
			out.Error("Invalid selection. Try again.")
			continue
		}
		return n, nil
	}
}
