package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/soar/joymidi/internal/controller"
)

type styles struct {
	title lipgloss.Style
	on    lipgloss.Style
	off   lipgloss.Style
	label lipgloss.Style
	err   lipgloss.Style
}

func newStyles() styles {
	return styles{
		title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(6)),
		on:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(2)),
		off:   lipgloss.NewStyle().Foreground(lipgloss.ANSIColor(8)),
		label: lipgloss.NewStyle().Foreground(lipgloss.ANSIColor(3)),
		err:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(7)).Background(lipgloss.ANSIColor(1)),
	}
}

// Printer writes everything the user sees on the terminal.
type Printer struct {
	w  io.Writer
	st styles
}

func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w, st: newStyles()}
}

func (p *Printer) Println(a ...interface{}) {
	fmt.Fprintln(p.w, a...)
}

func (p *Printer) Printf(format string, a ...interface{}) {
	fmt.Fprintf(p.w, format, a...)
}

// Error prints msg on its own line.
func (p *Printer) Error(msg string) {
	fmt.Fprintln(p.w, p.st.err.Render(msg))
}

func (p *Printer) onOff(on bool) string {
	if on {
		return p.st.on.Render("ON ")
	}
	return p.st.off.Render("OFF")
}

// Status rewrites the status line in place.
func (p *Printer) Status(s controller.Status) {
	var active []string
	for _, b := range s.ActiveButtons() {
		state := "OFF"
		if b.On {
			state = "ON"
		}
		active = append(active, fmt.Sprintf("%s(%s)", b.Name, state))
	}
	buttons := "None"
	if len(active) > 0 {
		buttons = strings.Join(active, ",")
	}

	fmt.Fprintf(p.w, "\r%s %s X:%6d | Y:%6d | Z:%6d [MIDI:%s] | %s X:%6d | Y:%6d [MIDI:%s] | %s %-20s",
		p.st.title.Render("["+string(s.Variant)+"]"),
		p.st.label.Render("Gyro:"), s.Gyro.X, s.Gyro.Y, s.Gyro.Z, p.onOff(s.Flags.Gyro),
		p.st.label.Render("Joy:"), s.Joystick.X, s.Joystick.Y, p.onOff(s.Flags.Joystick),
		p.st.label.Render("Buttons:"), buttons,
	)
}

// Configuration prints the control assignments of a run. An empty port
// means preview mode.
func (p *Printer) Configuration(m *controller.Mapping, flags controller.Flags, port string) {
	if port == "" {
		fmt.Fprintln(p.w, "\nRunning in preview mode (no MIDI output)")
		return
	}

	enabled := map[bool]string{true: "Enabled", false: "Disabled"}
	fmt.Fprintln(p.w, "\n"+p.st.title.Render("Active MIDI Configuration:"))
	fmt.Fprintf(p.w, "Output: %s\n", port)
	fmt.Fprintf(p.w, "Using Joy-Con: %s\n", m.Layout.Variant)
	fmt.Fprintf(p.w, "MIDI Channel: %d\n", m.Channel)
	fmt.Fprintf(p.w, "Gyro Output: %s\n", enabled[flags.Gyro])
	fmt.Fprintf(p.w, "Joystick Output: %s\n", enabled[flags.Joystick])

	fmt.Fprintln(p.w, "\n"+p.st.title.Render("Control Assignments:"))
	if flags.Gyro {
		fmt.Fprintln(p.w, "Gyro:")
		for i, axis := range []string{"X", "Y", "Z"} {
			fmt.Fprintf(p.w, "  %s-axis : CC%d\n", axis, m.GyroCC[i])
		}
	}
	if flags.Joystick {
		fmt.Fprintln(p.w, "Joystick:")
		for i, axis := range []string{"X", "Y"} {
			fmt.Fprintf(p.w, "  %s-axis : CC%d\n", axis, m.StickCC[i])
		}
	}
	fmt.Fprintln(p.w, "Buttons:")
	for _, b := range m.Buttons {
		if !controller.ButtonOnVariant(b.Code, m.Layout.Variant) {
			continue
		}
		fmt.Fprintf(p.w, "  %s : CC%d\n", controller.ButtonName(b.Code), b.CC)
	}
}

// Menu prints numbered options followed by the quit hint.
func (p *Printer) Menu(title string, options []string, quit string) {
	fmt.Fprintln(p.w, "\n"+p.st.title.Render(title))
	for i, o := range options {
		fmt.Fprintf(p.w, "%d: %s\n", i, o)
	}
	if quit != "" {
		fmt.Fprintf(p.w, "q: %s\n", quit)
	}
}
