package config

import (
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// flagKeys maps command line flags onto configuration keys.
var flagKeys = map[string]string{
	"config":      "config",
	"controller":  "controller",
	"port":        "midi.port",
	"listen":      "status.listen",
	"tray":        "status.tray",
	"no-gyro":     "no_gyro",
	"no-joystick": "no_joystick",
	"midi-learn":  "midi_learn",
	"list-ports":  "list_ports",
	"verbose":     "verbose",
}

// NewFlagSet declares the command line of the bridge.
func NewFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.StringP("config", "c", "", "path to "+FileName)
	fs.String("controller", "", "controller variant: auto, left or right")
	fs.StringP("port", "p", "", "MIDI output port name or number (skips the prompt)")
	fs.String("listen", "", "serve the live status page on this address, e.g. :8080")
	fs.Bool("tray", false, "show a system tray icon")
	fs.Bool("no-gyro", false, "disable gyroscope MIDI output")
	fs.Bool("no-joystick", false, "disable joystick MIDI output")
	fs.Bool("midi-learn", false, "enable MIDI learn mode")
	fs.Bool("list-ports", false, "list MIDI output ports and exit")
	fs.BoolP("verbose", "v", false, "debug logging")
	return fs
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	if fs == nil {
		return nil
	}
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		// only explicitly set flags may override the file
		if !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return errors.Wrapf(err, "binding --%s", name)
		}
	}
	return nil
}
