// Package config loads the bridge configuration from config.yml and the
// command line.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/soar/joymidi/internal/controller"
)

// FileName is the base name of the configuration file.
const FileName = "config.yml"

// Error is a fatal configuration problem found at startup.
type Error struct {
	Key    string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Key, e.Reason)
}

func newError(key, format string, args ...interface{}) *Error {
	return &Error{Key: key, Reason: fmt.Sprintf(format, args...)}
}

type Range struct {
	Min *int `mapstructure:"min"`
	Max *int `mapstructure:"max"`
}

type Input struct {
	Gyro     Range `mapstructure:"gyro"`
	Joystick Range `mapstructure:"joystick"`
}

type Toggle struct {
	On  int `mapstructure:"on"`
	Off int `mapstructure:"off"`
}

type MIDI struct {
	Channel int    `mapstructure:"channel"`
	Port    string `mapstructure:"port"`
	Toggle  Toggle `mapstructure:"toggle"`
}

type Mappings struct {
	Gyro          map[string]int `mapstructure:"gyro"`
	JoystickLeft  map[string]int `mapstructure:"joystick_left"`
	JoystickRight map[string]int `mapstructure:"joystick_right"`
	Buttons       map[string]int `mapstructure:"buttons"`
}

type Status struct {
	Listen string `mapstructure:"listen"`
	Tray   bool   `mapstructure:"tray"`
}

type Log struct {
	Level string `mapstructure:"level"`
}

// Config is the validated configuration of one run.
type Config struct {
	// Controller is "auto", "left" or "right".
	Controller     string        `mapstructure:"controller"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	StatusInterval time.Duration `mapstructure:"status_interval"`
	LearnInterval  time.Duration `mapstructure:"learn_interval"`

	Input    Input    `mapstructure:"input"`
	MIDI     MIDI     `mapstructure:"midi"`
	Mappings Mappings `mapstructure:"mappings"`
	Status   Status   `mapstructure:"status"`
	Log      Log      `mapstructure:"log"`

	NoGyro     bool `mapstructure:"no_gyro"`
	NoJoystick bool `mapstructure:"no_joystick"`
	Learn      bool `mapstructure:"midi_learn"`
	ListPorts  bool `mapstructure:"list_ports"`

	// File is the configuration file that was read.
	File string `mapstructure:"-"`

	buttons map[int]int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("controller", "auto")
	v.SetDefault("poll_interval", time.Millisecond)
	v.SetDefault("status_interval", 100*time.Millisecond)
	v.SetDefault("learn_interval", 100*time.Millisecond)
	v.SetDefault("midi.channel", 0)
	v.SetDefault("midi.port", "")
	v.SetDefault("midi.toggle.on", 127)
	v.SetDefault("midi.toggle.off", 0)
	v.SetDefault("status.listen", "")
	v.SetDefault("status.tray", false)
	v.SetDefault("log.level", "info")
}

// Load reads the configuration file and overlays the parsed flags and
// JOYMIDI_* environment variables.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("joymidi")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := bindFlags(v, fs); err != nil {
		return nil, err
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(strings.TrimSuffix(FileName, filepath.Ext(FileName)))
		v.SetConfigType("yaml")
		if exe, err := os.Executable(); err == nil {
			v.AddConfigPath(filepath.Dir(exe))
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil, newError("file", "required %s not found; place it next to the executable or pass --config", FileName)
		}
		return nil, errors.Wrap(err, "reading configuration")
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "decoding configuration")
	}
	cfg.File = v.ConfigFileUsed()
	if v.GetBool("verbose") {
		cfg.Log.Level = "debug"
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if err := checkRange("input.gyro", c.Input.Gyro); err != nil {
		return err
	}
	if err := checkRange("input.joystick", c.Input.Joystick); err != nil {
		return err
	}
	if c.MIDI.Channel < 0 || c.MIDI.Channel > 15 {
		return newError("midi.channel", "%d is outside 0-15", c.MIDI.Channel)
	}
	if err := checkValue("midi.toggle.on", c.MIDI.Toggle.On); err != nil {
		return err
	}
	if err := checkValue("midi.toggle.off", c.MIDI.Toggle.Off); err != nil {
		return err
	}
	if c.MIDI.Toggle.On == c.MIDI.Toggle.Off {
		return newError("midi.toggle", "on and off are both %d", c.MIDI.Toggle.On)
	}
	if c.PollInterval <= 0 {
		return newError("poll_interval", "must be positive")
	}
	if c.StatusInterval <= 0 {
		return newError("status_interval", "must be positive")
	}
	if c.LearnInterval <= 0 {
		return newError("learn_interval", "must be positive")
	}
	if c.Controller != "auto" {
		if _, err := controller.ParseVariant(c.Controller); err != nil {
			return newError("controller", "%q is not auto, left or right", c.Controller)
		}
	}

	for _, section := range []struct {
		key  string
		m    map[string]int
		axes []string
	}{
		{"mappings.gyro", c.Mappings.Gyro, []string{"x", "y", "z"}},
		{"mappings.joystick_left", c.Mappings.JoystickLeft, []string{"x", "y"}},
		{"mappings.joystick_right", c.Mappings.JoystickRight, []string{"x", "y"}},
	} {
		for _, axis := range section.axes {
			cc, ok := section.m[axis]
			if !ok {
				return newError(section.key+"."+axis, "missing control number")
			}
			if err := checkValue(section.key+"."+axis, cc); err != nil {
				return err
			}
		}
	}

	c.buttons = make(map[int]int, len(c.Mappings.Buttons))
	for key, cc := range c.Mappings.Buttons {
		code, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil || code < 0 {
			return newError("mappings.buttons", "%q is not a button code", key)
		}
		if err := checkValue("mappings.buttons."+key, cc); err != nil {
			return err
		}
		c.buttons[code] = cc
	}
	return nil
}

func checkRange(key string, r Range) error {
	if r.Min == nil || r.Max == nil {
		return newError(key, "min and max are required")
	}
	if *r.Min >= *r.Max {
		return newError(key, "min %d must be below max %d", *r.Min, *r.Max)
	}
	return nil
}

func checkValue(key string, v int) error {
	if v < 0 || v > controller.MaxValue {
		return newError(key, "%d is outside 0-%d", v, controller.MaxValue)
	}
	return nil
}

// Buttons returns the button code to control number table.
func (c *Config) Buttons() map[int]int {
	return c.buttons
}

// ButtonCodes returns the configured button codes in ascending order.
func (c *Config) ButtonCodes() []int {
	codes := make([]int, 0, len(c.buttons))
	for code := range c.buttons {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	return codes
}

// Variant returns the configured variant, or ok=false for "auto".
func (c *Config) Variant() (controller.Variant, bool) {
	v, err := controller.ParseVariant(c.Controller)
	if err != nil {
		return "", false
	}
	return v, true
}

// Mapping resolves the control routing for variant v.
func (c *Config) Mapping(v controller.Variant) (*controller.Mapping, error) {
	layout, err := controller.LayoutFor(v)
	if err != nil {
		return nil, err
	}
	stick := c.Mappings.JoystickLeft
	if v == controller.Right {
		stick = c.Mappings.JoystickRight
	}
	return controller.NewMapping(layout,
		controller.Range{Min: *c.Input.Gyro.Min, Max: *c.Input.Gyro.Max},
		controller.Range{Min: *c.Input.Joystick.Min, Max: *c.Input.Joystick.Max},
		[3]int{c.Mappings.Gyro["x"], c.Mappings.Gyro["y"], c.Mappings.Gyro["z"]},
		[2]int{stick["x"], stick["y"]},
		c.buttons,
		controller.Toggle{On: c.MIDI.Toggle.On, Off: c.MIDI.Toggle.Off},
		c.MIDI.Channel,
	)
}

// Flags reports the emission flags requested on the command line.
func (c *Config) Flags() controller.Flags {
	return controller.Flags{Gyro: !c.NoGyro, Joystick: !c.NoJoystick}
}
