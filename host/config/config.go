// Package config loads stepctl settings from defaults, an optional YAML
// file and command line flags, in that order of precedence.
package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/basicflag"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"

	"steppulse/host/serial"
)

// DefaultFile is read when -config is not given
const DefaultFile = "stepctl.yaml"

// Config holds the host tool settings
type Config struct {
	Device          string        `koanf:"device"`
	Baud            int           `koanf:"baud"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	OpenTimeout     time.Duration `koanf:"open_timeout"`
	ResponseTimeout time.Duration `koanf:"response_timeout"`
	Verbose         bool          `koanf:"verbose"`

	// Microsteps applied right after connecting, 0 leaves the MCU as is
	Microsteps int `koanf:"microsteps"`
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		Device:          "/dev/ttyACM0",
		Baud:            115200,
		ReadTimeout:     100 * time.Millisecond,
		OpenTimeout:     3 * time.Second,
		ResponseTimeout: 2 * time.Second,
	}
}

// Serial returns the port settings
func (c Config) Serial() *serial.Config {
	return &serial.Config{
		Device:      c.Device,
		Baud:        c.Baud,
		ReadTimeout: c.ReadTimeout,
		OpenTimeout: c.OpenTimeout,
	}
}

// Validate checks value ranges
func (c Config) Validate() error {
	switch {
	case c.Device == "":
		return fmt.Errorf("device must be set")
	case c.Baud <= 0:
		return fmt.Errorf("baud must be positive, got %d", c.Baud)
	case c.ResponseTimeout <= 0:
		return fmt.Errorf("response_timeout must be positive, got %s", c.ResponseTimeout)
	}
	switch c.Microsteps {
	case 0, 1, 2, 4, 8, 16:
		return nil
	}
	return fmt.Errorf("microsteps must be one of 1, 2, 4, 8, 16, got %d", c.Microsteps)
}

// Load parses args (without the program name) and layers the sources.
// A missing config file is only an error when -config names it.
func Load(name string, args []string) (Config, error) {
	def := Default()

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	configFile := fs.String("config", DefaultFile, "YAML configuration file")
	fs.String("device", def.Device, "serial device")
	fs.Int("baud", def.Baud, "baud rate")
	fs.Duration("read-timeout", def.ReadTimeout, "serial read timeout")
	fs.Duration("open-timeout", def.OpenTimeout, "how long to retry opening the device")
	fs.Duration("response-timeout", def.ResponseTimeout, "how long to wait for a command reply")
	fs.Bool("verbose", def.Verbose, "print firmware debug lines")
	fs.Int("microsteps", def.Microsteps, "step mode to select after connecting")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	k := koanf.New(".")
	if err := k.Load(structs.Provider(def, "koanf"), nil); err != nil {
		return Config{}, err
	}

	if err := k.Load(file.Provider(*configFile), yaml.Parser()); err != nil {
		if !os.IsNotExist(err) || set["config"] {
			return Config{}, fmt.Errorf("loading %s: %w", *configFile, err)
		}
	}

	// Only flags given on the command line override the file
	flags := basicflag.ProviderWithValue(fs, ".", func(key, value string) (string, interface{}) {
		if !set[key] || key == "config" {
			return "", nil
		}
		return strings.ReplaceAll(key, "-", "_"), value
	})
	if err := k.Load(flags, nil); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}
