// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package config loads bench settings from TOML files.
//
package config

import (
	"io"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/db47h/spibench/pwm"
	"github.com/db47h/spibench/spi"
	"github.com/db47h/spibench/testbench"
	"github.com/pkg/errors"
)

// Duration is a time.Duration that decodes from strings like "100ns" or "5us".
//
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
//
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return errors.WithStack(err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
//
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Clock holds the simulation clock settings.
//
type Clock struct {
	Period        Duration `toml:"period"`
	StepsPerCycle uint     `toml:"steps_per_cycle"`
	Workers       int      `toml:"workers"`
}

// Reset holds the reset sequence settings.
//
type Reset struct {
	Cycles int `toml:"cycles"`
}

// SPI holds the transaction driver timings.
//
type SPI struct {
	HalfPeriod   Duration `toml:"half_period"`
	SetupCycles  int      `toml:"setup_cycles"`
	SettleCycles int      `toml:"settle_cycles"`
}

// Measure holds the PWM observer settings.
//
type Measure struct {
	Timeout Duration `toml:"timeout"`
}

// Config is the root of a configuration file.
//
type Config struct {
	Clock   Clock   `toml:"clock"`
	Reset   Reset   `toml:"reset"`
	SPI     SPI     `toml:"spi"`
	Measure Measure `toml:"measure"`
}

// Default returns the default configuration.
//
func Default() *Config {
	d := testbench.DefaultConfig()
	return &Config{
		Clock: Clock{
			Period:        Duration{d.ClockPeriod},
			StepsPerCycle: d.StepsPerCycle,
			Workers:       d.Workers,
		},
		Reset: Reset{Cycles: d.ResetCycles},
		SPI: SPI{
			HalfPeriod:   Duration{spi.DefaultHalfPeriod},
			SetupCycles:  spi.DefaultSetupCycles,
			SettleCycles: spi.DefaultSettleCycles,
		},
		Measure: Measure{Timeout: Duration{pwm.DefaultTimeout}},
	}
}

// Load reads the configuration file at path over the defaults and validates
// the result.
//
func Load(path string) (*Config, error) {
	c := Default()
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	if err = c.check(md); err != nil {
		return nil, errors.Wrap(err, path)
	}
	return c, nil
}

// Decode reads a configuration from r over the defaults and validates the
// result.
//
func Decode(r io.Reader) (*Config, error) {
	c := Default()
	md, err := toml.NewDecoder(r).Decode(c)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if err = c.check(md); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) check(md toml.MetaData) error {
	if u := md.Undecoded(); len(u) > 0 {
		keys := make([]string, len(u))
		for i, k := range u {
			keys[i] = k.String()
		}
		return errors.Errorf("unknown key(s) %s", strings.Join(keys, ", "))
	}
	return c.Validate()
}

// Validate checks that all values are in range.
//
func (c *Config) Validate() error {
	switch {
	case c.Clock.Period.Duration <= 0:
		return errors.Errorf("clock.period: invalid value %v", c.Clock.Period)
	case c.Clock.StepsPerCycle < 2 || c.Clock.StepsPerCycle&(c.Clock.StepsPerCycle-1) != 0:
		return errors.Errorf("clock.steps_per_cycle: %d is not a power of two >= 2", c.Clock.StepsPerCycle)
	case c.Clock.Period.Duration%time.Duration(c.Clock.StepsPerCycle) != 0:
		return errors.Errorf("clock.period: %v is not a multiple of %d steps", c.Clock.Period, c.Clock.StepsPerCycle)
	case c.Clock.Workers < 0:
		return errors.Errorf("clock.workers: invalid value %d", c.Clock.Workers)
	case c.Reset.Cycles <= 0:
		return errors.Errorf("reset.cycles: invalid value %d", c.Reset.Cycles)
	case c.SPI.HalfPeriod.Duration <= 0:
		return errors.Errorf("spi.half_period: invalid value %v", c.SPI.HalfPeriod)
	case c.SPI.SetupCycles <= 0:
		return errors.Errorf("spi.setup_cycles: invalid value %d", c.SPI.SetupCycles)
	case c.SPI.SettleCycles <= 0:
		return errors.Errorf("spi.settle_cycles: invalid value %d", c.SPI.SettleCycles)
	case c.Measure.Timeout.Duration <= 0:
		return errors.Errorf("measure.timeout: invalid value %v", c.Measure.Timeout)
	}
	return nil
}

// Bench returns the bench configuration.
//
func (c *Config) Bench() testbench.Config {
	return testbench.Config{
		ClockPeriod:   c.Clock.Period.Duration,
		StepsPerCycle: c.Clock.StepsPerCycle,
		Workers:       c.Clock.Workers,
		ResetCycles:   c.Reset.Cycles,
		SPI: spi.Config{
			HalfPeriod:   c.SPI.HalfPeriod.Duration,
			SetupCycles:  c.SPI.SetupCycles,
			SettleCycles: c.SPI.SettleCycles,
		},
		MeasureTimeout: c.Measure.Timeout.Duration,
	}
}

// Encode writes c to w in TOML.
//
func (c *Config) Encode(w io.Writer) error {
	return errors.WithStack(toml.NewEncoder(w).Encode(c))
}
