// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package testbench mounts the simulated peripheral in a circuit and drives it
// with an spi.Driver while a pwm.Observer watches its outputs.
//
// A Bench owns its circuit: the simulation only advances from the goroutine
// calling the Bench methods, the driver or the observer.
//
package testbench

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/db47h/spibench/dut"
	"github.com/db47h/spibench/hwlib"
	"github.com/db47h/spibench/hwsim"
	"github.com/db47h/spibench/pwm"
	"github.com/db47h/spibench/spi"
	"github.com/pkg/errors"
)

// Config holds the bench parameters.
//
type Config struct {
	ClockPeriod    time.Duration // peripheral clock period
	StepsPerCycle  uint          // simulation steps per clock cycle
	Workers        int           // simulation worker goroutines, <= 0 for GOMAXPROCS
	ResetCycles    int           // cycles with reset asserted, then released before use
	SPI            spi.Config
	MeasureTimeout time.Duration // per-edge deadline of the observer
}

// DefaultConfig returns the default bench configuration: a 10 MHz peripheral
// clock and the default driver and observer timings.
//
func DefaultConfig() Config {
	return Config{
		ClockPeriod:    100 * time.Nanosecond,
		StepsPerCycle:  4,
		Workers:        1,
		ResetCycles:    5,
		SPI:            spi.DefaultConfig(),
		MeasureTimeout: pwm.DefaultTimeout,
	}
}

// Output bus indices.
const (
	outUO = iota
	outUIO
	outUIOOE
	outCount
)

var outNames = [outCount]string{dut.UOOut, dut.UIOOut, dut.UIOOE}

// A Snapshot holds the state of the peripheral's output buses.
//
type Snapshot struct {
	UO    hwlib.Vector // uo_out
	UIO   hwlib.Vector // uio_out
	UIOOE hwlib.Vector // uio_oe
}

// A Bench is a simulated peripheral with its stimulus and probes.
//
// Bench implements spi.Port.
//
type Bench struct {
	*hwsim.Timeline
	cfg  Config
	log  *log.Logger
	ui   hwlib.Vector
	rst  bool
	outs [outCount]hwlib.Vector
	drv  *spi.Driver
	obs  *pwm.Observer
}

// New creates a new bench. Zero values in cfg are replaced by their defaults.
// If logger is nil, nothing is logged.
//
// The peripheral is not reset; see Reset.
//
func New(cfg Config, logger *log.Logger) (*Bench, error) {
	def := DefaultConfig()
	if cfg.ClockPeriod <= 0 {
		cfg.ClockPeriod = def.ClockPeriod
	}
	if cfg.StepsPerCycle == 0 {
		cfg.StepsPerCycle = def.StepsPerCycle
	}
	if cfg.ResetCycles <= 0 {
		cfg.ResetCycles = def.ResetCycles
	}
	if cfg.MeasureTimeout <= 0 {
		cfg.MeasureTimeout = def.MeasureTimeout
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	b := &Bench{cfg: cfg, log: logger, ui: spi.Idle.Vector()}
	parts := hwsim.Parts{
		hwlib.InputN(8, func() int64 { return int64(b.ui) })("out[0..7]=" + dut.UIIn + "[0..7]"),
		hwlib.Input(func() bool { return !b.rst })("out=" + dut.RstN),
	}
	for i, name := range outNames {
		out := &b.outs[i]
		parts = append(parts, hwlib.OutputN(8, func(v int64) { *out = hwlib.Vector(v) })("in[0..7]="+name+"[0..7]"))
	}
	parts = append(parts, dut.Parts()...)

	c, err := hwsim.NewCircuit(cfg.Workers, cfg.StepsPerCycle, parts...)
	if err != nil {
		return nil, errors.Wrap(err, "build circuit")
	}
	b.Timeline, err = hwsim.NewTimeline(c, cfg.ClockPeriod)
	if err != nil {
		c.Dispose()
		return nil, err
	}
	b.cfg.StepsPerCycle = c.SPC()
	b.drv = spi.NewDriver(b, cfg.SPI, logger)
	b.cfg.SPI = b.drv.Config()
	b.obs = &pwm.Observer{Timeout: cfg.MeasureTimeout, Log: logger}
	return b, nil
}

// Close stops the simulation workers. The Bench must not be used afterwards.
//
func (b *Bench) Close() {
	b.Circuit().Dispose()
}

// Config returns the bench configuration with defaults filled in.
//
func (b *Bench) Config() Config { return b.cfg }

// Driver returns the bench's transaction driver.
//
func (b *Bench) Driver() *spi.Driver { return b.drv }

// Observer returns the bench's PWM observer.
//
func (b *Bench) Observer() *pwm.Observer { return b.obs }

// SetInputs sets the ui_in bus.
//
func (b *Bench) SetInputs(v hwlib.Vector) { b.ui = v }

// Inputs returns the current value of the ui_in bus.
//
func (b *Bench) Inputs() hwlib.Vector { return b.ui }

// Outputs returns the current state of the output buses.
//
func (b *Bench) Outputs() Snapshot {
	return Snapshot{UO: b.outs[outUO], UIO: b.outs[outUIO], UIOOE: b.outs[outUIOOE]}
}

// Reset idles the serial lines, then asserts the reset line for the configured
// number of cycles, releases it and waits as long again.
//
func (b *Bench) Reset(ctx context.Context) error {
	b.log.Printf("reset at %v", b.Now())
	b.SetInputs(spi.Idle.Vector())
	b.rst = true
	if err := b.Cycles(ctx, b.cfg.ResetCycles); err != nil {
		return errors.Wrap(err, "reset")
	}
	b.rst = false
	return errors.Wrap(b.Cycles(ctx, b.cfg.ResetCycles), "reset release")
}

// Write programs a register.
//
func (b *Bench) Write(ctx context.Context, addr, data int) error {
	_, err := b.drv.Write(ctx, addr, data)
	return err
}

// Probe returns a probe on the named output bus: uo_out, uio_out or uio_oe.
//
func (b *Bench) Probe(name string) (*Probe, error) {
	for i, n := range outNames {
		if n == name {
			return &Probe{b: b, idx: i}, nil
		}
	}
	return nil, errors.Errorf("no output bus named %q", name)
}

// A Probe watches one output bus of a Bench. It implements pwm.Bus.
//
type Probe struct {
	b   *Bench
	idx int
}

var _ pwm.Bus = (*Probe)(nil)

// Name returns the name of the bus.
//
func (p *Probe) Name() string { return outNames[p.idx] }

// Width returns the width of the bus in bits.
//
func (p *Probe) Width() int { return 8 }

// Now returns the current simulated time.
//
func (p *Probe) Now() time.Duration { return p.b.Now() }

// Value returns the current value of the bus.
//
func (p *Probe) Value() hwlib.Vector { return p.b.outs[p.idx] }

// Next steps the simulation until the bus value changes or the simulated time
// reaches deadline.
//
func (p *Probe) Next(ctx context.Context, deadline time.Duration) (bool, error) {
	v := p.Value()
	for i := 0; p.b.Now() < deadline; i++ {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return false, errors.WithStack(err)
			}
		}
		p.b.Step()
		if p.Value() != v {
			return true, nil
		}
	}
	return false, nil
}
