// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package testbench

import (
	"context"
	"fmt"
	"log"
	"math"

	"github.com/db47h/spibench/dut"
	"github.com/db47h/spibench/hwlib"
	"github.com/db47h/spibench/pwm"
	"github.com/pkg/errors"
)

// ErrAssertion is the cause of all errors returned by failed checks in
// scenarios.
//
var ErrAssertion = errors.New("assertion failed")

func assertf(ok bool, format string, args ...interface{}) error {
	if ok {
		return nil
	}
	return errors.Wrapf(ErrAssertion, format, args...)
}

// A Scenario is a named test sequence run against a freshly reset Bench.
//
type Scenario struct {
	Name        string
	Description string
	Run         func(ctx context.Context, b *Bench) error
}

var scenarios = []Scenario{
	{"spi", "register writes reach the outputs, invalid addresses and reads are ignored", runSPI},
	{"pwm-freq", "PWM frequency on uo_out[0] is 3000 Hz within 1%", runPWMFrequency},
	{"pwm-duty", "PWM duty cycle on uo_out[0] and uio_out[0] follows the duty register", runPWMDuty},
}

// Scenarios returns all the scenarios in run order.
//
func Scenarios() []Scenario {
	return append([]Scenario(nil), scenarios...)
}

// Lookup returns the scenario with the given name.
//
func Lookup(name string) (Scenario, bool) {
	for _, s := range scenarios {
		if s.Name == name {
			return s, true
		}
	}
	return Scenario{}, false
}

// Run creates a bench, resets it and runs s.
//
func Run(ctx context.Context, cfg Config, logger *log.Logger, s Scenario) error {
	b, err := New(cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close()
	if err = b.Reset(ctx); err != nil {
		return err
	}
	return errors.Wrap(s.Run(ctx, b), s.Name)
}

type regWrite struct{ addr, data int }

func (b *Bench) program(ctx context.Context, ws ...regWrite) error {
	for _, w := range ws {
		if err := b.Write(ctx, w.addr, w.data); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bench) expectOutputs(uo, uio hwlib.Vector, what string) error {
	o := b.Outputs()
	return assertf(o.UO == uo && o.UIO == uio,
		"%s: expected uo_out=%#02x uio_out=%#02x, got %#02x %#02x", what, uo, uio, o.UO, o.UIO)
}

func runSPI(ctx context.Context, b *Bench) error {
	if err := assertf(b.Outputs().UIOOE == 0xff, "uio_oe: expected 0xff, got %#02x", b.Outputs().UIOOE); err != nil {
		return err
	}
	if err := b.expectOutputs(0, 0, "after reset"); err != nil {
		return err
	}

	steps := []struct {
		write   bool
		addr    int
		data    int
		uo, uio hwlib.Vector
	}{
		{true, dut.RegOutEnLo, 0xf0, 0xf0, 0x00},
		{true, dut.RegOutEnHi, 0xcc, 0xf0, 0xcc},
		{true, 0x30, 0xaa, 0xf0, 0xcc},
		{false, 0x30, 0xbe, 0xf0, 0xcc},
		{false, dut.RegOutEnLo, 0x00, 0xf0, 0xcc},
		{false, dut.RegOutEnHi, 0x00, 0xf0, 0xcc},
	}
	d := b.Driver()
	for _, s := range steps {
		var err error
		if s.write {
			_, err = d.Write(ctx, s.addr, s.data)
		} else {
			_, err = d.Read(ctx, s.addr, s.data)
		}
		if err != nil {
			return err
		}
		what := fmt.Sprintf("write %#02x to %#02x", s.data, s.addr)
		if !s.write {
			what = fmt.Sprintf("read %#02x", s.addr)
		}
		if err = b.expectOutputs(s.uo, s.uio, what); err != nil {
			return err
		}
	}
	b.log.Printf("spi: ok")
	return nil
}

// pwmSetup enables uo_out[7..0] with PWM on uo_out[0] only.
var pwmSetup = []regWrite{
	{dut.RegOutEnLo, 0xff},
	{dut.RegOutEnHi, 0x00},
	{dut.RegPWMEnLo, 0x01},
	{dut.RegPWMEnHi, 0x00},
}

// FrequencyTolerance is the relative tolerance of the pwm-freq scenario.
const FrequencyTolerance = 0.01

func runPWMFrequency(ctx context.Context, b *Bench) error {
	if err := b.program(ctx, append(pwmSetup, regWrite{dut.RegDuty, 0x80})...); err != nil {
		return err
	}
	p, err := b.Probe(dut.UOOut)
	if err != nil {
		return err
	}
	f, err := b.Observer().MeasureFrequency(ctx, p, 0)
	if err != nil {
		return err
	}
	const want = 3000.0
	b.log.Printf("pwm-freq: %.2f Hz", f)
	return assertf(math.Abs(f-want) <= want*FrequencyTolerance,
		"frequency %.2f Hz out of range %.0f Hz ±%.0f%%", f, want, FrequencyTolerance*100)
}

// dutySetup also enables PWM on uio_out[0].
var dutySetup = []regWrite{
	{dut.RegOutEnLo, 0xff},
	{dut.RegOutEnHi, 0x01},
	{dut.RegPWMEnLo, 0x01},
	{dut.RegPWMEnHi, 0x01},
}

// DutySweep lists the duty register values checked by the pwm-duty scenario.
var DutySweep = []int{0x00, 0x01, 0x20, 0x40, 0x80, 0xc0, 0xcf, 0xfe, 0xff}

// DutyTolerance is the absolute tolerance of the pwm-duty scenario.
const DutyTolerance = 0.01

func runPWMDuty(ctx context.Context, b *Bench) error {
	if err := b.program(ctx, dutySetup...); err != nil {
		return err
	}
	var ps []*Probe
	for _, name := range []string{dut.UOOut, dut.UIOOut} {
		p, err := b.Probe(name)
		if err != nil {
			return err
		}
		ps = append(ps, p)
	}
	for _, duty := range DutySweep {
		if err := b.Write(ctx, dut.RegDuty, duty); err != nil {
			return err
		}
		for _, p := range ps {
			var err error
			switch duty {
			case 0x00, 0xff:
				err = b.expectConstant(ctx, p, 0, duty == 0xff)
			default:
				err = b.expectDuty(ctx, p, 0, duty)
			}
			if err != nil {
				return errors.Wrapf(err, "%s[0]: duty %#02x", p.Name(), duty)
			}
		}
	}
	return nil
}

func (b *Bench) expectDuty(ctx context.Context, p *Probe, bit, duty int) error {
	dc, err := b.Observer().MeasureDutyCycle(ctx, p, bit)
	if err != nil {
		return err
	}
	want := float64(duty) / 256
	b.log.Printf("pwm-duty: %s[%d]: %#02x: %.2f%%", p.Name(), bit, duty, dc*100)
	return assertf(math.Abs(dc-want) <= DutyTolerance,
		"duty cycle %.2f%% out of range %.2f%% ±%.0f%%", dc*100, want*100, DutyTolerance*100)
}

// expectConstant checks that no edge occurs on the given bit within the
// observer's timeout and that it stays at the expected level.
//
func (b *Bench) expectConstant(ctx context.Context, p *Probe, bit int, level bool) error {
	if err := assertf(p.Value().Bit(bit) == level, "%s[%d]: expected %v", p.Name(), bit, level); err != nil {
		return err
	}
	_, err := b.Observer().MeasureFrequency(ctx, p, bit)
	if errors.Cause(err) == pwm.ErrTimeout {
		b.log.Printf("pwm-duty: %s[%d]: constant %v", p.Name(), bit, level)
		return assertf(p.Value().Bit(bit) == level, "%s[%d]: expected %v", p.Name(), bit, level)
	}
	if err != nil {
		return err
	}
	return assertf(false, "%s[%d]: expected a constant signal", p.Name(), bit)
}
