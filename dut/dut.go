// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package dut implements the simulated peripheral: a small register file written
// over the serial protocol of package spi, driving up to 16 outputs either
// statically or from a shared PWM generator.
//
// Register map:
//
//	0x00  output enable, outputs 7..0   (uo_out)
//	0x01  output enable, outputs 15..8  (uio_out)
//	0x02  PWM enable, outputs 7..0
//	0x03  PWM enable, outputs 15..8
//	0x04  PWM duty cycle, 0x00 = 0%, 0xFF = 100%
//
// Only write transactions to one of these addresses modify a register. Reads
// and writes to other addresses are ignored.
//
package dut

import (
	"time"

	"github.com/db47h/spibench/hwlib"
	"github.com/db47h/spibench/hwsim"
	"github.com/db47h/spibench/spi"
)

// Register addresses.
//
const (
	RegOutEnLo = 0x00
	RegOutEnHi = 0x01
	RegPWMEnLo = 0x02
	RegPWMEnHi = 0x03
	RegDuty    = 0x04

	NumRegs = 5
)

// Wire names of the peripheral's pins.
//
const (
	RstN   = "rst_n"   // reset, active low
	UIIn   = "ui_in"   // 8 bits input bus, see spi.Pins for the bit assignments
	UOOut  = "uo_out"  // outputs 7..0
	UIOOut = "uio_out" // outputs 15..8
	UIOOE  = "uio_oe"  // output enable of the uio pins, always 0xFF
)

// Prescale is the number of peripheral clock cycles per PWM counter step.
// The PWM period is Prescale * 256 cycles.
//
const Prescale = 13

// PWMPeriod returns the PWM period for the given peripheral clock period.
//
func PWMPeriod(clock time.Duration) time.Duration {
	return Prescale * 256 * clock
}

// internal wire names
const (
	wNCS    = "dut.ncs"
	wCOPI   = "dut.copi"
	wSCLK   = "dut.sclk"
	wEnOut  = "dut.en_out"
	wEnPWM  = "dut.en_pwm"
	wPWM    = "dut.pwm"
	wStatic = "dut.static"
	wGated  = "dut.gated"
)

var coreSpec = hwsim.MakePart((*core)(nil))

// Parts returns the parts of the peripheral connected to the wires rst_n,
// ui_in[0..7], uo_out[0..7], uio_out[0..7] and uio_oe[0..7].
//
func Parts() hwsim.Parts {
	var ps hwsim.Parts
	ps = append(ps, hwlib.Sync(hwsim.BusPinName(UIIn, spi.BitNCS), wNCS)...)
	ps = append(ps, hwlib.Sync(hwsim.BusPinName(UIIn, spi.BitCOPI), wCOPI)...)
	ps = append(ps, hwlib.Sync(hwsim.BusPinName(UIIn, spi.BitSCLK), wSCLK)...)
	ps = append(ps, coreSpec.NewPart(
		"rst_n="+RstN+", ncs="+wNCS+", copi="+wCOPI+", sclk="+wSCLK+
			", en_out[0..15]="+wEnOut+"[0..15], en_pwm[0..15]="+wEnPWM+"[0..15], pwm="+wPWM))

	// out[i] = en_out[i] && (!en_pwm[i] || pwm)
	for i := 0; i < 16; i++ {
		out := hwsim.BusPinName(UOOut, i)
		if i >= 8 {
			out = hwsim.BusPinName(UIOOut, i-8)
		}
		static := hwsim.BusPinName(wStatic, i)
		gated := hwsim.BusPinName(wGated, i)
		ps = append(ps,
			hwlib.Not("in="+hwsim.BusPinName(wEnPWM, i)+", out="+static),
			hwlib.Or("a="+static+", b="+wPWM+", out="+gated),
			hwlib.And("a="+hwsim.BusPinName(wEnOut, i)+", b="+gated+", out="+out),
		)
	}
	ps = append(ps, hwlib.Constant(8, 0xff)("out[0..7]="+UIOOE+"[0..7]"))
	return ps
}
