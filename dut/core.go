// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package dut

import (
	"github.com/db47h/spibench/hwlib"
	"github.com/db47h/spibench/hwsim"
	"github.com/db47h/spibench/spi"
)

// core is the clocked part of the peripheral. Its serial inputs must be
// synchronized to the peripheral clock.
//
type core struct {
	RstN  int     `hw:"in,rst_n"`
	NCS   int     `hw:"in,ncs"`
	COPI  int     `hw:"in,copi"`
	SCLK  int     `hw:"in,sclk"`
	EnOut [16]int `hw:"out,en_out"`
	EnPWM [16]int `hw:"out,en_pwm"`
	PWM   int     `hw:"out,pwm"`

	regs     [NumRegs]uint8
	shift    uint16
	count    int
	sclkPrev bool
	ncsPrev  bool
	prescale int
	counter  uint8
	pwm      bool
}

func (p *core) Update(c *hwsim.Circuit) {
	if c.AtTick() {
		if c.Get(p.RstN) {
			p.clock(c.Get(p.NCS), c.Get(p.COPI), c.Get(p.SCLK))
		} else {
			p.reset()
		}
	}
	hwlib.SetInt64(c, p.EnOut[:], int64(p.regs[RegOutEnHi])<<8|int64(p.regs[RegOutEnLo]))
	hwlib.SetInt64(c, p.EnPWM[:], int64(p.regs[RegPWMEnHi])<<8|int64(p.regs[RegPWMEnLo]))
	c.Set(p.PWM, p.pwm)
}

func (p *core) reset() {
	*p = core{
		RstN:    p.RstN,
		NCS:     p.NCS,
		COPI:    p.COPI,
		SCLK:    p.SCLK,
		EnOut:   p.EnOut,
		EnPWM:   p.EnPWM,
		PWM:     p.PWM,
		ncsPrev: true,
	}
}

func (p *core) clock(ncs, copi, sclk bool) {
	switch {
	case !ncs && p.ncsPrev:
		// frame start
		p.shift, p.count = 0, 0
	case !ncs && sclk && !p.sclkPrev && p.count < spi.FrameBits:
		p.shift <<= 1
		if copi {
			p.shift |= 1
		}
		p.count++
	case ncs && !p.ncsPrev:
		p.commit()
	}
	p.sclkPrev, p.ncsPrev = sclk, ncs

	duty := p.regs[RegDuty]
	p.pwm = duty == 0xff || p.counter < duty
	p.prescale++
	if p.prescale == Prescale {
		p.prescale = 0
		p.counter++
	}
}

func (p *core) commit() {
	f := spi.Frame(p.shift)
	if p.count != spi.FrameBits || f.Dir() != spi.Write || f.Addr() >= NumRegs {
		return
	}
	p.regs[f.Addr()] = uint8(f.Data())
}
