// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package spi

import "github.com/db47h/spibench/hwlib"

// Bit positions of the serial lines on the peripheral's input vector.
//
const (
	BitSCLK = 0
	BitCOPI = 1
	BitNCS  = 2
)

// Pins is the state of the serial lines driven by the driver.
//
type Pins struct {
	NCS  bool // chip select, active low
	COPI bool // controller out, peripheral in
	SCLK bool // serial clock
}

// Idle is the state of the lines between transactions.
//
var Idle = Pins{NCS: true}

// Vector returns the input vector for p. All other input bits are 0.
//
func (p Pins) Vector() hwlib.Vector {
	return hwlib.Vector(0).
		With(BitSCLK, p.SCLK).
		With(BitCOPI, p.COPI).
		With(BitNCS, p.NCS)
}

// PinsOf extracts the serial lines from an input vector.
//
func PinsOf(v hwlib.Vector) Pins {
	return Pins{
		NCS:  v.Bit(BitNCS),
		COPI: v.Bit(BitCOPI),
		SCLK: v.Bit(BitSCLK),
	}
}
