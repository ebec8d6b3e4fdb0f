// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"math"
	"strconv"
	"strings"

	"github.com/db47h/spibench/hwsim"
)

// A Vector is the value of a bus of up to 64 pins. Bit 0 is the lsb.
//
type Vector uint64

// Bit returns the state of bit i.
//
func (v Vector) Bit(i int) bool {
	return v&(1<<uint(i)) != 0
}

// With returns a copy of v with bit i set to b.
//
func (v Vector) With(i int, b bool) Vector {
	if b {
		return v | 1<<uint(i)
	}
	return v &^ (1 << uint(i))
}

// Int returns v as an int. Values that do not fit in an int saturate to
// math.MaxInt.
//
func (v Vector) Int() int {
	if v > math.MaxInt {
		return math.MaxInt
	}
	return int(v)
}

// Format returns the lower bits of v as a binary string, msb first.
//
//	Vector(5).Format(8) // "00000101"
//
func (v Vector) Format(bits int) string {
	var b strings.Builder
	b.Grow(bits)
	for i := bits - 1; i >= 0; i-- {
		if v.Bit(i) {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// Int64 returns the pins as an int64. Pin 0 is lsb.
//
func Int64(c *hwsim.Circuit, pins []int) int64 {
	var out int64
	for bit := range pins {
		if c.Get(pins[bit]) {
			out |= 1 << uint(bit)
		}
	}
	return out
}

// SetInt64 sets the pins to the given int64 value.
//
func SetInt64(c *hwsim.Circuit, pins []int, v int64) {
	for bit := range pins {
		c.Set(pins[bit], v&(1<<uint(bit)) != 0)
	}
}

// Input creates a function based input.
//
//	Outputs: out
//	Function: out = f()
//
func Input(f func() bool) hwsim.NewPartFn {
	p := &hwsim.PartSpec{
		Name:    "Input",
		Inputs:  nil,
		Outputs: []string{pOut},
		Mount: func(s *hwsim.Socket) []hwsim.Component {
			pin := s.Pin(pOut)
			return []hwsim.Component{
				func(c *hwsim.Circuit) {
					c.Set(pin, f())
				},
			}
		},
	}
	return p.NewPart
}

// InputN creates an input bus of the given bits size.
//
//	Outputs: out[bits]
//	Function: out = f()
//
func InputN(bits int, f func() int64) hwsim.NewPartFn {
	return (&hwsim.PartSpec{
		Name:    "INPUT" + strconv.Itoa(bits),
		Inputs:  nil,
		Outputs: hwsim.Bus(pOut, bits),
		Mount: func(s *hwsim.Socket) []hwsim.Component {
			pins := s.Bus(pOut, bits)
			return []hwsim.Component{func(c *hwsim.Circuit) {
				SetInt64(c, pins, f())
			}}
		}}).NewPart
}

// OutputN creates an output bus of the given bits size.
//
//	Inputs: in[bits]
//	Function: f(in)
//
func OutputN(bits int, f func(int64)) hwsim.NewPartFn {
	return (&hwsim.PartSpec{
		Name:    "OUTPUT" + strconv.Itoa(bits),
		Inputs:  hwsim.Bus(pIn, bits),
		Outputs: nil,
		Mount: func(s *hwsim.Socket) []hwsim.Component {
			pins := s.Bus(pIn, bits)
			return []hwsim.Component{func(c *hwsim.Circuit) {
				f(Int64(c, pins))
			}}
		}}).NewPart
}

// Constant returns a bus of the given bits size tied to a constant value.
//
//	Outputs: out[bits]
//	Function: out = v
//
func Constant(bits int, v int64) hwsim.NewPartFn {
	return (&hwsim.PartSpec{
		Name:    "CONST" + strconv.Itoa(bits),
		Outputs: hwsim.Bus(pOut, bits),
		Mount: func(s *hwsim.Socket) []hwsim.Component {
			pins := s.Bus(pOut, bits)
			return []hwsim.Component{func(c *hwsim.Circuit) {
				SetInt64(c, pins, v)
			}}
		}}).NewPart
}
