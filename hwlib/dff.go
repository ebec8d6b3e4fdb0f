// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import "github.com/db47h/spibench/hwsim"

var dff = hwsim.PartSpec{
	Name:    "DFF",
	Inputs:  []string{pIn},
	Outputs: []string{pOut},
	Mount: func(s *hwsim.Socket) []hwsim.Component {
		in, out := s.Pin(pIn), s.Pin(pOut)
		var curOut bool
		return []hwsim.Component{
			func(c *hwsim.Circuit) {
				// rising edge?
				if c.AtTick() {
					curOut = c.Get(in)
				}
				c.Set(out, curOut)
			}}
	}}

// DFF returns a clocked data flip flop.
//
//	Inputs: in
//	Outputs: out
//	Function: out(t) = in(t-1) // where t is the current clock cycle.
//
func DFF(w string) hwsim.Part {
	return dff.NewPart(w)
}

// Sync returns a two flip-flop synchronizer bringing an asynchronous input into
// the clock domain of the circuit. The intermediate wire is named after the
// output wire with a "_meta" suffix.
//
//	Inputs: in
//	Outputs: out
//	Function: out(t) = in(t-2)
//
func Sync(in, out string) hwsim.Parts {
	meta := out + "_meta"
	return hwsim.Parts{
		DFF("in=" + in + ", out=" + meta),
		DFF("in=" + meta + ", out=" + out),
	}
}
