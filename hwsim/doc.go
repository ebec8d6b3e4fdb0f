// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

/*
Package hwsim provides a naive, cycle-stepped hardware simulator used to run a
device under test against a Go test bench.

A Circuit is built from Parts. Each Part is an instance of a PartSpec (its
blueprint) together with a connection string mapping the part's pins to named
wires in the circuit:

	c, err := hwsim.NewCircuit(0, 4,
		hwlib.Input(func() bool { return in })("out=a"),
		hwlib.DFF("in=a, out=b"),
		hwlib.OutputN(1, func(v int64) { out = v != 0 })("in[0]=b"),
	)

Wire states are double buffered: components read the current frame with Get and
write the next frame with Set, so every component sees a consistent state during
a simulation step regardless of evaluation order.

The circuit drives a built-in clock (wire "clk") with a period of
stepsPerCycle steps. A Timeline maps simulation steps to simulated time given a
clock period and provides the "advance until" primitives used by bus drivers and
signal probes.
*/
package hwsim
