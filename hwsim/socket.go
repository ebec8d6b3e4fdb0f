// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwsim

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Constant input pin names.
//
var (
	True  = "true"
	False = "false"
	GND   = "false"
	Clk   = "clk"
)

const (
	cstFalse = iota
	cstTrue
	cstClk
	cstCount
)

// A Socket maps a part's pin names to pin numbers in a circuit.
//
type Socket struct {
	m map[string]int
}

func newSocket() *Socket {
	return &Socket{
		m: map[string]int{False: cstFalse, True: cstTrue, Clk: cstClk},
	}
}

// Pin returns the pin number allocated to the given pin name.
// This function panics if the pin does not exist.
//
func (s *Socket) Pin(name string) int {
	n, ok := s.m[name]
	if !ok {
		panic("pin " + name + " does not exist")
	}
	return n
}

// Bus returns the pin numbers allocated to the given bus name.
// This function panics if any of the bus pins does not exist.
//
func (s *Socket) Bus(name string, bits int) []int {
	out := make([]int, bits)
	for i := range out {
		out[i] = s.Pin(BusPinName(name, i))
	}
	return out
}

// wiring keeps track of named wires while parts are mounted into a circuit.
//
type wiring struct {
	wires   map[string]int
	drivers map[int]string // wire number -> driving part.pin
	readers map[int]string // wire number -> wire name, for wires used as inputs
}

func newWiring() *wiring {
	return &wiring{
		wires:   map[string]int{False: cstFalse, True: cstTrue, Clk: cstClk},
		drivers: make(map[int]string),
		readers: make(map[int]string),
	}
}

func (wr *wiring) wire(c *Circuit, name string) int {
	n, ok := wr.wires[name]
	if !ok {
		n = c.allocPin()
		wr.wires[name] = n
	}
	return n
}

// socket allocates wires for all connections of p and returns the socket to
// mount p into.
//
func (wr *wiring) socket(c *Circuit, p Part) (*Socket, error) {
	for k := range p.Conns {
		if !p.hasPin(k) {
			return nil, errors.New("invalid pin name " + k + " for part " + p.Name)
		}
	}
	s := newSocket()
	for _, in := range p.Inputs {
		w, ok := p.Conns[in]
		if !ok {
			// unconnected inputs are grounded
			s.m[in] = cstFalse
			continue
		}
		n := wr.wire(c, w)
		if n >= cstCount {
			wr.readers[n] = w
		}
		s.m[in] = n
	}
	for _, out := range p.Outputs {
		w, ok := p.Conns[out]
		if !ok {
			// private wire, nobody listens
			s.m[out] = c.allocPin()
			continue
		}
		switch w {
		case True, False:
			return nil, errors.Errorf("%s.%s:%s: output pin connected to constant %s input", p.Name, out, w, w)
		case Clk:
			return nil, errors.Errorf("%s.%s:%s: output pin connected to clock signal", p.Name, out, w)
		}
		n := wr.wire(c, w)
		if d, ok := wr.drivers[n]; ok {
			return nil, errors.Errorf("%s.%s:%s: wire already driven by %s", p.Name, out, w, d)
		}
		wr.drivers[n] = p.Name + "." + out
		s.m[out] = n
	}
	return s, nil
}

// check reports wires used as inputs that no part drives.
//
func (wr *wiring) check() error {
	var dangling []string
	for n, name := range wr.readers {
		if _, ok := wr.drivers[n]; !ok {
			dangling = append(dangling, name)
		}
	}
	if len(dangling) == 0 {
		return nil
	}
	sort.Strings(dangling)
	return errors.New("wire(s) " + strings.Join(dangling, ", ") + " not connected to any output")
}
