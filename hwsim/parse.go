// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwsim

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// W is a set of wires, connecting a part's I/O pins (the map key) to wires in
// the circuit.
//
type W map[string]string

// BusPinName returns the pin name for the n-th bit of the given bus name.
//
//	BusPinName("out", 3) // "out[3]"
//
func BusPinName(bus string, bit int) string {
	return bus + "[" + strconv.Itoa(bit) + "]"
}

// Bus returns the individual pin names of an n bits bus.
//
//	Bus("in", 2) // []string{"in[0]", "in[1]"}
//
func Bus(name string, bits int) []string {
	r := make([]string, bits)
	for i := range r {
		r[i] = BusPinName(name, i)
	}
	return r
}

// ParseConnections parses a connection string of the form
//
//	"pin1=wire1, pin2=wire2, bus[0..7]=wires[8..15]"
//
// into a W. Ranges are expanded and must have the same length on both sides
// unless the right hand side is a single wire, in which case all the pins on
// the left hand side are connected to that wire.
//
func ParseConnections(c string) (W, error) {
	w := make(W)
	for _, conn := range strings.Split(c, ",") {
		conn = strings.TrimSpace(conn)
		if conn == "" {
			continue
		}
		i := strings.IndexByte(conn, '=')
		if i < 0 {
			return nil, errors.Errorf("in %q: missing '=' in connection %q", c, conn)
		}
		k, v := strings.TrimSpace(conn[:i]), strings.TrimSpace(conn[i+1:])
		if k == "" || v == "" {
			return nil, errors.New("invalid pin mapping " + k + "=" + v)
		}
		ks, err := expandRange(k)
		if err != nil {
			return nil, errors.Wrap(err, "expand key "+k)
		}
		vs, err := expandRange(v)
		if err != nil {
			return nil, errors.Wrap(err, "expand value "+v)
		}
		switch {
		case len(ks) == len(vs):
			for i := range ks {
				if err = w.add(ks[i], vs[i]); err != nil {
					return nil, err
				}
			}
		case len(vs) == 1:
			// many to one
			for _, k := range ks {
				if err = w.add(k, vs[0]); err != nil {
					return nil, err
				}
			}
		default:
			return nil, errors.New("pin count mismatch in pin mapping: " + k + "=" + v)
		}
	}
	return w, nil
}

func (w W) add(pin, wire string) error {
	if _, ok := w[pin]; ok {
		return errors.New("pin " + pin + " connected more than once")
	}
	w[pin] = wire
	return nil
}

func expandRange(name string) ([]string, error) {
	i := strings.IndexRune(name, '[')
	if i < 0 {
		return []string{name}, nil
	}
	bus := name[:i]
	if bus == "" {
		return nil, errors.New("empty bus name")
	}
	n := name[i+1:]
	i = strings.Index(n, "..")
	if i < 0 {
		return []string{name}, nil
	}
	start, err := strconv.Atoi(n[:i])
	if err != nil {
		return nil, errors.WithStack(err)
	}
	n = n[i+2:]
	i = strings.IndexRune(n, ']')
	if i < 0 {
		return nil, errors.New("no terminating ] in bus range")
	}
	end, err := strconv.Atoi(n[:i])
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if end < start {
		return nil, errors.Errorf("invalid bus range %d..%d", start, end)
	}
	r := make([]string, 0, end-start+1)
	for i := start; i <= end; i++ {
		r = append(r, BusPinName(bus, i))
	}
	return r, nil
}
