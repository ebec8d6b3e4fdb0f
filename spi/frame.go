// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package spi

import (
	"fmt"

	"github.com/pkg/errors"
)

// Direction is the read/write bit of a transaction.
//
type Direction int

// Transaction directions.
//
const (
	Read  Direction = 0
	Write Direction = 1
)

func (d Direction) String() string {
	switch d {
	case Read:
		return "read"
	case Write:
		return "write"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// Field widths.
//
const (
	AddrBits  = 7
	DataBits  = 8
	FrameBits = 1 + AddrBits + DataBits

	MaxAddr = 1<<AddrBits - 1
	MaxData = 1<<DataBits - 1
)

// A Transaction is a single read or write request.
//
type Transaction struct {
	Dir  Direction
	Addr int
	Data int
	// Settle is the number of peripheral clock cycles to wait after chip
	// select is released. If 0, the driver's default is used.
	Settle int
}

// ValidationError is returned for transactions with out of range fields.
//
type ValidationError struct {
	Field string
	Value int
	Max   int // upper bound, -1 if unbounded
}

func (e *ValidationError) Error() string {
	if e.Max < 0 {
		return fmt.Sprintf("invalid %s %d: must be >= 0", e.Field, e.Value)
	}
	return fmt.Sprintf("invalid %s %d: must be in range 0..%d", e.Field, e.Value, e.Max)
}

// Validate checks that all fields of tx fit their bit width.
//
func (tx Transaction) Validate() error {
	switch {
	case tx.Dir != Read && tx.Dir != Write:
		return errors.WithStack(&ValidationError{"direction", int(tx.Dir), 1})
	case tx.Addr < 0 || tx.Addr > MaxAddr:
		return errors.WithStack(&ValidationError{"address", tx.Addr, MaxAddr})
	case tx.Data < 0 || tx.Data > MaxData:
		return errors.WithStack(&ValidationError{"data", tx.Data, MaxData})
	case tx.Settle < 0:
		return errors.WithStack(&ValidationError{"settle", tx.Settle, -1})
	}
	return nil
}

// A Frame is the serialized form of a Transaction:
//
//	bit 15: direction
//	bits 14..8: address
//	bits 7..0: data
//
// Frames are sent msb first.
//
type Frame uint16

// Encode validates tx and returns its frame.
//
func Encode(tx Transaction) (Frame, error) {
	if err := tx.Validate(); err != nil {
		return 0, err
	}
	return Frame(int(tx.Dir)<<(FrameBits-1) | tx.Addr<<DataBits | tx.Data), nil
}

// Bit returns the i-th bit of f in wire order: Bit(0) is bit 15 of the frame.
//
func (f Frame) Bit(i int) bool {
	return f&(1<<uint(FrameBits-1-i)) != 0
}

// Bits returns the frame bits in wire order.
//
func (f Frame) Bits() [FrameBits]bool {
	var r [FrameBits]bool
	for i := range r {
		r[i] = f.Bit(i)
	}
	return r
}

// Dir returns the direction bit of f.
//
func (f Frame) Dir() Direction { return Direction(f >> (FrameBits - 1)) }

// Addr returns the address field of f.
//
func (f Frame) Addr() int { return int(f>>DataBits) & MaxAddr }

// Data returns the data field of f.
//
func (f Frame) Data() int { return int(f) & MaxData }

func (f Frame) String() string {
	return fmt.Sprintf("%s %#02x %#02x", f.Dir(), f.Addr(), f.Data())
}
