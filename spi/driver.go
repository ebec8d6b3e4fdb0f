// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package spi implements a bit-banged serial transaction driver.
//
// A transaction is framed by an active low chip select and carries 16 bits,
// msb first: the read/write bit, a 7 bits address and 8 bits of data. Each bit
// occupies one serial clock period split into two equal halves: during the low
// half the data line is set, during the high half it is held.
//
// The serial clock is independent of the peripheral clock. The driver measures
// half periods against the simulated time of its Port rather than counting
// peripheral clock cycles.
//
package spi

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/db47h/spibench/hwlib"
	"github.com/pkg/errors"
)

// A Port is the driver's view of the peripheral: an input vector and a
// simulated time source.
//
type Port interface {
	// Now returns the current simulated time.
	Now() time.Duration
	// Cycles advances the simulation by n peripheral clock cycles.
	Cycles(ctx context.Context, n int) error
	// Until advances the simulation until Now() >= t.
	Until(ctx context.Context, t time.Duration) error
	// SetInputs sets the input vector presented to the peripheral.
	SetInputs(v hwlib.Vector)
}

// Config holds the driver's timing parameters.
//
type Config struct {
	HalfPeriod   time.Duration // half of a serial clock period
	SetupCycles  int           // peripheral cycles between chip select and the first bit
	SettleCycles int           // default peripheral cycles after chip select is released
}

// Default timing values.
//
const (
	DefaultHalfPeriod   = 5 * time.Microsecond
	DefaultSetupCycles  = 1
	DefaultSettleCycles = 600
)

// DefaultConfig returns the default driver configuration.
//
func DefaultConfig() Config {
	return Config{
		HalfPeriod:   DefaultHalfPeriod,
		SetupCycles:  DefaultSetupCycles,
		SettleCycles: DefaultSettleCycles,
	}
}

// Driver drives transactions on a Port. A Driver must not be used
// concurrently.
//
type Driver struct {
	port Port
	cfg  Config
	log  *log.Logger
}

// NewDriver returns a new driver for port. Zero values in cfg are replaced by
// their defaults. If logger is nil, nothing is logged.
//
func NewDriver(port Port, cfg Config, logger *log.Logger) *Driver {
	if cfg.HalfPeriod <= 0 {
		cfg.HalfPeriod = DefaultHalfPeriod
	}
	if cfg.SetupCycles <= 0 {
		cfg.SetupCycles = DefaultSetupCycles
	}
	if cfg.SettleCycles <= 0 {
		cfg.SettleCycles = DefaultSettleCycles
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Driver{port: port, cfg: cfg, log: logger}
}

// Config returns the driver's configuration.
//
func (d *Driver) Config() Config { return d.cfg }

// Write sends a write transaction.
//
func (d *Driver) Write(ctx context.Context, addr, data int) (Pins, error) {
	return d.Drive(ctx, Transaction{Dir: Write, Addr: addr, Data: data})
}

// Read sends a read transaction. The driver never samples the peripheral's
// response.
//
func (d *Driver) Read(ctx context.Context, addr, data int) (Pins, error) {
	return d.Drive(ctx, Transaction{Dir: Read, Addr: addr, Data: data})
}

// WriteVector sends a write transaction with data given as a bit vector. The
// vector must fit in DataBits.
//
func (d *Driver) WriteVector(ctx context.Context, addr int, data hwlib.Vector) (Pins, error) {
	return d.Write(ctx, addr, data.Int())
}

// ReadVector is like Read with data given as a bit vector.
//
func (d *Driver) ReadVector(ctx context.Context, addr int, data hwlib.Vector) (Pins, error) {
	return d.Read(ctx, addr, data.Int())
}

// Drive sends tx and returns the final state of the serial lines.
//
// tx is validated before any line changes; an invalid transaction returns a
// *ValidationError (see errors.Cause). Errors from the port are returned as is
// and may leave the transaction incomplete.
//
func (d *Driver) Drive(ctx context.Context, tx Transaction) (Pins, error) {
	f, err := Encode(tx)
	if err != nil {
		return Idle, err
	}
	settle := tx.Settle
	if settle == 0 {
		settle = d.cfg.SettleCycles
	}
	d.log.Printf("spi: %v at %v", f, d.port.Now())

	// chip select, then let the peripheral register the frame start
	d.set(Pins{})
	if err = d.port.Cycles(ctx, d.cfg.SetupCycles); err != nil {
		return Pins{}, errors.Wrap(err, "frame setup")
	}

	for i, bit := range f.Bits() {
		p := Pins{COPI: bit}
		d.set(p)
		if err = d.halfPeriod(ctx); err != nil {
			return p, errors.Wrapf(err, "frame %v bit %d", f, i)
		}
		p.SCLK = true
		d.set(p)
		if err = d.halfPeriod(ctx); err != nil {
			return p, errors.Wrapf(err, "frame %v bit %d", f, i)
		}
	}

	d.set(Idle)
	if err = d.port.Cycles(ctx, settle); err != nil {
		return Idle, errors.Wrap(err, "frame settle")
	}
	return Idle, nil
}

func (d *Driver) set(p Pins) {
	d.port.SetInputs(p.Vector())
}

func (d *Driver) halfPeriod(ctx context.Context) error {
	return d.port.Until(ctx, d.port.Now()+d.cfg.HalfPeriod)
}
