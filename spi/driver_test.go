package spi_test

import (
	"context"
	"testing"
	"time"

	"github.com/db47h/spibench/hwlib"
	"github.com/db47h/spibench/spi"
	"github.com/pkg/errors"
)

type sample struct {
	at time.Duration
	p  spi.Pins
}

// recorder is a Port with a fixed peripheral clock period that records every
// change of the input vector.
type recorder struct {
	period  time.Duration
	now     time.Duration
	samples []sample
	cancel  func() // called on the first SetInputs, if set
}

func (r *recorder) Now() time.Duration { return r.now }

func (r *recorder) Cycles(ctx context.Context, n int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.now += time.Duration(n) * r.period
	return nil
}

func (r *recorder) Until(ctx context.Context, t time.Duration) error {
	for r.now < t {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.now += r.period
	}
	return nil
}

func (r *recorder) SetInputs(v hwlib.Vector) {
	r.samples = append(r.samples, sample{r.now, spi.PinsOf(v)})
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

func drive(t *testing.T, period time.Duration, tx spi.Transaction) *recorder {
	t.Helper()
	r := &recorder{period: period}
	d := spi.NewDriver(r, spi.DefaultConfig(), nil)
	p, err := d.Drive(context.Background(), tx)
	if err != nil {
		t.Fatal(err)
	}
	if p != spi.Idle {
		t.Fatalf("unexpected final pin state %+v", p)
	}
	return r
}

func TestDriver_frame(t *testing.T) {
	td := []spi.Transaction{
		{Dir: spi.Write, Addr: 0x04, Data: 0x80},
		{Dir: spi.Read, Addr: 0x7f, Data: 0xff},
		{Dir: spi.Write, Addr: 0, Data: 0},
		{Dir: spi.Write, Addr: 0x55, Data: 0xaa},
	}
	for _, tx := range td {
		r := drive(t, 100*time.Nanosecond, tx)
		// setup + 16 * (low, high) + idle
		if len(r.samples) != 1+2*spi.FrameBits+1 {
			t.Fatalf("%+v: unexpected sample count %d", tx, len(r.samples))
		}
		// reassemble the frame from COPI at SCLK rising edges
		var f int
		prev := r.samples[0].p
		for _, s := range r.samples[1:] {
			if s.p.SCLK && !prev.SCLK {
				if s.p.COPI != prev.COPI {
					t.Fatalf("%+v: COPI changed on rising SCLK at %v", tx, s.at)
				}
				f <<= 1
				if s.p.COPI {
					f |= 1
				}
			}
			prev = s.p
		}
		if exp := int(tx.Dir)<<15 | tx.Addr<<8 | tx.Data; f != exp {
			t.Fatalf("%+v: expected frame %#04x, got %#04x", tx, exp, f)
		}
	}
}

func TestDriver_framing(t *testing.T) {
	const period = 100 * time.Nanosecond
	r := drive(t, period, spi.Transaction{Dir: spi.Write, Addr: 0x12, Data: 0x34})
	first, last := r.samples[0], r.samples[len(r.samples)-1]

	// chip select asserted with SCLK low
	if first.p != (spi.Pins{}) || first.at != 0 {
		t.Fatalf("unexpected first sample %+v", first)
	}
	// released with SCLK and COPI low
	if last.p != spi.Idle {
		t.Fatalf("unexpected last sample %+v", last)
	}
	for _, s := range r.samples[:len(r.samples)-1] {
		if s.p.NCS {
			t.Fatalf("chip select released early at %v", s.at)
		}
	}
	// setup cycle + 16 full bit periods
	if exp := period + spi.FrameBits*2*spi.DefaultHalfPeriod; last.at != exp {
		t.Fatalf("chip select low for %v, expected %v", last.at, exp)
	}
	// settle time
	if exp := last.at + spi.DefaultSettleCycles*period; r.now != exp {
		t.Fatalf("transaction ended at %v, expected %v", r.now, exp)
	}
}

func TestDriver_halfPeriodSymmetry(t *testing.T) {
	// 5µs is not a multiple of 300ns: halves are rounded up to the next cycle
	// boundary, but must remain equal.
	for _, period := range []time.Duration{100 * time.Nanosecond, 300 * time.Nanosecond, 7 * time.Microsecond} {
		r := drive(t, period, spi.Transaction{Dir: spi.Write, Addr: 0x2a, Data: 0x5a})
		var ref time.Duration
		bits := r.samples[1:]
		for i := 0; i+1 < len(bits); i++ {
			d := bits[i+1].at - bits[i].at
			if ref == 0 {
				ref = d
			}
			if d != ref {
				t.Fatalf("period %v: phase %d lasts %v, expected %v", period, i, d, ref)
			}
		}
		if ref < spi.DefaultHalfPeriod || ref >= spi.DefaultHalfPeriod+period {
			t.Fatalf("period %v: half period %v out of range", period, ref)
		}
	}
}

func TestDriver_validation(t *testing.T) {
	td := []spi.Transaction{
		{Dir: spi.Write, Addr: 128},
		{Dir: spi.Read, Addr: 0, Data: 256},
		{Dir: spi.Write, Addr: -1},
		{Dir: -1},
		{Dir: spi.Write, Addr: 1, Data: 1, Settle: -600},
	}
	for _, tx := range td {
		r := &recorder{period: 100 * time.Nanosecond}
		d := spi.NewDriver(r, spi.Config{}, nil)
		_, err := d.Drive(context.Background(), tx)
		if _, ok := errors.Cause(err).(*spi.ValidationError); !ok {
			t.Fatalf("%+v: expected *ValidationError, got %v", tx, err)
		}
		if len(r.samples) != 0 || r.now != 0 {
			t.Fatalf("%+v: pins driven before validation failure", tx)
		}
	}
}

func TestDriver_settle(t *testing.T) {
	r := &recorder{period: 100 * time.Nanosecond}
	d := spi.NewDriver(r, spi.Config{SettleCycles: 100}, nil)
	if _, err := d.Write(context.Background(), 1, 2); err != nil {
		t.Fatal(err)
	}
	end := r.samples[len(r.samples)-1].at
	if r.now-end != 100*r.period {
		t.Fatalf("expected 100 cycles settle, got %v", r.now-end)
	}
	if _, err := d.Drive(context.Background(), spi.Transaction{Dir: spi.Write, Addr: 4, Data: 0x80, Settle: 30000}); err != nil {
		t.Fatal(err)
	}
	end = r.samples[len(r.samples)-1].at
	if r.now-end != 30000*r.period {
		t.Fatalf("expected 30000 cycles settle, got %v", r.now-end)
	}
	if c := d.Config(); c.HalfPeriod != spi.DefaultHalfPeriod || c.SetupCycles != spi.DefaultSetupCycles {
		t.Fatalf("defaults not applied: %+v", c)
	}
}

func TestDriver_cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := &recorder{period: 100 * time.Nanosecond, cancel: cancel}
	d := spi.NewDriver(r, spi.DefaultConfig(), nil)
	_, err := d.Read(ctx, 0, 0)
	if errors.Cause(err) != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDriver_vector(t *testing.T) {
	ctx := context.Background()
	r := &recorder{period: 100 * time.Nanosecond}
	d := spi.NewDriver(r, spi.DefaultConfig(), nil)
	if _, err := d.WriteVector(ctx, 0x04, hwlib.Vector(0x80)); err != nil {
		t.Fatal(err)
	}
	ref := drive(t, r.period, spi.Transaction{Dir: spi.Write, Addr: 0x04, Data: 0x80})
	if len(r.samples) != len(ref.samples) {
		t.Fatalf("expected %d samples, got %d", len(ref.samples), len(r.samples))
	}
	for i := range ref.samples {
		if r.samples[i] != ref.samples[i] {
			t.Fatalf("sample %d: expected %+v, got %+v", i, ref.samples[i], r.samples[i])
		}
	}

	td := []struct {
		name  string
		write bool
		data  hwlib.Vector
	}{
		{"wide", true, 0x1ff},
		{"9th_bit", false, 0x100},
		{"msb", true, 1 << 63},
		{"all", false, ^hwlib.Vector(0)},
	}
	for _, v := range td {
		r := &recorder{period: 100 * time.Nanosecond}
		d := spi.NewDriver(r, spi.DefaultConfig(), nil)
		var err error
		if v.write {
			_, err = d.WriteVector(ctx, 0, v.data)
		} else {
			_, err = d.ReadVector(ctx, 0, v.data)
		}
		ve, ok := errors.Cause(err).(*spi.ValidationError)
		if !ok || ve.Field != "data" {
			t.Fatalf("%s: expected invalid data, got %v", v.name, err)
		}
		if len(r.samples) != 0 || r.now != 0 {
			t.Fatalf("%s: pins driven before validation failure", v.name)
		}
	}
}
