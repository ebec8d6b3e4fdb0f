package spi_test

import (
	"testing"
	"testing/quick"

	"github.com/db47h/spibench/spi"
	"github.com/pkg/errors"
)

func TestEncode(t *testing.T) {
	f := func(dir bool, addr, data uint8) bool {
		tx := spi.Transaction{Addr: int(addr & spi.MaxAddr), Data: int(data)}
		if dir {
			tx.Dir = spi.Write
		}
		fr, err := spi.Encode(tx)
		if err != nil {
			return false
		}
		if int(fr) != int(tx.Dir)<<15|tx.Addr<<8|tx.Data {
			return false
		}
		// msb first on the wire
		bits := fr.Bits()
		for i, b := range bits {
			if b != (int(fr)>>(15-uint(i))&1 == 1) {
				return false
			}
		}
		return fr.Dir() == tx.Dir && fr.Addr() == tx.Addr && fr.Data() == tx.Data
	}
	if err := quick.Check(f, nil); err != nil {
		t.Fatal(err)
	}
}

func TestEncode_bounds(t *testing.T) {
	td := []struct {
		name  string
		tx    spi.Transaction
		field string
	}{
		{"min", spi.Transaction{Dir: spi.Read, Addr: 0, Data: 0}, ""},
		{"max", spi.Transaction{Dir: spi.Write, Addr: 127, Data: 255}, ""},
		{"addr_128", spi.Transaction{Dir: spi.Write, Addr: 128}, "address"},
		{"addr_neg", spi.Transaction{Dir: spi.Read, Addr: -1}, "address"},
		{"data_256", spi.Transaction{Dir: spi.Write, Data: 256}, "data"},
		{"data_neg", spi.Transaction{Dir: spi.Read, Data: -1}, "data"},
		{"dir_2", spi.Transaction{Dir: 2}, "direction"},
		{"settle_neg", spi.Transaction{Dir: spi.Write, Settle: -1}, "settle"},
	}
	for _, d := range td {
		t.Run(d.name, func(t *testing.T) {
			_, err := spi.Encode(d.tx)
			if d.field == "" {
				if err != nil {
					t.Fatalf("unexpected error %v", err)
				}
				return
			}
			ve, ok := errors.Cause(err).(*spi.ValidationError)
			if !ok {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if ve.Field != d.field {
				t.Fatalf("expected invalid %s, got %v", d.field, ve)
			}
		})
	}
}

func TestFrame_String(t *testing.T) {
	f, err := spi.Encode(spi.Transaction{Dir: spi.Write, Addr: 0x04, Data: 0x80})
	if err != nil {
		t.Fatal(err)
	}
	if f != 0x8480 {
		t.Fatalf("expected 0x8480, got %#04x", uint16(f))
	}
	if s := f.String(); s != "write 0x04 0x80" {
		t.Fatalf("unexpected String() %q", s)
	}
}

func TestPins(t *testing.T) {
	td := []struct {
		p spi.Pins
		v uint64
	}{
		{spi.Idle, 0x4},
		{spi.Pins{}, 0},
		{spi.Pins{COPI: true}, 0x2},
		{spi.Pins{COPI: true, SCLK: true}, 0x3},
		{spi.Pins{NCS: true, COPI: true, SCLK: true}, 0x7},
	}
	for _, d := range td {
		v := d.p.Vector()
		if uint64(v) != d.v {
			t.Errorf("%+v: expected %03b, got %s", d.p, d.v, v.Format(3))
		}
		if spi.PinsOf(v) != d.p {
			t.Errorf("%03b: expected %+v, got %+v", d.v, d.p, spi.PinsOf(v))
		}
	}
}
