package hwsim_test

import (
	"reflect"
	"testing"

	hw "github.com/db47h/spibench/hwsim"
)

func TestParseConnections(t *testing.T) {
	td := []struct {
		in  string
		w   hw.W
		err string
	}{
		{"", hw.W{}, ""},
		{"a=x, b=y", hw.W{"a": "x", "b": "y"}, ""},
		{" out[0..2] = t[4..6] ", hw.W{"out[0]": "t[4]", "out[1]": "t[5]", "out[2]": "t[6]"}, ""},
		{"in[0..1]=true", hw.W{"in[0]": "true", "in[1]": "true"}, ""},
		{"a=bus[3]", hw.W{"a": "bus[3]"}, ""},
		{"a", nil, `in "a": missing '=' in connection "a"`},
		{"a=", nil, "invalid pin mapping a="},
		{"a=x, a=y", nil, "pin a connected more than once"},
		{"a[0..1]=b[0..2]", nil, "pin count mismatch in pin mapping: a[0..1]=b[0..2]"},
		{"a[0..x]=b", nil, `expand key a[0..x]: strconv.Atoi: parsing "x": invalid syntax`},
		{"a[3..1]=b", nil, "expand key a[3..1]: invalid bus range 3..1"},
		{"[0..1]=b", nil, "expand key [0..1]: empty bus name"},
		{"a[0..1=b", nil, "expand key a[0..1: no terminating ] in bus range"},
	}
	for _, d := range td {
		t.Run(d.in, func(t *testing.T) {
			w, err := hw.ParseConnections(d.in)
			if err != nil {
				if d.err == "" {
					t.Fatalf("unexpected error %v", err)
				}
				if err.Error() != d.err {
					t.Fatalf("expected error %q, got %q", d.err, err.Error())
				}
				return
			}
			if d.err != "" {
				t.Fatalf("expected error %q, got nil", d.err)
			}
			if !reflect.DeepEqual(w, d.w) {
				t.Fatalf("expected %v, got %v", d.w, w)
			}
		})
	}
}

func TestNewPart_panics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic")
		}
	}()
	(&hw.PartSpec{Name: "X"}).NewPart("a")
}

func TestBus(t *testing.T) {
	if b := hw.Bus("in", 3); !reflect.DeepEqual(b, []string{"in[0]", "in[1]", "in[2]"}) {
		t.Fatalf("unexpected bus pin names %v", b)
	}
	if n := hw.BusPinName("out", 12); n != "out[12]" {
		t.Fatalf("unexpected pin name %q", n)
	}
}
