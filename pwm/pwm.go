// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package pwm measures the frequency and duty cycle of a two-level signal
// observed on one bit of an output vector.
//
// Measurements use a single period: two consecutive rising edges give the
// period, the falling edge between them gives the high time. This is meant for
// verification, not metrology: the result carries the jitter of that one
// period.
//
package pwm

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/db47h/spibench/hwlib"
	"github.com/pkg/errors"
)

// ErrTimeout is the cause of errors returned when an expected edge did not
// occur in time.
//
var ErrTimeout = errors.New("timeout waiting for edge")

// A Signal is an observable output vector.
//
type Signal interface {
	// Now returns the current simulated time.
	Now() time.Duration
	// Value returns the current value of the vector.
	Value() hwlib.Vector
	// Next advances the simulation until the value of the vector changes or
	// the simulated time reaches deadline. It reports whether a change was
	// observed.
	Next(ctx context.Context, deadline time.Duration) (bool, error)
}

// A Bus is a Signal of known width. Bit indices at or past the width are
// rejected.
//
type Bus interface {
	Signal
	Width() int
}

// Edge is a level change observed at a given time.
//
type Edge struct {
	At    time.Duration
	Level bool
}

// Measurement is the result of a single period measurement.
//
type Measurement struct {
	Period    time.Duration // between two rising edges
	High      time.Duration // from rising to falling edge
	Frequency float64       // Hz
	DutyCycle float64       // 0..1
}

// DefaultTimeout is the default edge timeout, in simulated time.
//
const DefaultTimeout = 2 * time.Millisecond

// Observer measures signals. The zero value is usable and uses DefaultTimeout.
//
type Observer struct {
	// Timeout is the maximum simulated time to wait for any single edge.
	Timeout time.Duration
	// Log receives one line per measurement. May be nil.
	Log *log.Logger
}

var std = &Observer{}

// MeasureFrequency returns the frequency in Hz of bit of s using an Observer
// with default settings.
//
func MeasureFrequency(ctx context.Context, s Signal, bit int) (float64, error) {
	return std.MeasureFrequency(ctx, s, bit)
}

// MeasureDutyCycle returns the duty cycle of bit of s using an Observer with
// default settings.
//
func MeasureDutyCycle(ctx context.Context, s Signal, bit int) (float64, error) {
	return std.MeasureDutyCycle(ctx, s, bit)
}

// Measure measures bit of s using an Observer with default settings.
//
func Measure(ctx context.Context, s Signal, bit int) (Measurement, error) {
	return std.Measure(ctx, s, bit)
}

func (o *Observer) timeout() time.Duration {
	if o.Timeout <= 0 {
		return DefaultTimeout
	}
	return o.Timeout
}

func (o *Observer) logger() *log.Logger {
	if o.Log == nil {
		return discard
	}
	return o.Log
}

var discard = log.New(io.Discard, "", 0)

// MeasureFrequency waits for two consecutive rising edges of the given bit and
// returns the frequency in Hz. Level tracking starts when the call begins: a bit
// already high does not count as a rising edge.
//
func (o *Observer) MeasureFrequency(ctx context.Context, s Signal, bit int) (float64, error) {
	w, err := o.watch(s, bit)
	if err != nil {
		return 0, err
	}
	t1, err := w.wait(ctx, true)
	if err != nil {
		return 0, err
	}
	t2, err := w.wait(ctx, true)
	if err != nil {
		return 0, err
	}
	f := frequency(t2 - t1)
	o.logger().Printf("pwm: bit %d: period %v, %.2f Hz", bit, t2-t1, f)
	return f, nil
}

// MeasureDutyCycle waits for a rising edge, the following falling edge and the
// next rising edge of the given bit and returns the fraction of the period
// during which the bit is high.
//
func (o *Observer) MeasureDutyCycle(ctx context.Context, s Signal, bit int) (float64, error) {
	m, err := o.Measure(ctx, s, bit)
	return m.DutyCycle, err
}

// Measure measures period, frequency and duty cycle of the given bit from one
// rising, falling, rising edge sequence.
//
func (o *Observer) Measure(ctx context.Context, s Signal, bit int) (Measurement, error) {
	w, err := o.watch(s, bit)
	if err != nil {
		return Measurement{}, err
	}
	var e [3]Edge
	for i, lvl := range [...]bool{true, false, true} {
		at, err := w.wait(ctx, lvl)
		if err != nil {
			return Measurement{}, err
		}
		e[i] = Edge{at, lvl}
	}
	m := Measurement{
		Period: e[2].At - e[0].At,
		High:   e[1].At - e[0].At,
	}
	m.Frequency = frequency(m.Period)
	m.DutyCycle = float64(m.High) / float64(m.Period)
	o.logger().Printf("pwm: bit %d: period %v, high %v, %.2f Hz, duty %.2f%%", bit, m.Period, m.High, m.Frequency, m.DutyCycle*100)
	return m, nil
}

func frequency(period time.Duration) float64 {
	return float64(time.Second) / float64(period)
}

// watcher tracks the level of a single bit of a Signal.
//
type watcher struct {
	s       Signal
	bit     int
	level   bool
	timeout time.Duration
}

func (o *Observer) watch(s Signal, bit int) (*watcher, error) {
	width := 64
	if b, ok := s.(Bus); ok {
		width = b.Width()
	}
	if bit < 0 || bit >= width {
		return nil, errors.Errorf("invalid bit index %d for a %d bits signal", bit, width)
	}
	return &watcher{s: s, bit: bit, level: s.Value().Bit(bit), timeout: o.timeout()}, nil
}

// wait waits for the bit to transition to level and returns the time of the
// transition.
//
func (w *watcher) wait(ctx context.Context, level bool) (time.Duration, error) {
	start := w.s.Now()
	deadline := start + w.timeout
	for {
		changed, err := w.s.Next(ctx, deadline)
		if err != nil {
			return 0, err
		}
		if !changed {
			dir := "falling"
			if level {
				dir = "rising"
			}
			return 0, errors.Wrapf(ErrTimeout, "no %s edge on bit %d within %v after %v", dir, w.bit, w.timeout, start)
		}
		cur := w.s.Value().Bit(w.bit)
		prev := w.level
		w.level = cur
		if prev != level && cur == level {
			return w.s.Now(), nil
		}
	}
}
