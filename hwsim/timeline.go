// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwsim

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// A Timeline maps the steps of a Circuit to simulated time.
//
// The circuit's clock period is split evenly between its steps, so the
// resolution of a Timeline is period / stepsPerCycle.
//
type Timeline struct {
	c      *Circuit
	period time.Duration
	step   time.Duration
}

// NewTimeline returns a new Timeline for c with the given clock period. The
// period must be a multiple of c.SPC() nanoseconds.
//
func NewTimeline(c *Circuit, period time.Duration) (*Timeline, error) {
	if period <= 0 {
		return nil, errors.Errorf("invalid clock period %v", period)
	}
	spc := time.Duration(c.SPC())
	if period%spc != 0 {
		return nil, errors.Errorf("clock period %v is not a multiple of %d steps", period, spc)
	}
	return &Timeline{c: c, period: period, step: period / spc}, nil
}

// Circuit returns the underlying circuit.
//
func (t *Timeline) Circuit() *Circuit { return t.c }

// Period returns the clock period.
//
func (t *Timeline) Period() time.Duration { return t.period }

// Resolution returns the duration of a single simulation step.
//
func (t *Timeline) Resolution() time.Duration { return t.step }

// Now returns the current simulated time.
//
func (t *Timeline) Now() time.Duration {
	return time.Duration(t.c.Steps()) * t.step
}

// Cycles runs the simulation for n clock cycles. If the simulation is not at a
// cycle boundary, the first cycle ends at the next one.
//
func (t *Timeline) Cycles(ctx context.Context, n int) error {
	for ; n > 0; n-- {
		if err := ctx.Err(); err != nil {
			return errors.WithStack(err)
		}
		t.c.TickTock()
	}
	return nil
}

// Until runs the simulation cycle by cycle until the simulated time is at or
// past at.
//
func (t *Timeline) Until(ctx context.Context, at time.Duration) error {
	for t.Now() < at {
		if err := ctx.Err(); err != nil {
			return errors.WithStack(err)
		}
		t.c.TickTock()
	}
	return nil
}

// Step runs a single simulation step.
//
func (t *Timeline) Step() { t.c.Step() }
