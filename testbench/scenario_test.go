// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package testbench

import (
	"context"
	"testing"

	"github.com/db47h/spibench/dut"
	"github.com/db47h/spibench/pwm"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestScenarios(t *testing.T) {
	for _, s := range Scenarios() {
		s := s
		t.Run(s.Name, func(t *testing.T) {
			if testing.Short() && s.Name == "pwm-duty" {
				t.Skip("long duty sweep")
			}
			require.NoError(t, Run(context.Background(), DefaultConfig(), nil, s))
		})
	}
}

func TestLookup(t *testing.T) {
	for _, name := range []string{"spi", "pwm-freq", "pwm-duty"} {
		s, ok := Lookup(name)
		require.True(t, ok, name)
		require.Equal(t, name, s.Name)
		require.NotNil(t, s.Run)
	}
	_, ok := Lookup("nope")
	require.False(t, ok)
}

func TestScenarios_copy(t *testing.T) {
	s := Scenarios()
	s[0].Name = "x"
	require.Equal(t, "spi", Scenarios()[0].Name)
}

func TestRun_assertion(t *testing.T) {
	s := Scenario{Name: "bad", Run: func(ctx context.Context, b *Bench) error {
		if err := b.Write(ctx, dut.RegOutEnLo, 0x01); err != nil {
			return err
		}
		return b.expectOutputs(0x02, 0, "write")
	}}
	err := Run(context.Background(), DefaultConfig(), nil, s)
	require.Error(t, err)
	require.Equal(t, ErrAssertion, errors.Cause(err))
	require.Contains(t, err.Error(), "bad: write: expected uo_out=0x02")
}

func TestExpectConstant(t *testing.T) {
	b, err := New(DefaultConfig(), nil)
	require.NoError(t, err)
	defer b.Close()
	ctx := context.Background()
	require.NoError(t, b.Reset(ctx))
	require.NoError(t, b.program(ctx, append(pwmSetup, regWrite{dut.RegDuty, 0x80})...))
	p, err := b.Probe(dut.UOOut)
	require.NoError(t, err)

	// PWM output
	err = b.expectConstant(ctx, p, 0, p.Value().Bit(0))
	require.Equal(t, ErrAssertion, errors.Cause(err))
	// static output
	require.NoError(t, b.expectConstant(ctx, p, 1, true))
	err = b.expectConstant(ctx, p, 1, false)
	require.Equal(t, ErrAssertion, errors.Cause(err))
}

func TestRun_canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s, _ := Lookup("spi")
	err := Run(ctx, DefaultConfig(), nil, s)
	require.Equal(t, context.Canceled, errors.Cause(err))
}

func TestDutySetup_highByte(t *testing.T) {
	b, err := New(DefaultConfig(), nil)
	require.NoError(t, err)
	defer b.Close()
	ctx := context.Background()
	require.NoError(t, b.Reset(ctx))
	require.NoError(t, b.program(ctx, append(dutySetup, regWrite{dut.RegDuty, 0x40})...))

	p, err := b.Probe(dut.UIOOut)
	require.NoError(t, err)
	require.NoError(t, b.expectDuty(ctx, p, 0, 0x40))

	// without PWM enabled the output is static
	require.NoError(t, b.Write(ctx, dut.RegPWMEnHi, 0x00))
	require.NoError(t, b.expectConstant(ctx, p, 0, true))
	err = b.expectDuty(ctx, p, 0, 0x40)
	require.Equal(t, pwm.ErrTimeout, errors.Cause(err))
}
