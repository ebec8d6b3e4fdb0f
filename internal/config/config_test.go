// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package config_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/db47h/spibench/internal/config"
	"github.com/db47h/spibench/testbench"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := config.Default()
	require.NoError(t, c.Validate())
	require.Equal(t, testbench.DefaultConfig(), c.Bench())
}

func TestDecode(t *testing.T) {
	c, err := config.Decode(strings.NewReader(`
[clock]
period = "200ns"
workers = 2

[spi]
half_period = "2.5us"
settle_cycles = 1000

[measure]
timeout = "5ms"
`))
	require.NoError(t, err)
	b := c.Bench()
	require.Equal(t, 200*time.Nanosecond, b.ClockPeriod)
	require.Equal(t, uint(4), b.StepsPerCycle)
	require.Equal(t, 2, b.Workers)
	require.Equal(t, 5, b.ResetCycles)
	require.Equal(t, 2500*time.Nanosecond, b.SPI.HalfPeriod)
	require.Equal(t, 1, b.SPI.SetupCycles)
	require.Equal(t, 1000, b.SPI.SettleCycles)
	require.Equal(t, 5*time.Millisecond, b.MeasureTimeout)
}

func TestDecode_errors(t *testing.T) {
	td := []struct {
		name string
		in   string
		err  string
	}{
		{"syntax", "[clock\n", ""},
		{"duration", "[clock]\nperiod = \"fast\"", "fast"},
		{"unknown", "[clock]\nspeed = 3", "unknown key(s) clock.speed"},
		{"negative", "[clock]\nperiod = \"-1ns\"", "clock.period"},
		{"spc", "[clock]\nsteps_per_cycle = 3", "clock.steps_per_cycle"},
		{"multiple", "[clock]\nperiod = \"102ns\"\nsteps_per_cycle = 8", "not a multiple of 8 steps"},
		{"reset", "[reset]\ncycles = 0", "reset.cycles"},
		{"half_period", "[spi]\nhalf_period = \"0s\"", "spi.half_period"},
		{"settle", "[spi]\nsettle_cycles = -5", "spi.settle_cycles"},
		{"timeout", "[measure]\ntimeout = \"0s\"", "measure.timeout"},
	}
	for _, d := range td {
		t.Run(d.name, func(t *testing.T) {
			_, err := config.Decode(strings.NewReader(d.in))
			require.Error(t, err)
			require.Contains(t, err.Error(), d.err)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bench.toml")
	require.NoError(t, os.WriteFile(path, []byte("[reset]\ncycles = 10\n"), 0o644))
	c, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, 10, c.Reset.Cycles)

	_, err = config.Load(filepath.Join(dir, "missing.toml"))
	require.Error(t, err)
}

func TestEncode(t *testing.T) {
	c := config.Default()
	c.Clock.Workers = 3
	var buf bytes.Buffer
	require.NoError(t, c.Encode(&buf))
	require.Contains(t, buf.String(), `period = "100ns"`)
	require.Contains(t, buf.String(), `half_period = "5µs"`)

	d, err := config.Decode(&buf)
	require.NoError(t, err)
	require.Equal(t, c, d)
}
