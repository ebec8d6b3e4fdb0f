// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"fmt"
	"strconv"

	"github.com/db47h/spibench/dut"
	"github.com/db47h/spibench/hwlib"
	"github.com/db47h/spibench/spi"
	"github.com/db47h/spibench/testbench"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// parseInt parses decimal, 0x hex or 0b binary values.
func parseInt(name, s string) (int, error) {
	v, err := strconv.ParseInt(s, 0, 0)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s", name)
	}
	return int(v), nil
}

func parseDir(s string) (spi.Direction, error) {
	switch s {
	case "write", "w", "1":
		return spi.Write, nil
	case "read", "r", "0":
		return spi.Read, nil
	}
	return 0, errors.Errorf("invalid direction %q", s)
}

func frameCmd() *cobra.Command {
	var dir, addr, data string
	cmd := &cobra.Command{
		Use:   "frame",
		Short: "Encode a transaction",
		Long: `Print the 16 bits frame of a transaction as hex and as the msb first bit
sequence sent on COPI.

Example:
  spibench frame --dir write --addr 0x04 --data 0x80`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				tx  spi.Transaction
				err error
			)
			if tx.Dir, err = parseDir(dir); err != nil {
				return err
			}
			if tx.Addr, err = parseInt("address", addr); err != nil {
				return err
			}
			if tx.Data, err = parseInt("data", data); err != nil {
				return err
			}
			f, err := spi.Encode(tx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "frame: %#04x (%v)\n", uint16(f), f)
			fmt.Fprintf(out, "bits:  %s\n", hwlib.Vector(f).Format(spi.FrameBits))
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", "write", "Direction: read or write")
	cmd.Flags().StringVarP(&addr, "addr", "a", "0", "Register address, 0..127")
	cmd.Flags().StringVar(&data, "data", "0", "Data byte, 0..255")
	return cmd
}

func measureCmd(opts *options) *cobra.Command {
	var duty string
	var bit int
	cmd := &cobra.Command{
		Use:   "measure",
		Short: "Measure the PWM output for a duty cycle value",
		Long: `Reset the peripheral, enable PWM on output bit (0..15) with the given duty
register value and measure its frequency and duty cycle.

Example:
  spibench measure --duty 0x40 --bit 9`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.load()
			if err != nil {
				return err
			}
			d, err := parseInt("duty", duty)
			if err != nil {
				return err
			}
			if bit < 0 || bit > 15 {
				return errors.Errorf("invalid output bit %d", bit)
			}

			ctx := cmd.Context()
			b, err := testbench.New(c.Bench(), opts.logger(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			defer b.Close()
			if err = b.Reset(ctx); err != nil {
				return err
			}
			en, pwmEn, bus, pin := dut.RegOutEnLo, dut.RegPWMEnLo, dut.UOOut, bit
			if bit >= 8 {
				en, pwmEn, bus, pin = dut.RegOutEnHi, dut.RegPWMEnHi, dut.UIOOut, bit-8
			}
			for _, w := range [][2]int{{en, 1 << uint(pin)}, {pwmEn, 1 << uint(pin)}, {dut.RegDuty, d}} {
				if err = b.Write(ctx, w[0], w[1]); err != nil {
					return err
				}
			}
			p, err := b.Probe(bus)
			if err != nil {
				return err
			}
			m, err := b.Observer().Measure(ctx, p, pin)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s[%d]: period %v, high %v, %.2f Hz, duty %.2f%%\n",
				bus, pin, m.Period, m.High, m.Frequency, m.DutyCycle*100)
			return nil
		},
	}
	cmd.Flags().StringVar(&duty, "duty", "0x80", "Duty register value, 0..255")
	cmd.Flags().IntVarP(&bit, "bit", "b", 0, "Output bit, 0..15")
	return cmd
}
