// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/db47h/spibench/testbench"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func runCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run [scenario...]",
		Short: "Run test scenarios",
		Long: `Run the named scenarios, or all of them, each on a freshly reset bench.

Examples:
  # Run everything
  spibench run

  # Check register writes only, with a custom clock
  spibench run spi --config bench.toml -v`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.load()
			if err != nil {
				return err
			}
			ss := testbench.Scenarios()
			if len(args) > 0 {
				ss = ss[:0]
				for _, name := range args {
					s, ok := testbench.Lookup(name)
					if !ok {
						return errors.Errorf("unknown scenario %q", name)
					}
					ss = append(ss, s)
				}
			}

			out := cmd.OutOrStdout()
			logger := opts.logger(cmd.ErrOrStderr())
			var failed int
			for _, s := range ss {
				start := time.Now()
				err := testbench.Run(cmd.Context(), c.Bench(), logger, s)
				elapsed := time.Since(start).Round(time.Millisecond)
				if err != nil {
					if errors.Cause(err) != testbench.ErrAssertion {
						return err
					}
					failed++
					fmt.Fprintf(out, "FAIL %s (%v): %v\n", s.Name, elapsed, err)
					continue
				}
				fmt.Fprintf(out, "ok   %s (%v)\n", s.Name, elapsed)
			}
			if failed > 0 {
				return errors.Errorf("%d of %d scenario(s) failed", failed, len(ss))
			}
			return nil
		},
	}
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List test scenarios",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
			for _, s := range testbench.Scenarios() {
				fmt.Fprintf(w, "%s\t%s\n", s.Name, s.Description)
			}
			w.Flush()
		},
	}
}
