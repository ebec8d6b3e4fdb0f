// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Command spibench runs the peripheral test scenarios and a few helpers around
// the serial protocol.
//
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/db47h/spibench/internal/config"
	"github.com/spf13/cobra"
)

// set by ldflags
var buildVersion = "dev"

type options struct {
	config  string
	verbose bool
}

// load returns the configuration from the --config flag or the defaults.
func (o *options) load() (*config.Config, error) {
	if o.config == "" {
		return config.Default(), nil
	}
	return config.Load(o.config)
}

func (o *options) logger(w io.Writer) *log.Logger {
	if !o.verbose {
		return nil
	}
	return log.New(w, "[spibench] ", log.LstdFlags)
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:   "spibench",
		Short: "SPI peripheral test bench",
		Long: `spibench drives a simulated SPI peripheral with bit-banged transactions
and measures the PWM signals on its outputs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&opts.config, "config", "c", "", "TOML configuration file")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log transactions and measurements")

	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(runCmd(opts))
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(frameCmd())
	rootCmd.AddCommand(measureCmd(opts))
	rootCmd.AddCommand(configCmd(opts))
	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "spibench %s\n", buildVersion)
		},
	}
}

func configCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.load()
			if err != nil {
				return err
			}
			return c.Encode(cmd.OutOrStdout())
		},
	}
}
