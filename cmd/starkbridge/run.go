// Copyright (c) 2026 - for information on the respective copyright owner
// see the NOTICE file and/or the repository at
// https://github.com/starkbridge/starkbridge
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/starkbridge/starkbridge"
	"github.com/starkbridge/starkbridge/config"
	"github.com/starkbridge/starkbridge/host"
)

const (
	// flag names for run command, in addition to the config flags.
	configfileF  = "configfile"
	envfileF     = "envfile"
	callF        = "call"
	callsfileF   = "callsfile"
	tickF        = "tick"
	metricsAddrF = "metrics-addr"

	// default values for flags in run command.
	defaultConfigFile      = "starkbridge.yaml"
	defaultEnvFile         = ".env"
	defaultTick            = 100 * time.Millisecond
	defaultShutdownTimeout = 10 * time.Second
)

// Resolver for the configuration. The config flags of the run command are
// bound to it, so that the values from flags (when specified) override all
// other sources.
var resolver *config.Resolver

func init() {
	rootCmd.AddCommand(runCmd)
	defineFlags()

	resolver = config.NewResolver()
	if err := resolver.BindFlags(runCmd.Flags()); err != nil {
		panic(err)
	}
}

func defineFlags() {
	runCmd.Flags().String(configfileF, defaultConfigFile, "config file, ignored if missing and not specified")
	runCmd.Flags().String(envfileF, defaultEnvFile, ".env file, ignored if missing")
	runCmd.Flags().StringArray(callF, nil, "call as to:selector[:arg,arg...], the selector can be an entry point name")
	runCmd.Flags().String(callsfileF, "", "yaml file with a list of calls")
	runCmd.Flags().Duration(tickF, defaultTick, "interval of the tick loop")
	runCmd.Flags().String(metricsAddrF, "", "address to serve prometheus metrics at, disabled if empty")
	config.DefineFlags(runCmd.Flags())
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect, submit the calls as one transaction and track it until it is final",
	Long: `Connect to the node, submit the calls as one transaction and track it
until it is final. Without calls, the command returns once connected.

Configuration is read from the config file, a .env file, environment
variables prefixed with STARKNET_ and flags. Values in flags override those
in the environment, which override those in the config file.`,
	RunE: run,
}

func run(cmd *cobra.Command, _ []string) error {
	fs := cmd.Flags()
	out := cmd.OutOrStdout()

	envFile, _ := fs.GetString(envfileF)
	if err := resolver.LoadEnvFiles(envFile); err != nil {
		return err
	}
	cfgFile, _ := fs.GetString(configfileF)
	if _, err := os.Stat(cfgFile); err == nil || fs.Changed(configfileF) {
		if err := resolver.ReadFile(cfgFile); err != nil {
			return err
		}
		fmt.Fprintf(out, "Using config file - %s\n", cfgFile)
	}
	cfg, err := resolver.Resolve()
	if err != nil {
		return err
	}

	callsFile, _ := fs.GetString(callsfileF)
	callFlags, _ := fs.GetStringArray(callF)
	calls, err := parseCalls(callsFile, callFlags)
	if err != nil {
		return err
	}
	interval, _ := fs.GetDuration(tickF)
	metricsAddr, _ := fs.GetString(metricsAddrF)

	fmt.Fprintf(out, "Running starkbridge with the below config:\n%s\n\n", prettify(masked(cfg)))

	reg := prometheus.NewRegistry()
	if metricsAddr != "" {
		srv := serveMetrics(metricsAddr, reg)
		defer srv.Close() // nolint: errcheck
		fmt.Fprintf(out, "Serving metrics at %s/metrics\n\n", metricsAddr)
	}

	h, err := host.New(cfg.Host, nil, reg)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return drive(ctx, out, h, cfg.Connection, calls, interval)
}

// drive runs the tick loop until it is done or ctx is cancelled, then shuts
// the host down and prints the transaction records.
func drive(ctx context.Context, out io.Writer, h *host.Host, conn starkbridge.ConnectionConfig,
	calls []starkbridge.Call, interval time.Duration) error {
	d := &driver{h: h, out: out, conn: conn, calls: calls}
	runErr := d.run(ctx, interval)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	deltas, err := h.Shutdown(shutdownCtx)
	if err != nil {
		fmt.Fprintln(out, redf("Error shutting down: %v", err))
	}
	for _, delta := range deltas {
		fmt.Fprintln(out, deltaString(delta))
	}

	if records := h.Records(); len(records) > 0 {
		dump, err := recordsYAML(records)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\nTransactions:\n%s", dump)
	}
	return runErr
}

func serveMetrics(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintln(os.Stderr, redf("Metrics server returned with error: %v", err))
		}
	}()
	return srv
}

// driver is the tick loop of the run command.
type driver struct {
	h     *host.Host
	out   io.Writer
	conn  starkbridge.ConnectionConfig
	calls []starkbridge.Call

	connectRequested bool
	executed         bool
}

// tick advances the driver by one frame. It returns true when there is
// nothing left to do.
func (d *driver) tick() (bool, error) {
	if !d.connectRequested {
		d.connectRequested = true
		if apiErr := d.h.Connect(d.conn); apiErr != nil {
			return true, apiErr
		}
		fmt.Fprintln(d.out, "connection:", phaseString(d.h.State().Phase))
	}

	for _, delta := range d.h.Poll() {
		fmt.Fprintln(d.out, deltaString(delta))
	}

	state := d.h.State()
	switch state.Phase {
	case starkbridge.Failed:
		return true, state.Err
	case starkbridge.Connected:
		if !d.executed {
			d.executed = true
			if len(d.calls) != 0 {
				id, apiErr := d.h.Execute(d.calls)
				if apiErr != nil {
					return true, apiErr
				}
				fmt.Fprintf(d.out, "%s: %s with %d call(s)\n", id, statusString(starkbridge.Submitted), len(d.calls))
			}
		}
		return d.h.PendingCount() == 0, nil
	default:
		return false, nil
	}
}

func (d *driver) run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		done, err := d.tick()
		if done || err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "tick loop interrupted")
		case <-ticker.C:
		}
	}
}
