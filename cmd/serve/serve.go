// Package serve is a subcommand of the root command. It exports the clock as
// Prometheus metrics.
package serve

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"rawtime/internal/common"

	"github.com/spf13/cobra"
)

const cmdName = "serve"

var examples = []string{
	fmt.Sprintf("  Export metrics on the default port:     $ %s %s", common.AppName, cmdName),
	fmt.Sprintf("  Export metrics on localhost only:       $ %s %s --listen 127.0.0.1:9101", common.AppName, cmdName),
}

var Cmd = &cobra.Command{
	Use:           cmdName,
	Short:         "Export the clock as Prometheus metrics",
	Long:          "",
	Example:       strings.Join(examples, "\n"),
	RunE:          runCmd,
	PreRunE:       validateFlags,
	GroupID:       "primary",
	Args:          cobra.NoArgs,
	SilenceErrors: true,
}

var flagListen string

const flagListenName = "listen"

func init() {
	Cmd.Flags().StringVar(&flagListen, flagListenName, ":9101", "")
	Cmd.SetUsageFunc(common.UsageFunc(getFlagGroups))
}

func getFlagGroups() []common.FlagGroup {
	return []common.FlagGroup{
		{
			GroupName: "Options",
			Flags: []common.Flag{
				{
					Name: flagListenName,
					Help: "address the metrics endpoint listens on, host:port",
				},
			},
		},
	}
}

func validateFlags(cmd *cobra.Command, args []string) error {
	if _, _, err := net.SplitHostPort(flagListen); err != nil {
		err = fmt.Errorf("invalid listen address %q: %w", flagListen, err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

func runCmd(cmd *cobra.Command, args []string) error {
	appContext, err := common.GetAppContext(cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	res, err := common.Resolve(appContext.Clock)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		slog.Error("failed to resolve counter frequency", slog.String("error", err.Error()))
		return err
	}
	registry, err := newRegistry(appContext.Clock, res)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to register metrics: %v\n", err)
		slog.Error("failed to register metrics", slog.String("error", err.Error()))
		return err
	}
	listener, err := net.Listen("tcp", flagListen)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		slog.Error("failed to listen", slog.String("address", flagListen), slog.String("error", err.Error()))
		return err
	}
	// serve until interrupted
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	fmt.Fprintf(os.Stderr, "Serving metrics at http://%s/metrics, press Ctrl+C to stop\n", listener.Addr())
	if err := startPrometheusServer(ctx, listener, registry); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		slog.Error("Prometheus HTTP server error", slog.String("error", err.Error()))
		return err
	}
	return nil
}
