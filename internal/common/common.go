// Package common defines data structures and functions that are used by multiple
// application commands, e.g., freq, now, serve.
package common

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"rawtime/internal/config"
	"rawtime/internal/progress"
	"rawtime/internal/report"
	"rawtime/internal/tsc"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var AppName = filepath.Base(os.Args[0])

// AppContext represents the application context that can be accessed from all commands.
type AppContext struct {
	LogFilePath string        // LogFilePath is the path to the log file, empty when not logging to a file.
	Version     string        // Version is the version of the application.
	Debug       bool          // Debug is set when debug logging is enabled.
	Config      config.Config // Config is the effective configuration after flags are applied.
	Clock       *tsc.Clock    // Clock is the process time context, shared by all commands.
}

type appContextKey struct{}

// WithAppContext returns a copy of ctx carrying appContext
func WithAppContext(ctx context.Context, appContext AppContext) context.Context {
	return context.WithValue(ctx, appContextKey{}, appContext)
}

// GetAppContext returns the context set up by the root command
func GetAppContext(cmd *cobra.Command) (AppContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return AppContext{}, errors.New("application context not initialized")
	}
	appContext, ok := ctx.Value(appContextKey{}).(AppContext)
	if !ok || appContext.Clock == nil {
		return AppContext{}, errors.New("application context not initialized")
	}
	return appContext, nil
}

type Flag struct {
	Name string
	Help string
}
type FlagGroup struct {
	GroupName string
	Flags     []Flag
}

const FlagFormatName = "format"

// AddFormatFlag adds the output format flag to cmd
func AddFormatFlag(cmd *cobra.Command, format *string) {
	cmd.Flags().StringVar(format, FlagFormatName, report.FormatTxt, "")
}

func FormatFlag() Flag {
	return Flag{
		Name: FlagFormatName,
		Help: fmt.Sprintf("choose output format from: %s", strings.Join(report.FormatOptions, ", ")),
	}
}

// ValidateFormat checks the output format flag value
func ValidateFormat(format string) error {
	if !slices.Contains(report.FormatOptions, format) {
		return fmt.Errorf("format options are: %s", strings.Join(report.FormatOptions, ", "))
	}
	return nil
}

// UsageFunc returns a usage function that prints the command's flags in groups
func UsageFunc(getFlagGroups func() []FlagGroup) func(cmd *cobra.Command) error {
	return func(cmd *cobra.Command) error {
		cmd.Printf("Usage: %s [flags]\n\n", cmd.CommandPath())
		if cmd.Example != "" {
			cmd.Printf("Examples:\n%s\n\n", cmd.Example)
		}
		cmd.Println("Flags:")
		for _, group := range getFlagGroups() {
			cmd.Printf("  %s:\n", group.GroupName)
			for _, flag := range group.Flags {
				flagDefault := ""
				if cmd.Flags().Lookup(flag.Name).DefValue != "" {
					flagDefault = fmt.Sprintf(" (default: %s)", cmd.Flags().Lookup(flag.Name).DefValue)
				}
				cmd.Printf("    --%-20s %s%s\n", flag.Name, flag.Help, flagDefault)
			}
		}
		cmd.Println("\nGlobal Flags:")
		cmd.Root().PersistentFlags().VisitAll(func(pf *pflag.Flag) {
			flagDefault := ""
			if pf.DefValue != "" && pf.DefValue != "[]" {
				flagDefault = fmt.Sprintf(" (default: %s)", pf.DefValue)
			}
			cmd.Printf("  --%-20s %s%s\n", pf.Name, pf.Usage, flagDefault)
		})
		return nil
	}
}

// Resolve resolves the clock's frequency with a spinner on the terminal.
// Calibration can block for up to two seconds. The hardware conditions that
// make resolution impossible are returned as errors.
func Resolve(clock *tsc.Clock) (res tsc.Resolution, err error) {
	spinner := progress.NewSpinner("counter frequency")
	spinner.Start()
	defer func() {
		if r := recover(); r != nil {
			perr, ok := r.(error)
			if !ok || !(errors.Is(perr, tsc.ErrCounterUnavailable) || errors.Is(perr, tsc.ErrCounterNotInvariant)) {
				spinner.Finish()
				panic(r)
			}
			spinner.Status("failed")
			err = perr
		} else {
			spinner.Status(res.Frequency.String())
		}
		spinner.Finish()
	}()
	spinner.Status("resolving")
	res = clock.Resolution()
	return
}
