// Package cmd provides the command line interface for the application.
package cmd

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"rawtime/cmd/freq"
	"rawtime/cmd/now"
	"rawtime/cmd/serve"
	"rawtime/internal/common"
	"rawtime/internal/config"
	"rawtime/internal/util"

	"github.com/spf13/cobra"
)

var gLogFile *os.File
var gCloseCalendar func() error
var gVersion = "9.9.9" // overwritten by ldflags in Makefile

const (
	// LongAppName is the name of the application
	LongAppName = "RawTime"
)

var examples = []string{
	fmt.Sprintf("  Report the counter frequency and how it was found:   $ %s freq", common.AppName),
	fmt.Sprintf("  Sample the precise time ten times:                   $ %s now --samples 10", common.AppName),
	fmt.Sprintf("  Skip calibration and use the host clock:             $ %s freq --calendar host --no-calibration", common.AppName),
	fmt.Sprintf("  Export clock metrics to Prometheus:                  $ %s serve --listen :9101", common.AppName),
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:                common.AppName,
	Short:              common.AppName,
	Long:               fmt.Sprintf(`%s (%s) resolves the time stamp counter frequency once and turns counter readings into monotonic nanoseconds.`, LongAppName, common.AppName),
	Example:            strings.Join(examples, "\n"),
	PersistentPreRunE:  initializeApplication, // will only be run if command has a 'Run' function
	PersistentPostRunE: terminateApplication,  // ...
	Version:            gVersion,
	SilenceUsage:       true,
}

var (
	// logging
	flagDebug     bool
	flagSyslog    bool
	flagLogStdOut bool
	// clock
	flagConfigFile     string
	flagCalendar       string
	flagRTCDevice      string
	flagNoCalibration  bool
	flagFallbackMHz    uint64
	flagDisableSources []string
)

const (
	flagDebugName          = "debug"
	flagSyslogName         = "syslog"
	flagLogStdOutName      = "log-stdout"
	flagConfigFileName     = "config"
	flagCalendarName       = "calendar"
	flagRTCDeviceName      = "rtc-device"
	flagNoCalibrationName  = "no-calibration"
	flagFallbackMHzName    = "fallback-mhz"
	flagDisableSourcesName = "disable-source"
)

func init() {
	rootCmd.SetUsageTemplate(`Usage:{{if .Runnable}}
  {{.UseLine}}{{end}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command] [flags]{{end}}{{if gt (len .Aliases) 0}}

Aliases:
  {{.NameAndAliases}}{{end}}{{if .HasExample}}

Examples:
{{.Example}}{{end}}

Use "{{.CommandPath}} [command] --help" for more information about a command.{{if .HasAvailableSubCommands}}{{$cmds := .Commands}}{{if eq (len .Groups) 0}}

Available Commands:{{range $cmds}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{else}}{{range $group := .Groups}}

{{.Title}}{{range $cmds}}{{if (and (eq .GroupID $group.ID) (or .IsAvailableCommand (eq .Name "help")))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{end}}{{end}}{{end}}{{if .HasAvailableLocalFlags}}

Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableInheritedFlags}}

Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasHelpSubCommands}}

Additional help topics:{{range .Commands}}{{if .IsAdditionalHelpTopicCommand}}
  {{rpad .CommandPath .CommandPathPadding}} {{.Short}}{{end}}{{end}}{{end}}
`)
	rootCmd.SetHelpCommand(&cobra.Command{}) // block the help command
	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	rootCmd.AddGroup([]*cobra.Group{{ID: "primary", Title: "Commands:"}}...)
	rootCmd.AddCommand(freq.Cmd)
	rootCmd.AddCommand(now.Cmd)
	rootCmd.AddCommand(serve.Cmd)
	// Global (persistent) flags
	defaults := config.Default()
	rootCmd.PersistentFlags().BoolVar(&flagDebug, flagDebugName, false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagSyslog, flagSyslogName, false, "write logs to syslog instead of a file")
	rootCmd.PersistentFlags().BoolVar(&flagLogStdOut, flagLogStdOutName, false, "write logs to stdout")
	rootCmd.PersistentFlags().StringVar(&flagConfigFile, flagConfigFileName, "", "read settings from a YAML configuration file, flags take precedence")
	rootCmd.PersistentFlags().StringVar(&flagCalendar, flagCalendarName, defaults.Calendar, fmt.Sprintf("calendar clock, one of: %s", strings.Join(config.CalendarOptions, ", ")))
	rootCmd.PersistentFlags().StringVar(&flagRTCDevice, flagRTCDeviceName, defaults.RTCDevice, "real time clock device read by the rtc calendar")
	rootCmd.PersistentFlags().BoolVar(&flagNoCalibration, flagNoCalibrationName, false, "never calibrate the counter against the calendar clock")
	rootCmd.PersistentFlags().Uint64Var(&flagFallbackMHz, flagFallbackMHzName, defaults.FallbackMHz, "frequency assumed when no source reports one")
	rootCmd.PersistentFlags().StringSliceVar(&flagDisableSources, flagDisableSourcesName, nil, "skip a frequency source, may be repeated")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.EnableCommandSorting = false
	cobra.EnableCaseInsensitive = true
	err := rootCmd.Execute()
	if err != nil {
		terminateErr := terminateApplication(rootCmd, os.Args)
		if terminateErr != nil {
			slog.Error("Error terminating application", slog.String("error", terminateErr.Error()))
			fmt.Printf("Error: %v\n", terminateErr)
		}
		os.Exit(1)
	}
}

func initializeApplication(cmd *cobra.Command, args []string) error {
	// configure logging
	var logOpts slog.HandlerOptions
	if flagDebug {
		logOpts.Level = slog.LevelDebug
		logOpts.AddSource = true
	} else {
		logOpts.Level = slog.LevelInfo
		logOpts.AddSource = false
	}
	if flagSyslog && flagLogStdOut {
		fmt.Println("Error: both syslog handler and stdout output specified. Please pick one only.")
		os.Exit(1)
	} else if flagSyslog { // log to syslog
		handler, err := NewSyslogHandler(&logOpts)
		if err != nil {
			fmt.Printf("Error: failed to create syslog handler: %v\n", err)
			os.Exit(1)
		}
		slog.SetDefault(slog.New(handler))
	} else if flagLogStdOut {
		handler := slog.NewJSONHandler(os.Stdout, &logOpts)
		slog.SetDefault(slog.New(handler))
	} else { // log to file
		// open log file in current directory
		var err error
		gLogFile, err = os.OpenFile(common.AppName+".log", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644) // #nosec G302
		if err != nil {
			fmt.Printf("Error: failed to open log file: %v\n", err)
			os.Exit(1)
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(gLogFile, &logOpts)))
	}
	slog.Info("Starting up", slog.String("app", common.AppName), slog.String("version", gVersion), slog.Int("PID", os.Getpid()), slog.String("arguments", strings.Join(os.Args, " ")))
	cfg, err := loadConfig(cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		slog.Error(err.Error())
		return err
	}
	slog.Debug("effective configuration", slog.String("calendar", cfg.Calendar), slog.String("rtcDevice", cfg.RTCDevice), slog.Bool("calibration", cfg.Calibration), slog.Uint64("fallbackMHz", cfg.FallbackMHz), slog.String("disabledSources", strings.Join(cfg.DisabledSources, ",")))
	clock, closeCalendar, err := cfg.NewClock()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		slog.Error(err.Error())
		return err
	}
	gCloseCalendar = closeCalendar
	var logFilePath string
	if gLogFile != nil {
		logFilePath = gLogFile.Name()
	}
	// set app context
	cmd.Root().SetContext(
		common.WithAppContext(
			context.Background(),
			common.AppContext{
				LogFilePath: logFilePath,
				Version:     gVersion,
				Debug:       flagDebug,
				Config:      cfg,
				Clock:       clock,
			},
		),
	)
	return nil
}

// loadConfig reads the configuration file, if one was given, and applies the
// flags the user set on top of it
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if flagConfigFile != "" {
		path, err := util.AbsPath(flagConfigFile)
		if err != nil {
			return cfg, fmt.Errorf("failed to expand config file path: %w", err)
		}
		exists, err := util.FileExists(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to determine if config file exists: %w", err)
		}
		if !exists {
			return cfg, fmt.Errorf("config file %s does not exist", path)
		}
		cfg, err = config.Load(path)
		if err != nil {
			return cfg, err
		}
		slog.Info("loaded configuration file", slog.String("path", path))
	}
	return applyFlags(cmd, cfg)
}

func applyFlags(cmd *cobra.Command, cfg config.Config) (config.Config, error) {
	flags := cmd.Flags()
	if flags.Changed(flagCalendarName) {
		cfg.Calendar = flagCalendar
	}
	if flags.Changed(flagRTCDeviceName) {
		cfg.RTCDevice = flagRTCDevice
	}
	if flags.Changed(flagNoCalibrationName) {
		cfg.Calibration = !flagNoCalibration
	}
	if flags.Changed(flagFallbackMHzName) {
		cfg.FallbackMHz = flagFallbackMHz
	}
	if flags.Changed(flagDisableSourcesName) {
		cfg.DisabledSources = flagDisableSources
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// terminateApplication releases the calendar device and closes the log file
func terminateApplication(cmd *cobra.Command, args []string) error {
	if gCloseCalendar != nil {
		err := gCloseCalendar()
		gCloseCalendar = nil
		if err != nil {
			slog.Error("error closing calendar", slog.String("error", err.Error()))
		}
	}
	if gLogFile == nil {
		return nil
	}
	slog.Info("Shutting down", slog.String("app", common.AppName), slog.String("version", gVersion), slog.Int("PID", os.Getpid()), slog.String("arguments", strings.Join(os.Args, " ")))
	err := gLogFile.Close()
	if err != nil {
		slog.Error("error closing log file", slog.String("logFile", gLogFile.Name()), slog.String("error", err.Error()))
		return err
	}
	gLogFile = nil
	return nil
}
