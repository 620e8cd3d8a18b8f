// Copyright (c) 2024 John Millikin <john@john-millikin.com>
//
// Permission to use, copy, modify, and/or distribute this software for any
// purpose with or without fee is hereby granted.
//
// THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH
// REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY
// AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT,
// INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM
// LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR
// OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR
// PERFORMANCE OF THIS SOFTWARE.
//
// SPDX-License-Identifier: 0BSD

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type command interface {
	help() *commandHelp
	flags(flags *pflag.FlagSet)
	run(ctx context.Context, argv []string) int
}

type commandHelp struct {
	usage   string
	summary string
}

// app holds the state shared by every command: standard streams,
// configuration and the logger built from it.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	configPath string
	logLevel   string

	config *viper.Viper
	log    *zap.Logger
}

func main() {
	a := &app{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	os.Exit(a.execute(context.Background(), os.Args[1:]))
}

func (a *app) execute(ctx context.Context, args []string) int {
	exitCode := 0

	rootCmd := &cobra.Command{
		Use:           "omgidl [options] COMMAND",
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		fmt.Fprint(a.stderr, rootCmd.UsageString())
		exitCode = 1
		return nil
	}
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return a.configure(rootCmd.PersistentFlags())
	}
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (default ./omgidl.yaml if present)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	commands := []command{
		&cmdResolve{app: a},
		&cmdDecode{app: a},
		&cmdEncode{app: a},
		&cmdSize{app: a},
	}
	for _, cmd := range commands {
		help := cmd.help()
		cobraCmd := &cobra.Command{
			Use:   help.usage,
			Short: help.summary,
			RunE: func(_ *cobra.Command, args []string) error {
				exitCode = cmd.run(ctx, args)
				return nil
			},
		}
		rootCmd.AddCommand(cobraCmd)
		cmd.flags(cobraCmd.Flags())
	}

	rootCmd.SetArgs(args)
	rootCmd.SetOut(a.stdout)
	rootCmd.SetErr(a.stderr)
	if _, err := rootCmd.ExecuteC(); err != nil {
		fmt.Fprintln(a.stderr, err)
		return 1
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
	return exitCode
}

// configure reads the config file and environment, then builds the logger.
// Settings resolve in the order flag, OMGIDL_* environment variable,
// config file, default.
func (a *app) configure(flags *pflag.FlagSet) error {
	v := viper.New()
	v.SetDefault("format", "json")
	v.SetDefault("encapsulation", "CDR_LE")
	v.SetDefault("log_level", "warn")
	v.SetEnvPrefix("OMGIDL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlag("log_level", flags.Lookup("log-level")); err != nil {
		return err
	}

	if a.configPath != "" {
		v.SetConfigFile(a.configPath)
	} else {
		v.SetConfigName("omgidl")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if a.configPath != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}
	a.config = v

	log, err := newLogger(a.stderr, v.GetString("log_level"))
	if err != nil {
		return err
	}
	a.log = log
	if used := v.ConfigFileUsed(); used != "" {
		log.Debug("using config file", zap.String("path", used))
	}
	return nil
}

// setting returns a command flag value if it was given, else the
// configured value for key.
func (a *app) setting(flagValue, key string) string {
	if flagValue != "" {
		return flagValue
	}
	return a.config.GetString(key)
}

func newLogger(w io.Writer, level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.TimeKey = ""
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(w),
		lvl,
	)
	return zap.New(core), nil
}
