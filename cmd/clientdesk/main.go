// Copyright (c) 2026, the clientdesk contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/clientdesk/clientdesk/internal/buildinfo"
	"github.com/clientdesk/clientdesk/internal/domain"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "clientdesk",
		Short: "Client, subscription and license administration",
		Run: func(cmd *cobra.Command, args []string) {
			// Default to serve for bare invocations.
			serveCmd := RunServeCommand()
			serveCmd.SetArgs(args)
			if err := serveCmd.Execute(); err != nil {
				log.Fatal().Err(err).Msg("Failed to start server")
			}
		},
	}

	rootCmd.AddCommand(RunServeCommand())
	rootCmd.AddCommand(RunVersionCommand())
	rootCmd.AddCommand(RunCreateUserCommand())
	rootCmd.AddCommand(RunChangePasswordCommand())
	rootCmd.AddCommand(RunSweepCommand())
	rootCmd.AddCommand(RunDBCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func RunVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Print(buildinfo.String())
		},
	}
}

// setupLogger configures the global zerolog output: console when logging to
// stdout, lumberjack rotation when a log path is set.
func setupLogger(cfg *domain.Config) {
	zerolog.TimeFieldFormat = time.RFC3339

	var writers []io.Writer
	writers = append(writers, zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "2006-01-02 15:04:05",
	})

	if cfg.LogPath != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.LogPath,
			MaxSize:    cfg.LogMaxSize,
			MaxBackups: cfg.LogMaxBackups,
			Compress:   true,
		})
	}

	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()

	switch strings.ToUpper(cfg.LogLevel) {
	case "TRACE":
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	case "DEBUG":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "WARN":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "ERROR":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
