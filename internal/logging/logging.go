/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls where process logs go.
type Options struct {
	Environment string
	// File, when set, receives JSON logs rotated by size.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Setup configures zerolog for the process.
func Setup(environment string) zerolog.Logger {
	return SetupWithWriter(environment, nil)
}

// SetupWithWriter configures zerolog with an additional JSON writer.
func SetupWithWriter(environment string, additionalWriter io.Writer) zerolog.Logger {
	logger := New(os.Stdout, environment, additionalWriter)
	log.Logger = logger
	return logger
}

// SetupWithOptions configures console output plus an optional rotating log
// file. The returned closer flushes the file and is never nil.
func SetupWithOptions(opts Options) (zerolog.Logger, io.Closer) {
	if opts.File == "" {
		return SetupWithWriter(opts.Environment, nil), nopCloser{}
	}

	rotator := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   true,
	}
	return SetupWithWriter(opts.Environment, rotator), rotator
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New builds a logger writing human-readable lines to console. Additional
// writers receive the raw JSON events.
func New(console io.Writer, environment string, additional io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level := zerolog.InfoLevel
	if environment == "development" {
		level = zerolog.DebugLevel
	}

	var writer io.Writer = zerolog.ConsoleWriter{Out: console}
	if additional != nil {
		writer = zerolog.MultiLevelWriter(writer, additional)
	}

	return zerolog.New(writer).With().Timestamp().Logger().Level(level)
}
