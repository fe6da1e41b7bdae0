// Package logging builds the process logger: every invocation appends to
// the log file, interactive invocations also report to stderr.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Mode distinguishes interactive commands from unattended ones
type Mode string

const (
	ModeInteractive Mode = "interactive"
	ModeSilent      Mode = "silent"
)

// Options configures New
type Options struct {
	File string
	Mode Mode
	// ConsoleLevel is the stderr threshold for interactive runs
	ConsoleLevel zapcore.Level
}

// New creates the tee logger and a function flushing and closing it
func New(opts Options) (*zap.Logger, func(), error) {
	if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(opts.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(f), zapcore.DebugLevel),
	}
	if opts.Mode == ModeInteractive {
		consoleCfg := encCfg
		consoleCfg.TimeKey = ""
		consoleCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(consoleCfg),
			zapcore.Lock(os.Stderr),
			opts.ConsoleLevel,
		))
	}

	logger := zap.New(zapcore.NewTee(cores...)).With(
		zap.String("run", uuid.NewString()),
		zap.String("mode", string(opts.Mode)),
	)
	closeFn := func() {
		_ = logger.Sync()
		_ = f.Close()
	}
	return logger, closeFn, nil
}
