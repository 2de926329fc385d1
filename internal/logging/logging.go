// Package logging builds the zap loggers used by the CLI.
package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a console logger on stderr. Only warnings and errors are shown
// unless verbose is set, which enables debug output.
func New(verbose bool) *zap.Logger {
	return NewWithWriter(os.Stderr, verbose)
}

// NewWithWriter is New with a custom destination.
func NewWithWriter(w io.Writer, verbose bool) *zap.Logger {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = ""
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder

	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.AddSync(w), zap.NewAtomicLevelAt(level))
	return zap.New(core)
}

// Nop returns a logger that discards everything.
func Nop() *zap.Logger { return zap.NewNop() }
