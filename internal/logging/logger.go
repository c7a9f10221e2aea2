// Package logging builds the zap logger shared by all commands.
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

// AppName is used as the root logger name.
const AppName = "chapterdesk"

// Levels accepted by New.
const (
	LevelNone   = "none"
	LevelDebug  = "debug"
	LevelNormal = "normal"
	LevelWarn   = "warn"
)

// New returns a console logger: messages below error go to stdout, errors
// and above go to stderr.
func New(level string) (*zap.Logger, error) {
	return NewWithWriters(level, os.Stdout, os.Stderr)
}

// NewWithWriters is New with explicit destinations.
func NewWithWriters(level string, stdout, stderr io.Writer) (*zap.Logger, error) {
	var minLevel zapcore.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case LevelNone:
		return zap.NewNop(), nil
	case LevelDebug:
		minLevel = zapcore.DebugLevel
	case LevelNormal, "info", "":
		minLevel = zapcore.InfoLevel
	case LevelWarn:
		minLevel = zapcore.WarnLevel
	default:
		return nil, fmt.Errorf("unknown log level %q", level)
	}

	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeCaller = nil
	ec.EncodeLevel = zapcore.CapitalLevelEncoder

	lowPriority := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return minLevel <= lvl && lvl < zapcore.ErrorLevel
	})
	highPriority := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= zapcore.ErrorLevel && lvl >= minLevel
	})

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewConsoleEncoder(ec), zapcore.AddSync(stdout), lowPriority),
		zapcore.NewCore(consoleEnc{zapcore.NewConsoleEncoder(ec)}, zapcore.AddSync(stderr), highPriority),
	)
	return zap.New(core).Named(AppName), nil
}

// consoleEnc prints errors by message only, dropping the verbose form
// some wrapped errors carry.
type consoleEnc struct {
	zapcore.Encoder
}

func (c consoleEnc) Clone() zapcore.Encoder {
	return consoleEnc{c.Encoder.Clone()}
}

func (c consoleEnc) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	out := make([]zapcore.Field, 0, len(fields))
	for _, f := range fields {
		if f.Type == zapcore.ErrorType {
			if e, ok := f.Interface.(error); ok {
				f.Interface = errors.New(e.Error())
			}
		}
		out = append(out, f)
	}
	return c.Encoder.EncodeEntry(ent, out)
}
