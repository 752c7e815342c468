package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level string // debug, info, warn, error
	// OutputPath is stdout, stderr or a file path. A comma-separated list
	// writes to every destination.
	OutputPath string
	Format     string // json or console
	// Service is attached to every entry when set
	Service string
}

// NewLogger creates a structured logger. Unknown levels fall back to info.
func NewLogger(cfg LoggerConfig) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			level = zapcore.InfoLevel
		}
	}

	outputs := splitOutputs(cfg.OutputPath)
	cores := make([]zapcore.Core, 0, len(outputs))
	for _, out := range outputs {
		sink, terminal, err := openSink(out)
		if err != nil {
			return nil, err
		}
		cores = append(cores, zapcore.NewCore(newEncoder(cfg.Format, terminal), sink, level))
	}

	opts := []zap.Option{zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)}
	if cfg.Service != "" {
		opts = append(opts, zap.Fields(zap.String("service", cfg.Service)))
	}
	return zap.New(zapcore.NewTee(cores...), opts...), nil
}

// NewCLILogger writes console-format logs to stderr so command output on
// stdout stays clean
func NewCLILogger(verbose bool) (*zap.Logger, error) {
	level := "warn"
	if verbose {
		level = "debug"
	}
	return NewLogger(LoggerConfig{
		Level:      level,
		OutputPath: "stderr",
		Format:     "console",
	})
}

func splitOutputs(path string) []string {
	var outputs []string
	for _, p := range strings.Split(path, ",") {
		if p = strings.TrimSpace(p); p != "" {
			outputs = append(outputs, p)
		}
	}
	if len(outputs) == 0 {
		return []string{"stdout"}
	}
	return outputs
}

// openSink returns the writer for one destination and whether it is a
// terminal stream
func openSink(path string) (zapcore.WriteSyncer, bool, error) {
	switch path {
	case "stdout":
		return zapcore.Lock(os.Stdout), true, nil
	case "stderr":
		return zapcore.Lock(os.Stderr), true, nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, false, fmt.Errorf("create log directory: %w", err)
		}
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, false, fmt.Errorf("open log file: %w", err)
	}
	return zapcore.AddSync(file), false, nil
}

func newEncoder(format string, terminal bool) zapcore.Encoder {
	if format == "json" {
		ec := zap.NewProductionEncoderConfig()
		ec.TimeKey = "timestamp"
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		return zapcore.NewJSONEncoder(ec)
	}

	ec := zap.NewDevelopmentEncoderConfig()
	ec.TimeKey = "timestamp"
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	// no escape codes in log files
	if terminal {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	return zapcore.NewConsoleEncoder(ec)
}
