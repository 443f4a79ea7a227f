// Package logger provides the global structured logger for repodata.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Logger is the global logger instance
	Logger *zap.SugaredLogger
	// JSONOutput tracks whether JSON output is enabled
	JSONOutput bool
)

func init() {
	// Initialize with a safe no-op logger at package load time.
	// This prevents nil pointer panics if the logger is used before
	// Initialize() is called.
	Logger = zap.NewNop().Sugar()
}

// Initialize sets up the global logger based on the JSON output preference
func Initialize(jsonOutput bool) error {
	return InitializeWithLevel(jsonOutput, zap.InfoLevel)
}

// InitializeWithLevel sets up the global logger with an explicit minimum level
func InitializeWithLevel(jsonOutput bool, level zapcore.Level) error {
	JSONOutput = jsonOutput

	var zapLogger *zap.Logger
	var err error

	if jsonOutput {
		// JSON structured output for machine consumption
		config := zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(level)
		zapLogger, err = config.Build()
		if err != nil {
			return err
		}
	} else {
		// Human-readable console output
		encoderConfig := zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapLogger = zap.New(
			zapcore.NewCore(
				zapcore.NewConsoleEncoder(encoderConfig),
				zapcore.AddSync(os.Stdout),
				level,
			),
		)
	}

	Logger = zapLogger.Sugar()
	return nil
}

// VerbosityToLevel maps CLI verbosity flags (-v, -vv, ...) to zap log levels.
//
//	0 (none) -> InfoLevel
//	1 (-v)   -> DebugLevel
func VerbosityToLevel(verbosity int) zapcore.Level {
	if verbosity >= 1 {
		return zapcore.DebugLevel
	}
	return zapcore.InfoLevel
}

// Named returns a child of the global logger tagged with a component name
func Named(component string) *zap.SugaredLogger {
	return Logger.Named(component)
}
