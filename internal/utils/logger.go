package utils

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

var (
	loggerMu sync.RWMutex
	logger   = zerolog.New(os.Stderr).With().Timestamp().Logger()
)

// InitLogger configures the global logger. When file is non-empty, output is
// rotated with lumberjack; otherwise it goes to stderr.
func InitLogger(file string, maxSizeMB, maxBackups, maxAgeDays int, compress bool, level string) {
	var out io.Writer = os.Stderr
	if file != "" {
		out = &lumberjack.Logger{
			Filename:   file,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			MaxAge:     maxAgeDays,
			Compress:   compress,
		}
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	loggerMu.Lock()
	logger = zerolog.New(out).With().Timestamp().Logger().Level(lvl)
	loggerMu.Unlock()
}

// SetLogLevel adjusts the level of the active logger at runtime.
func SetLogLevel(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return
	}
	loggerMu.Lock()
	logger = logger.Level(lvl)
	loggerMu.Unlock()
}

// SetLoggerForTest replaces the global logger (workaround because `logger` is
// unexported).
func SetLoggerForTest(l zerolog.Logger) {
	loggerMu.Lock()
	logger = l
	loggerMu.Unlock()
}

func getLogger() zerolog.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

// kvFields turns a variadic key/value list into a map for zerolog. A trailing
// key without a value is logged under that key as "(MISSING)".
func kvFields(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i < len(keysAndValues); i += 2 {
		key := fmt.Sprint(keysAndValues[i])
		if i+1 < len(keysAndValues) {
			fields[key] = keysAndValues[i+1]
		} else {
			fields[key] = "(MISSING)"
		}
	}
	return fields
}

// Debug logs at debug level with structured key/value pairs.
func Debug(msg string, keysAndValues ...interface{}) {
	l := getLogger()
	l.Debug().Fields(kvFields(keysAndValues)).Msg(msg)
}

// Info logs at info level with structured key/value pairs.
func Info(msg string, keysAndValues ...interface{}) {
	l := getLogger()
	l.Info().Fields(kvFields(keysAndValues)).Msg(msg)
}

// Warn logs at warn level with structured key/value pairs.
func Warn(msg string, keysAndValues ...interface{}) {
	l := getLogger()
	l.Warn().Fields(kvFields(keysAndValues)).Msg(msg)
}

// Error logs at error level with structured key/value pairs.
func Error(msg string, keysAndValues ...interface{}) {
	l := getLogger()
	l.Error().Fields(kvFields(keysAndValues)).Msg(msg)
}
