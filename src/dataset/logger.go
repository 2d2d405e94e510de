package dataset

import (
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	sugar    = newLogger().Sugar()
)

func newLogger() *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = logLevel
	cfg.DisableStacktrace = true
	cfg.DisableCaller = true
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	lg, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return lg
}

// SetLogLevel parses and sets the global log level. Unknown names are ignored.
func SetLogLevel(s string) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		logLevel.SetLevel(zapcore.DebugLevel)
	case "info":
		logLevel.SetLevel(zapcore.InfoLevel)
	case "warn", "warning":
		logLevel.SetLevel(zapcore.WarnLevel)
	case "error":
		logLevel.SetLevel(zapcore.ErrorLevel)
	}
}

// DebugEnabled reports whether debug logging is active, for callers that
// guard expensive formatting.
func DebugEnabled() bool { return logLevel.Enabled(zapcore.DebugLevel) }

// Public helpers
func Debugf(format string, a ...interface{}) { sugar.Debugf(format, a...) }
func Infof(format string, a ...interface{})  { sugar.Infof(format, a...) }
func Warnf(format string, a ...interface{})  { sugar.Warnf(format, a...) }
func Errorf(format string, a ...interface{}) { sugar.Errorf(format, a...) }

// TimeTrack logs a phase duration at debug level; call as
// defer TimeTrack(time.Now(), "load").
func TimeTrack(start time.Time, label string) {
	Debugf("%s took %s", label, time.Since(start))
}
