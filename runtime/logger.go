package runtime

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
)

type LogLevel int32

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
	LogLevelOff
)

func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	case LogLevelOff:
		return "OFF"
	default:
		return "UNKNOWN"
	}
}

// ParseLogLevel accepts the names printed by String, case-insensitively.
func ParseLogLevel(s string) (LogLevel, error) {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return LogLevelDebug, nil
	case "INFO":
		return LogLevelInfo, nil
	case "WARN", "WARNING":
		return LogLevelWarn, nil
	case "ERROR":
		return LogLevelError, nil
	case "OFF", "NONE":
		return LogLevelOff, nil
	default:
		return LogLevelInfo, fmt.Errorf("unknown log level: %s", s)
	}
}

// Logger writes leveled messages tagged with a scope. Scopes nest: a sweep
// hands each point a child scoped to it and every run appends its run id,
// so interleaved output from parallel runs stays attributable.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)

	// Enabled lets hot paths skip formatting arguments nobody will read.
	Enabled(level LogLevel) bool
	// With returns a child logger whose scope is this scope plus name.
	// Children share the parent's output and level.
	With(name string) Logger

	Scope() string
	SetLevel(level LogLevel)
	GetLevel() LogLevel
}

type DefaultLogger struct {
	level  *atomic.Int32
	logger *log.Logger
	scope  string
}

func NewLogger(output io.Writer, level LogLevel) *DefaultLogger {
	l := &DefaultLogger{
		level:  new(atomic.Int32),
		logger: log.New(output, "", log.LstdFlags),
	}
	l.level.Store(int32(level))
	return l
}

func (l *DefaultLogger) With(name string) Logger {
	scope := name
	if l.scope != "" {
		scope = l.scope + "/" + name
	}
	return &DefaultLogger{level: l.level, logger: l.logger, scope: scope}
}

func (l *DefaultLogger) Scope() string {
	return l.scope
}

func (l *DefaultLogger) SetLevel(level LogLevel) {
	l.level.Store(int32(level))
}

func (l *DefaultLogger) GetLevel() LogLevel {
	return LogLevel(l.level.Load())
}

func (l *DefaultLogger) Enabled(level LogLevel) bool {
	return level < LogLevelOff && level >= l.GetLevel()
}

func (l *DefaultLogger) log(level LogLevel, format string, args ...any) {
	if !l.Enabled(level) {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if l.scope == "" {
		l.logger.Printf("[%s] %s", level, msg)
		return
	}
	l.logger.Printf("[%s] [%s] %s", level, l.scope, msg)
}

func (l *DefaultLogger) Debug(format string, args ...any) {
	l.log(LogLevelDebug, format, args...)
}

func (l *DefaultLogger) Info(format string, args ...any) {
	l.log(LogLevelInfo, format, args...)
}

func (l *DefaultLogger) Warn(format string, args ...any) {
	l.log(LogLevelWarn, format, args...)
}

func (l *DefaultLogger) Error(format string, args ...any) {
	l.log(LogLevelError, format, args...)
}

var globalLogger Logger = NewLogger(os.Stderr, LogLevelInfo)

// Default is the process-wide root logger. Simulations and sweeps that are
// not given a logger derive theirs from it when they are created.
func Default() Logger {
	return globalLogger
}

func SetLogLevel(level LogLevel) {
	globalLogger.SetLevel(level)
}

func GetLogLevel() LogLevel {
	return globalLogger.GetLevel()
}

func init() {
	if levelStr := os.Getenv("QSIM_LOG_LEVEL"); levelStr != "" {
		if level, err := ParseLogLevel(levelStr); err == nil {
			SetLogLevel(level)
		}
	}

	// keep go test output readable
	if strings.HasSuffix(os.Args[0], ".test") {
		SetLogLevel(LogLevelError)
	}
}
