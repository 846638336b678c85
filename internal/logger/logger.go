// Package logger provides levelled, structured logging for the OCR translator.
// Entries go to the console (stderr by default) and optionally to a size-rotated
// log file.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Logger defines the logging interface
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, err error, fields ...Field)
	// With returns a logger that adds fields to every entry.
	With(fields ...Field) Logger
	SetLevel(level Level)
	Close() error
}

// Config holds the configuration for the logger
type Config struct {
	LogFilePath string // empty disables file output
	MaxFileSize int64  // bytes before rotation
	MaxBackups  int
	Level       Level

	EnableConsole bool
	Console       io.Writer // os.Stderr when nil
	// Color highlights the level on the console. Ignored when the
	// terminal does not support colour.
	Color bool
}

// DefaultConfig returns a default logger configuration
func DefaultConfig() *Config {
	return &Config{
		MaxFileSize:   10 * 1024 * 1024,
		MaxBackups:    5,
		Level:         LevelInfo,
		EnableConsole: true,
	}
}

const timeFormat = "2006-01-02 15:04:05.000"

// output is shared by a logger and the children created with With.
type output struct {
	mu      sync.Mutex
	level   Level
	console io.Writer
	color   bool
	file    *rotatingFile
}

// DefaultLogger is the default implementation of the Logger interface
type DefaultLogger struct {
	out    *output
	fields []Field
}

// NewDefaultLogger creates a new DefaultLogger with the given configuration
func NewDefaultLogger(config *Config) (*DefaultLogger, error) {
	if config == nil {
		config = DefaultConfig()
	}

	out := &output{level: config.Level, color: config.Color}
	if config.EnableConsole {
		out.console = config.Console
		if out.console == nil {
			out.console = os.Stderr
		}
	}
	if config.LogFilePath != "" {
		rf, err := openRotatingFile(config.LogFilePath, config.MaxFileSize, config.MaxBackups)
		if err != nil {
			return nil, err
		}
		out.file = rf
	}
	return &DefaultLogger{out: out}, nil
}

func (l *DefaultLogger) Debug(msg string, fields ...Field) { l.log(LevelDebug, msg, nil, fields) }

func (l *DefaultLogger) Info(msg string, fields ...Field) { l.log(LevelInfo, msg, nil, fields) }

func (l *DefaultLogger) Warn(msg string, fields ...Field) { l.log(LevelWarn, msg, nil, fields) }

func (l *DefaultLogger) Error(msg string, err error, fields ...Field) {
	l.log(LevelError, msg, err, fields)
}

// With implements Logger.
func (l *DefaultLogger) With(fields ...Field) Logger {
	merged := make([]Field, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, fields...)
	return &DefaultLogger{out: l.out, fields: merged}
}

// SetLevel sets the minimum level for this logger and its children.
func (l *DefaultLogger) SetLevel(level Level) {
	l.out.mu.Lock()
	l.out.level = level
	l.out.mu.Unlock()
}

// Close closes the log file, if any.
func (l *DefaultLogger) Close() error {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	if l.out.file == nil {
		return nil
	}
	err := l.out.file.close()
	l.out.file = nil
	return err
}

func (l *DefaultLogger) log(level Level, msg string, err error, fields []Field) {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	if level < l.out.level {
		return
	}

	var b strings.Builder
	b.WriteString(msg)
	if err != nil {
		appendField(&b, Field{"error", err.Error()})
	}
	for _, f := range l.fields {
		appendField(&b, f)
	}
	for _, f := range fields {
		appendField(&b, f)
	}
	b.WriteByte('\n')
	body := b.String()
	stamp := time.Now().Format(timeFormat)
	tag := "[" + level.String() + "]"

	if l.out.console != nil {
		consoleTag := tag
		if l.out.color {
			consoleTag = levelColor(level).Sprint(tag)
		}
		_, _ = io.WriteString(l.out.console, stamp+" "+consoleTag+" "+body)
	}
	if l.out.file != nil {
		_ = l.out.file.write(stamp + " " + tag + " " + body)
	}
}

func levelColor(level Level) *color.Color {
	switch level {
	case LevelDebug:
		return color.New(color.FgHiBlack)
	case LevelWarn:
		return color.New(color.FgYellow)
	case LevelError:
		return color.New(color.FgRed, color.Bold)
	default:
		return color.New(color.FgCyan)
	}
}

var (
	globalLogger Logger
	globalMu     sync.RWMutex
)

// Init replaces the global logger.
func Init(config *Config) error {
	l, err := NewDefaultLogger(config)
	if err != nil {
		return err
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger != nil {
		_ = globalLogger.Close()
	}
	globalLogger = l
	return nil
}

// GetLogger returns the global logger instance, a no-op logger before Init.
func GetLogger() Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalLogger == nil {
		return noopLogger{}
	}
	return globalLogger
}

// SetGlobalLogger sets the global logger instance
func SetGlobalLogger(l Logger) {
	globalMu.Lock()
	globalLogger = l
	globalMu.Unlock()
}

// Close closes and clears the global logger.
func Close() error {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger == nil {
		return nil
	}
	err := globalLogger.Close()
	globalLogger = nil
	return err
}

func Debug(msg string, fields ...Field) { GetLogger().Debug(msg, fields...) }

func Info(msg string, fields ...Field) { GetLogger().Info(msg, fields...) }

func Warn(msg string, fields ...Field) { GetLogger().Warn(msg, fields...) }

func Error(msg string, err error, fields ...Field) { GetLogger().Error(msg, err, fields...) }

// With returns a child of the global logger carrying fields.
func With(fields ...Field) Logger { return GetLogger().With(fields...) }

type noopLogger struct{}

func (noopLogger) Debug(string, ...Field)        {}
func (noopLogger) Info(string, ...Field)         {}
func (noopLogger) Warn(string, ...Field)         {}
func (noopLogger) Error(string, error, ...Field) {}
func (n noopLogger) With(...Field) Logger        { return n }
func (noopLogger) SetLevel(Level)                {}
func (noopLogger) Close() error                  { return nil }
