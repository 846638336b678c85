package logger

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Level represents the severity level of a log message
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

func (l Level) String() string {
	if l < LevelDebug || l > LevelError {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLevel converts a level name such as "debug" or "WARN" into a Level.
// An empty name is info.
func ParseLevel(s string) (Level, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	switch name {
	case "":
		return LevelInfo, nil
	case "WARNING":
		return LevelWarn, nil
	}
	for i, n := range levelNames {
		if n == name {
			return Level(i), nil
		}
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// Field is a key-value pair attached to an entry.
type Field struct {
	Key   string
	Value interface{}
}

func String(key string, value string) Field { return Field{key, value} }

func Int(key string, value int) Field { return Field{key, value} }

func Int64(key string, value int64) Field { return Field{key, value} }

func Float64(key string, value float64) Field { return Field{key, value} }

func Bool(key string, value bool) Field { return Field{key, value} }

// Duration records d in its String form, e.g. "1.5s".
func Duration(key string, d time.Duration) Field { return Field{key, d.String()} }

// Err records err under the "error" key.
func Err(err error) Field {
	if err == nil {
		return Field{"error", nil}
	}
	return Field{"error", err.Error()}
}

func Any(key string, value interface{}) Field { return Field{key, value} }

// appendField writes " key=value", quoting values that would break a
// whitespace-separated entry.
func appendField(b *strings.Builder, f Field) {
	b.WriteByte(' ')
	b.WriteString(f.Key)
	b.WriteByte('=')

	var s string
	switch v := f.Value.(type) {
	case nil:
		s = "<nil>"
	case string:
		s = v
		if s == "" || strings.ContainsAny(s, " \t\r\n\"=") {
			s = strconv.Quote(s)
		}
	case float64:
		s = strconv.FormatFloat(v, 'g', -1, 64)
	default:
		s = fmt.Sprint(v)
	}
	b.WriteString(s)
}
