package mapping

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/text/encoding/unicode"

	"github.com/roach88/remap/internal/event"
	"github.com/roach88/remap/internal/query"
)

// LevelTrace is the slog level used for trace output. slog has no trace
// level of its own.
const LevelTrace = slog.LevelDebug - 4

// LogLevel is the severity a Log statement emits at.
type LogLevel int

const (
	LogLevelTrace LogLevel = iota
	LogLevelDebug
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

// ParseLogLevel parses a lowercase level name.
func ParseLogLevel(s string) (LogLevel, error) {
	switch s {
	case "trace":
		return LogLevelTrace, nil
	case "debug":
		return LogLevelDebug, nil
	case "info":
		return LogLevelInfo, nil
	case "warn":
		return LogLevelWarn, nil
	case "error":
		return LogLevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level")
	}
}

func (l LogLevel) String() string {
	switch l {
	case LogLevelTrace:
		return "trace"
	case LogLevelDebug:
		return "debug"
	case LogLevelInfo:
		return "info"
	case LogLevelWarn:
		return "warn"
	case LogLevelError:
		return "error"
	default:
		return fmt.Sprintf("LogLevel(%d)", int(l))
	}
}

// SlogLevel maps the level onto slog.
func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LogLevelTrace:
		return LevelTrace
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

//------------------------------------------------------------------------------

// Log emits a diagnostic message built from an expression. It never
// touches the event. Messages go to the process-wide slog.Default logger.
type Log struct {
	message query.Function
	level   LogLevel
}

// NewLog creates a log statement at info level.
func NewLog(message query.Function) *Log {
	return &Log{message: message, level: LogLevelInfo}
}

// NewLogAt creates a log statement at the given level.
func NewLogAt(message query.Function, level LogLevel) *Log {
	return &Log{message: message, level: level}
}

func (*Log) statement() {}

// Apply evaluates the message and logs its raw bytes, decoded as UTF-8
// with invalid sequences replaced by U+FFFD.
func (l *Log) Apply(ev *event.Event) error {
	r, err := l.message.Execute(ev)
	if err != nil {
		return err
	}
	v, ok := query.AsValue(r)
	if !ok {
		return newStatementError(ErrCodeExpressionType, msgLogNonValue)
	}

	slog.Default().Log(context.Background(), l.level.SlogLevel(), lossyUTF8(event.ToBytes(v)))
	return nil
}

// lossyUTF8 decodes b as UTF-8, writing one U+FFFD per maximal ill-formed
// subsequence.
func lossyUTF8(b []byte) string {
	decoded, err := unicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(decoded)
}
