package log

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/localstack/localstack-go/pkg/config"
)

type LogLevel int

const (
	TraceLevel LogLevel = iota
	DebugLevel
	InfoLevel
	WarnLevel
	ErrorLevel
)

const (
	DefaultLogLevel = InfoLevel

	envLogLevel       = "LOCALSTACK_LOG_LEVEL"
	envLegacyLogLevel = "LOG_LEVEL"
)

var logLevelString = [...]string{
	"TRACE",
	"DEBUG",
	"INFO",
	"WARN",
	"ERROR",
}

var logLevelMap = map[string]LogLevel{
	"TRACE": TraceLevel,
	"DEBUG": DebugLevel,
	"INFO":  InfoLevel,
	"WARN":  WarnLevel,
	"ERROR": ErrorLevel,
}

func (l LogLevel) String() string {
	if l < TraceLevel || l > ErrorLevel {
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
	return logLevelString[l]
}

// ParseLevel maps a level name (case insensitive) to a LogLevel.
func ParseLevel(s string) (LogLevel, bool) {
	level, ok := logLevelMap[strings.ToUpper(strings.TrimSpace(s))]
	return level, ok
}

type Logger struct {
	mu     sync.Mutex
	level  LogLevel
	logger *log.Logger
}

var DefaultLogger *Logger

func init() {
	DefaultLogger = NewLogger()
}

// NewLogger returns a logger writing to stdout. The level is read from
// LOCALSTACK_LOG_LEVEL, falling back to LOG_LEVEL, then INFO.
func NewLogger() *Logger {
	levelStr := config.ReadEnvVarWithDefault(envLogLevel, config.ReadEnvVar(envLegacyLogLevel))
	level, exists := ParseLevel(levelStr)
	if !exists {
		level = DefaultLogLevel
	}
	return NewLoggerWithOutput(os.Stdout, level)
}

func NewLoggerWithOutput(w io.Writer, level LogLevel) *Logger {
	return &Logger{
		level:  level,
		logger: log.New(w, "localstack ", log.Ldate|log.Ltime),
	}
}

func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

func (l *Logger) SetOutput(w io.Writer) {
	l.logger.SetOutput(w)
}

func (l *Logger) Enabled(level LogLevel) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return level >= l.level
}

func (l *Logger) Log(level LogLevel, format string, v ...interface{}) {
	if level < TraceLevel || level > ErrorLevel {
		level = ErrorLevel
	}
	if !l.Enabled(level) {
		return
	}
	l.logger.Printf(logLevelString[level]+": "+strings.TrimRight(format, "\n"), v...)
}

func Log(logLevel LogLevel, format string, v ...interface{}) {
	DefaultLogger.Log(logLevel, format, v...)
}

func Debug(format string, v ...interface{}) {
	DefaultLogger.Log(DebugLevel, format, v...)
}

func Info(format string, v ...interface{}) {
	DefaultLogger.Log(InfoLevel, format, v...)
}

func Warn(format string, v ...interface{}) {
	DefaultLogger.Log(WarnLevel, format, v...)
}

func Trace(format string, v ...interface{}) {
	DefaultLogger.Log(TraceLevel, format, v...)
}

// Error logs at ERROR and returns the formatted message as an error, so
// callers can log and return in one step.
func Error(format string, v ...interface{}) error {
	DefaultLogger.Log(ErrorLevel, format, v...)
	return fmt.Errorf(format, v...)
}
