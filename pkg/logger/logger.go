// Package logger provides a small leveled logger used throughout the
// tracker. It mirrors the style of the radio/embedded world this project
// grew out of: no structured fields, just timestamped lines with an
// optional file/line tag and an optional mirrored log file.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"
)

// Level is the minimum severity a message must have to be emitted.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
	FATAL
)

var (
	logLevel = INFO

	logOutput  io.Writer = os.Stdout
	errOutput  io.Writer = os.Stderr
	fileOut    io.WriteCloser
	fileErrOut io.WriteCloser

	timeFormat = "2006-01-02 15:04:05.000"

	infoLogger  *log.Logger
	warnLogger  *log.Logger
	errorLogger *log.Logger
	debugLogger *log.Logger

	includeFile = true

	mu          sync.Mutex
	initialized bool
)

// Init sets up the default loggers. Safe to call more than once.
func Init() {
	mu.Lock()
	defer mu.Unlock()
	if initialized {
		return
	}
	infoLogger = log.New(logOutput, "", 0)
	warnLogger = log.New(logOutput, "", 0)
	errorLogger = log.New(errOutput, "", 0)
	debugLogger = log.New(logOutput, "", 0)
	initialized = true
}

// SetLevel changes the minimum level that gets emitted.
func SetLevel(level Level) {
	mu.Lock()
	defer mu.Unlock()
	logLevel = level
}

// GetLevel returns the current minimum level.
func GetLevel() Level {
	mu.Lock()
	defer mu.Unlock()
	return logLevel
}

// IsDebugEnabled reports whether DEBUG messages are currently emitted.
func IsDebugEnabled() bool {
	return GetLevel() <= DEBUG
}

// SetOutput redirects all log levels to w.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logOutput = w
	errOutput = w
	infoLogger = log.New(w, "", 0)
	warnLogger = log.New(w, "", 0)
	errorLogger = log.New(w, "", 0)
	debugLogger = log.New(w, "", 0)
}

// EnableFileLogging mirrors log output into timestamped files under logDir.
func EnableFileLogging(logDir, prefix string) error {
	mu.Lock()
	defer mu.Unlock()

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}

	ts := time.Now().Format("20060102_150405")
	if prefix != "" {
		prefix += "_"
	}

	logPath := filepath.Join(logDir, fmt.Sprintf("%s%s.log", prefix, ts))
	lf, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	errPath := filepath.Join(logDir, fmt.Sprintf("%s%s_error.log", prefix, ts))
	ef, err := os.OpenFile(errPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		lf.Close()
		return fmt.Errorf("open error log file: %w", err)
	}

	if fileOut != nil {
		fileOut.Close()
	}
	if fileErrOut != nil {
		fileErrOut.Close()
	}
	fileOut = lf
	fileErrOut = ef

	multiOut := io.MultiWriter(logOutput, lf)
	multiErr := io.MultiWriter(errOutput, ef)

	infoLogger = log.New(multiOut, "", 0)
	warnLogger = log.New(multiOut, "", 0)
	debugLogger = log.New(multiOut, "", 0)
	errorLogger = log.New(multiErr, "", 0)

	Info("file logging started")
	return nil
}

// Sync closes any open log files.
func Sync() {
	mu.Lock()
	defer mu.Unlock()
	if fileOut != nil {
		fileOut.Close()
		fileOut = nil
	}
	if fileErrOut != nil {
		fileErrOut.Close()
		fileErrOut = nil
	}
}

func logMessage(level Level, format string, args ...interface{}) {
	if level < logLevel {
		return
	}

	ts := time.Now().Format(timeFormat)

	var target *log.Logger
	var tag string
	switch level {
	case DEBUG:
		target, tag = debugLogger, "DEBUG"
	case INFO:
		target, tag = infoLogger, "INFO "
	case WARN:
		target, tag = warnLogger, "WARN "
	case ERROR:
		target, tag = errorLogger, "ERROR"
	case FATAL:
		target, tag = errorLogger, "FATAL"
	}

	var src string
	if includeFile {
		if _, file, line, ok := runtime.Caller(2); ok {
			src = fmt.Sprintf(" [%s:%d]", filepath.Base(file), line)
		}
	}

	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}

	if target == nil {
		fmt.Fprintf(os.Stderr, "[%s] %s%s: %s\n", ts, tag, src, msg)
	} else {
		target.Printf("[%s] %s%s: %s", ts, tag, src, msg)
	}

	if level == FATAL {
		panic(msg)
	}
}

func Debug(msg string)                          { logMessage(DEBUG, "%s", msg) }
func Debugf(format string, args ...interface{}) { logMessage(DEBUG, format, args...) }
func Info(msg string)                           { logMessage(INFO, "%s", msg) }
func Infof(format string, args ...interface{})  { logMessage(INFO, format, args...) }
func Warn(msg string)                           { logMessage(WARN, "%s", msg) }
func Warnf(format string, args ...interface{})  { logMessage(WARN, format, args...) }

func Error(msg string, err error) {
	if err != nil {
		logMessage(ERROR, "%s: %v", msg, err)
	} else {
		logMessage(ERROR, "%s", msg)
	}
}

func Errorf(format string, args ...interface{}) { logMessage(ERROR, format, args...) }

func Fatal(msg string, err error) {
	if err != nil {
		logMessage(FATAL, "%s: %v", msg, err)
	} else {
		logMessage(FATAL, "%s", msg)
	}
}

func Fatalf(format string, args ...interface{}) { logMessage(FATAL, format, args...) }
