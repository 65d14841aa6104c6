// internal/logger/logger.go

package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"
)

type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
	FATAL
)

type Mode int

const (
	MINIMAL Mode = iota
	NORMAL
	FULL
)

var (
	levelNames = map[Level]string{
		DEBUG: "DEBUG",
		INFO:  "INFO",
		WARN:  "WARN",
		ERROR: "ERROR",
		FATAL: "FATAL",
	}

	levelColors = map[Level]string{
		DEBUG: "\033[36m",
		INFO:  "\033[32m",
		WARN:  "\033[33m",
		ERROR: "\033[31m",
		FATAL: "\033[35m",
	}

	resetColor = "\033[0m"
)

type Logger struct {
	level      Level
	mode       Mode
	mu         sync.Mutex
	consoleOut io.Writer
	fileOut    io.Writer
	logFile    *os.File
	useColors  bool
}

type Config struct {
	Level       Level
	Mode        Mode
	LogFilePath string
	UseColors   bool
}

func New(cfg Config) (*Logger, error) {
	l := &Logger{
		level:      cfg.Level,
		mode:       cfg.Mode,
		consoleOut: os.Stdout,
		useColors:  cfg.UseColors,
	}

	if cfg.LogFilePath != "" {
		if err := l.setupLogFile(cfg.LogFilePath); err != nil {
			return nil, fmt.Errorf("failed to setup log file: %w", err)
		}
	}

	return l, nil
}

func (l *Logger) setupLogFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}

	l.logFile = file
	l.fileOut = file
	return nil
}

func (l *Logger) Close() error {
	if l.logFile != nil {
		return l.logFile.Close()
	}
	return nil
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	if level < l.level {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	message := fmt.Sprintf(format, args...)
	levelStr := levelNames[level]

	location := ""
	if l.mode == FULL {
		file, line := l.getCaller()
		location = fmt.Sprintf(" | %s:%d", file, line)
	}

	if l.consoleOut != nil {
		tag := fmt.Sprintf("[%s]", levelStr)
		if l.useColors {
			tag = fmt.Sprintf("%s[%s]%s", levelColors[level], levelStr, resetColor)
		}
		if l.mode == MINIMAL {
			fmt.Fprintf(l.consoleOut, "%s %s\n", tag, message)
		} else {
			fmt.Fprintf(l.consoleOut, "%s %s%s | %s\n", tag, timestamp, location, message)
		}
	}

	if l.fileOut != nil {
		fmt.Fprintf(l.fileOut, "%s [%s]%s %s\n", timestamp, levelStr, location, message)
	}

	if level == FATAL {
		os.Exit(1)
	}
}

func (l *Logger) getCaller() (string, int) {
	_, file, line, ok := runtime.Caller(3)
	if !ok {
		return "unknown", 0
	}
	return filepath.Base(file), line
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(DEBUG, format, args...)
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.log(INFO, format, args...)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(WARN, format, args...)
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.log(ERROR, format, args...)
}

func (l *Logger) Fatal(format string, args ...interface{}) {
	l.log(FATAL, format, args...)
}

func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

func ParseLevel(s string) Level {
	switch s {
	case "debug", "DEBUG":
		return DEBUG
	case "info", "INFO":
		return INFO
	case "warn", "WARN", "warning", "WARNING":
		return WARN
	case "error", "ERROR":
		return ERROR
	case "fatal", "FATAL":
		return FATAL
	default:
		return INFO
	}
}

func ParseMode(s string) Mode {
	switch s {
	case "minimal", "MINIMAL":
		return MINIMAL
	case "full", "FULL":
		return FULL
	default:
		return NORMAL
	}
}

var defaultLogger *Logger

func init() {
	defaultLogger, _ = New(Config{
		Level:     INFO,
		Mode:      NORMAL,
		UseColors: true,
	})
}

func Debug(format string, args ...interface{}) {
	defaultLogger.Debug(format, args...)
}

func Info(format string, args ...interface{}) {
	defaultLogger.Info(format, args...)
}

func Warn(format string, args ...interface{}) {
	defaultLogger.Warn(format, args...)
}

func Error(format string, args ...interface{}) {
	defaultLogger.Error(format, args...)
}
