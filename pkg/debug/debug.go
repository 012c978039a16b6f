/*
 * Package debug provides leveled logging for the netdata agent, controlled
 * by the DEBUG and LOG_LEVEL environment variables.
 */
package debug

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarning
	LevelError
)

var levelNames = map[LogLevel]string{
	LevelDebug:   "DEBUG",
	LevelInfo:    "INFO",
	LevelWarning: "WARNING",
	LevelError:   "ERROR",
}

var (
	// IsEnabled reports whether debug logging is active
	IsEnabled bool

	// CurrentLevel is the minimum level that will be logged
	CurrentLevel LogLevel

	logger = log.New(os.Stderr, "", 0)
)

func init() {
	Reinitialize()
}

// Reinitialize re-reads the DEBUG and LOG_LEVEL environment variables.
// Call it after configuration loading may have changed them.
func Reinitialize() {
	debugEnv := os.Getenv("DEBUG")
	IsEnabled = debugEnv == "true" || debugEnv == "1"

	switch strings.ToUpper(os.Getenv("LOG_LEVEL")) {
	case "DEBUG":
		CurrentLevel = LevelDebug
	case "INFO":
		CurrentLevel = LevelInfo
	case "WARNING":
		CurrentLevel = LevelWarning
	case "ERROR":
		CurrentLevel = LevelError
	default:
		CurrentLevel = LevelInfo
	}
}

// Log writes a message at the given level if logging is enabled and the
// level passes the current filter.
func Log(level LogLevel, format string, args ...interface{}) {
	if !IsEnabled || level < CurrentLevel {
		return
	}

	// Caller of the exported wrapper, two frames up
	_, file, line, ok := runtime.Caller(2)
	caller := "???:0"
	if ok {
		caller = fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	msg := fmt.Sprintf(format, args...)
	logger.Printf("[%s] [%s] [%s] %s", timestamp, levelNames[level], caller, msg)
}

// Debug logs a message at DEBUG level
func Debug(format string, args ...interface{}) {
	Log(LevelDebug, format, args...)
}

// Info logs a message at INFO level
func Info(format string, args ...interface{}) {
	Log(LevelInfo, format, args...)
}

// Warning logs a message at WARNING level
func Warning(format string, args ...interface{}) {
	Log(LevelWarning, format, args...)
}

// Error logs a message at ERROR level
func Error(format string, args ...interface{}) {
	Log(LevelError, format, args...)
}
