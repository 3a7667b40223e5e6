package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"
)

// Logger provides structured logging
type Logger struct {
	level  string
	format string
	mu     sync.Mutex
	output io.Writer
}

// NewLogger creates a new logger writing to stdout, stderr or the named file
func NewLogger(level, format, output string) *Logger {
	var w io.Writer

	switch output {
	case "", "stdout":
		w = os.Stdout
	case "stderr":
		w = os.Stderr
	default:
		file, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("Failed to open log file %s: %v, using stdout", output, err)
			w = os.Stdout
		} else {
			w = file
		}
	}

	return New(level, format, w)
}

// New creates a logger on an arbitrary writer
func New(level, format string, w io.Writer) *Logger {
	return &Logger{
		level:  level,
		format: format,
		output: w,
	}
}

// LogEntry represents a log entry
type LogEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

var levels = map[string]int{
	"debug": 0,
	"info":  1,
	"warn":  2,
	"error": 3,
}

func (l *Logger) shouldLog(level string) bool {
	currentLevel, ok := levels[l.level]
	if !ok {
		currentLevel = 1 // Default to info
	}

	logLevel, ok := levels[level]
	if !ok {
		return true
	}

	return logLevel >= currentLevel
}

func (l *Logger) log(level, message string, fields map[string]interface{}) {
	if !l.shouldLog(level) {
		return
	}

	entry := LogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     level,
		Message:   message,
		Fields:    Redact(fields),
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.format == "json" {
		data, _ := json.Marshal(entry)
		fmt.Fprintln(l.output, string(data))
	} else {
		fieldStr := ""
		if len(entry.Fields) > 0 {
			fieldStr = fmt.Sprintf(" %+v", entry.Fields)
		}
		fmt.Fprintf(l.output, "[%s] %s: %s%s\n", entry.Timestamp, level, message, fieldStr)
	}
}

// Debug logs a debug message
func (l *Logger) Debug(message string, fields map[string]interface{}) {
	l.log("debug", message, fields)
}

// Info logs an info message
func (l *Logger) Info(message string, fields map[string]interface{}) {
	l.log("info", message, fields)
}

// Warn logs a warning message
func (l *Logger) Warn(message string, fields map[string]interface{}) {
	l.log("warn", message, fields)
}

// Error logs an error message
func (l *Logger) Error(message string, err error, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	l.log("error", message, fields)
}

// Printf logs a formatted info message. It lets the logger stand in for goose's logger.
func (l *Logger) Printf(format string, v ...interface{}) {
	l.log("info", fmt.Sprintf(format, v...), nil)
}

// Fatalf logs a formatted error message and exits
func (l *Logger) Fatalf(format string, v ...interface{}) {
	l.log("error", fmt.Sprintf(format, v...), nil)
	os.Exit(1)
}
