package logger

import (
	"io"
	"log"
	"os"
	"strings"
)

var levels = map[string]int{
	"debug": 0,
	"info":  1,
	"warn":  2,
	"error": 3,
}

type Logger struct {
	level string
	out   *log.Logger
}

func New(level string) *Logger {
	return NewWithWriter(level, os.Stderr)
}

// NewWithWriter is New with an explicit destination; tests use it to capture output.
func NewWithWriter(level string, w io.Writer) *Logger {
	level = strings.ToLower(strings.TrimSpace(level))
	if _, ok := levels[level]; !ok {
		level = "info"
	}
	return &Logger{
		level: level,
		out:   log.New(w, "", log.LstdFlags),
	}
}

func (l *Logger) enabled(level string) bool {
	return levels[level] >= levels[l.level]
}

func (l *Logger) Debug(msg string, args ...interface{}) {
	if l.enabled("debug") {
		l.out.Printf("[DEBUG] "+msg, args...)
	}
}

func (l *Logger) Info(msg string, args ...interface{}) {
	if l.enabled("info") {
		l.out.Printf("[INFO] "+msg, args...)
	}
}

func (l *Logger) Warn(msg string, args ...interface{}) {
	if l.enabled("warn") {
		l.out.Printf("[WARN] "+msg, args...)
	}
}

func (l *Logger) Error(msg string, args ...interface{}) {
	l.out.Printf("[ERROR] "+msg, args...)
}

func (l *Logger) Fatal(msg string, args ...interface{}) {
	l.out.Printf("[FATAL] "+msg, args...)
	os.Exit(1)
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return NewWithWriter("error", io.Discard)
}

// Writer is the destination used for request access logs.
func (l *Logger) Writer() io.Writer {
	return l.out.Writer()
}
