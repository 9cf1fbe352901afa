// Package logger writes user-facing output, honouring --quiet and --debug.
package logger

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
)

type Logger struct {
	out   io.Writer
	err   io.Writer
	quiet bool
	debug bool
	// trace renders --debug lines with a level marker and key/value pairs.
	trace *log.Logger
}

func New(out io.Writer, err io.Writer, quiet bool, debug bool) *Logger {
	return &Logger{
		out:   out,
		err:   err,
		quiet: quiet,
		debug: debug,
		trace: log.NewWithOptions(out, log.Options{Level: log.DebugLevel}),
	}
}

// Discard is a logger that swallows everything, for callers that do not care about output.
func Discard() *Logger {
	return New(io.Discard, io.Discard, true, false)
}

// Log writes a progress line. Quiet mode hides it unless forceShow is set or debugging is on.
func (logger *Logger) Log(message string, forceShow bool) {
	if logger.quiet && !forceShow && !logger.debug {
		return
	}
	_, _ = fmt.Fprintln(logger.out, message)
}

func (logger *Logger) Logf(forceShow bool, format string, args ...any) {
	logger.Log(fmt.Sprintf(format, args...), forceShow)
}

// Debug writes message with optional key/value pairs when --debug is on.
func (logger *Logger) Debug(message string, keyvals ...any) {
	if !logger.debug {
		return
	}
	logger.trace.Debug(message, keyvals...)
}

func (logger *Logger) Debugf(format string, args ...any) {
	logger.Debug(fmt.Sprintf(format, args...))
}

// Warn goes to the error stream but, unlike Error, is suppressed by --quiet.
func (logger *Logger) Warn(message string) {
	if logger.quiet && !logger.debug {
		return
	}
	_, _ = fmt.Fprintln(logger.err, message)
}

func (logger *Logger) Error(message string) {
	_, _ = fmt.Fprintln(logger.err, message)
}

func (logger *Logger) Errorf(format string, args ...any) {
	_, _ = fmt.Fprintf(logger.err, format, args...)
}

func (logger *Logger) IsDebug() bool {
	return logger.debug
}

func (logger *Logger) IsQuiet() bool {
	return logger.quiet
}
