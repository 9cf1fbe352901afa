// Package progress delivers human-readable status lines from long-running operations.
package progress

import (
	"github.com/meza/entwine/internal/logger"
)

// Sink receives progress messages. Implementations must not block for long; delivery is
// fire-and-forget and a sink cannot fail the operation reporting to it.
type Sink interface {
	Notify(message string)
}

type SinkFunc func(message string)

func (f SinkFunc) Notify(message string) {
	f(message)
}

// Discard drops every message.
var Discard Sink = SinkFunc(func(string) {})

// Notify hands message to sink and swallows a panicking sink.
func Notify(sink Sink, message string) {
	if sink == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	sink.Notify(message)
}

// LoggerSink writes each message as a regular log line.
type LoggerSink struct {
	Logger *logger.Logger
}

func (sink LoggerSink) Notify(message string) {
	if sink.Logger == nil {
		return
	}
	sink.Logger.Log(message, false)
}

// ChannelSink forwards messages to a channel without blocking. Messages are dropped while
// the channel is full.
type ChannelSink chan string

func (sink ChannelSink) Notify(message string) {
	select {
	case sink <- message:
	default:
	}
}

// Multi fans a message out to every sink.
func Multi(sinks ...Sink) Sink {
	return SinkFunc(func(message string) {
		for _, sink := range sinks {
			Notify(sink, message)
		}
	})
}
