// Package lifecycle runs cleanup when the user interrupts a command: the root lock is released and
// telemetry is flushed before the process exits.
package lifecycle

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// Handler receives the OS signal that triggered shutdown.
type Handler func(os.Signal)

// HandlerID identifies a registered handler. Zero is never issued.
type HandlerID int64

type entry struct {
	id      HandlerID
	handler Handler
}

var (
	shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

	mu      sync.Mutex
	lastID  HandlerID
	entries []entry

	startOnce  sync.Once
	signalChan chan os.Signal

	channelFactory = newSignalChan
	notifyFunc     = signal.Notify
	stopFunc       = signal.Stop
	exitFunc       = os.Exit
)

// Register adds a handler that runs when a shutdown signal arrives. Handlers run newest first.
func Register(handler Handler) HandlerID {
	if handler == nil {
		return 0
	}
	startOnce.Do(listen)

	mu.Lock()
	defer mu.Unlock()
	lastID++
	entries = append(entries, entry{id: lastID, handler: handler})
	return lastID
}

// OnShutdown registers fn and returns a function that unregisters it, for use with defer.
func OnShutdown(fn func()) func() {
	if fn == nil {
		return func() {}
	}
	id := Register(func(os.Signal) { fn() })
	return func() { Unregister(id) }
}

func Unregister(id HandlerID) {
	if id == 0 {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	for i, registered := range entries {
		if registered.id == id {
			entries = append(entries[:i], entries[i+1:]...)
			return
		}
	}
}

// listen waits for the first shutdown signal and runs the handlers. A second signal while they run
// exits at once, so a stuck handler cannot keep the process alive.
func listen() {
	signalChan = channelFactory()
	notifyFunc(signalChan, shutdownSignals...)
	incoming := signalChan

	go func() {
		sig := <-incoming
		done := make(chan struct{})
		go func() {
			runHandlers(sig)
			close(done)
		}()

		select {
		case <-done:
			exitFunc(exitCode(sig))
		case second := <-incoming:
			exitFunc(exitCode(second))
		}
	}()
}

func runHandlers(sig os.Signal) {
	mu.Lock()
	snapshot := append([]entry(nil), entries...)
	mu.Unlock()

	for i := len(snapshot) - 1; i >= 0; i-- {
		invoke(snapshot[i].handler, sig)
	}
}

func invoke(handler Handler, sig os.Signal) {
	defer func() {
		_ = recover()
	}()
	handler(sig)
}

// exitCode follows the shell convention of 128 plus the signal number.
func exitCode(sig os.Signal) int {
	switch sig {
	case os.Interrupt:
		return 130
	case syscall.SIGTERM:
		return 143
	default:
		return 1
	}
}

// reset clears global state (tests only).
func reset() {
	if signalChan != nil {
		stopFunc(signalChan)
	}
	signalChan = nil
	startOnce = sync.Once{}

	mu.Lock()
	lastID = 0
	entries = nil
	mu.Unlock()

	channelFactory = newSignalChan
	notifyFunc = signal.Notify
	stopFunc = signal.Stop
	exitFunc = os.Exit
}

func newSignalChan() chan os.Signal {
	return make(chan os.Signal, 1)
}
