// Package interrupt reports the run state when the user stops the process.
package interrupt

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// Notify calls report on the first SIGINT or SIGTERM (Ctrl-C on Windows),
// then lets that signal terminate the process as if no handler had been
// installed. The returned stop function unsubscribes.
func Notify(report func()) (stop func()) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go watch(sigChan, done, report, reraise)

	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(sigChan)
			close(done)
		})
	}
}

// watch waits for one signal, reports, and hands the signal to raise.
func watch(sigChan <-chan os.Signal, done <-chan struct{}, report func(), raise func(os.Signal)) {
	select {
	case sig := <-sigChan:
		report()
		raise(sig)
	case <-done:
	}
}

// reraise restores the default disposition of sig and raises it again.
func reraise(sig os.Signal) {
	signal.Reset(sig)
	raise(sig)
}
