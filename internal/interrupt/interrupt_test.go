package interrupt

import (
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchReportsThenRaises(t *testing.T) {
	sigChan := make(chan os.Signal, 1)
	done := make(chan struct{})

	var order []string
	raised := make(chan os.Signal, 1)

	go watch(sigChan, done,
		func() { order = append(order, "report") },
		func(sig os.Signal) {
			order = append(order, "raise")
			raised <- sig
		},
	)

	sigChan <- syscall.SIGTERM

	select {
	case sig := <-raised:
		assert.Equal(t, syscall.SIGTERM, sig)
	case <-time.After(time.Second):
		t.Fatal("signal was not raised")
	}
	assert.Equal(t, []string{"report", "raise"}, order)
}

func TestWatchStops(t *testing.T) {
	sigChan := make(chan os.Signal, 1)
	done := make(chan struct{})
	finished := make(chan struct{})

	go func() {
		defer close(finished)
		watch(sigChan, done, func() { t.Error("unexpected report") }, func(os.Signal) { t.Error("unexpected raise") })
	}()

	close(done)

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("watch did not return")
	}
}

func TestNotifyStopIsIdempotent(t *testing.T) {
	stop := Notify(func() {})
	require.NotPanics(t, func() {
		stop()
		stop()
	})
}
