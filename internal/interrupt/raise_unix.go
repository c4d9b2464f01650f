//go:build unix

package interrupt

import (
	"os"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

func raise(sig os.Signal) {
	s, ok := sig.(syscall.Signal)
	if !ok {
		os.Exit(1)
	}

	if err := unix.Kill(unix.Getpid(), s); err == nil {
		// delivery is asynchronous. Best effort: a run that ends during
		// this sleep exits from main with its normal code instead.
		time.Sleep(time.Second)
	}

	os.Exit(128 + int(s))
}
