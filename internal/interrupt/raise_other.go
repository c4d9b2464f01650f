//go:build !unix

package interrupt

import "os"

// statusControlCExit is STATUS_CONTROL_C_EXIT, the exit status of a
// console process killed by Ctrl-C.
const statusControlCExit = -1073741510

func raise(os.Signal) {
	os.Exit(statusControlCExit)
}
