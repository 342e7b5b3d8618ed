//go:build !linux

package gpio

import (
	"errors"
	"runtime"
)

// Realtime locks the calling goroutine to its kernel thread. Realtime
// priority is only available on Linux.
func Realtime() error {
	runtime.LockOSThread()
	return errors.New("realtime scheduling not supported on this platform")
}
