package gpio

import (
	"fmt"
	"runtime"
	"syscall"
	"unsafe"
)

const (
	schedRR          = 2 // round-robin scheduling policy
	realtimePriority = 10
)

type schedParam struct {
	Priority int
}

// Realtime locks the calling goroutine to its kernel thread and gives that
// thread round-robin realtime priority. Needs CAP_SYS_NICE or root.
func Realtime() error {
	runtime.LockOSThread()
	tid := syscall.Gettid()
	res, _, errno := syscall.RawSyscall(syscall.SYS_SCHED_SETSCHEDULER, uintptr(tid),
		uintptr(schedRR), uintptr(unsafe.Pointer(&schedParam{realtimePriority})))
	if res != 0 {
		return fmt.Errorf("failed to set realtime scheduling: %w", errno)
	}
	return nil
}
