//go:build linux

package core

import "golang.org/x/sys/unix"

// On Linux setpriority(PRIO_PROCESS, tid) changes the nice value of a single
// thread. Raising priority (negative nice) needs CAP_SYS_NICE; without it the
// call fails with EACCES/EPERM and the thread keeps its current value.
var platformPriorities = PriorityTable{19, 10, 0, -10, -20}

func currentThreadID() int64 {
	return int64(unix.Gettid())
}

func setThreadPriority(tid int64, value int) error {
	return unix.Setpriority(unix.PRIO_PROCESS, int(tid), value)
}
