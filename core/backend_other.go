//go:build !linux

package core

import (
	"runtime"
	"strconv"
	"strings"
)

// Without a portable per-thread priority call every level maps to the same value.
var platformPriorities = PriorityTable{}

// currentThreadID uses the goroutine id as the thread identity. Spawned
// goroutines are locked to their OS thread for life, so the two are 1:1.
func currentThreadID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	// Stack header: "goroutine 123 ["
	fields := strings.Fields(strings.TrimPrefix(string(buf[:n]), "goroutine "))
	if len(fields) == 0 {
		return 0
	}
	id, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func setThreadPriority(tid int64, value int) error {
	return ErrPriorityUnsupported
}
