//go:build !linux && !windows

package host

// Without a portable thread id, binding relies on runtime.LockOSThread alone
// and off-thread use is not detected.
func threadID() int { return 0 }
