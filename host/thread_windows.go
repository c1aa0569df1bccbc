//go:build windows

package host

import "golang.org/x/sys/windows"

func threadID() int { return int(windows.GetCurrentThreadId()) }
