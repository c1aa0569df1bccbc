package host

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThreadID(t *testing.T) {
	if runtime.GOOS != "linux" && runtime.GOOS != "windows" {
		assert.Zero(t, threadID())
		return
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	self := threadID()
	assert.NotZero(t, self)
	assert.Equal(t, self, threadID(), "stable on a locked thread")

	other := make(chan int)
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		other <- threadID()
	}()
	assert.NotEqual(t, self, <-other)
}
