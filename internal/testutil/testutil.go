// Package testutil provides helpers shared by the runtime and typed-data tests.
package testutil

import (
	"bytes"
	stdErrors "errors"
	"io"
	"os"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/typeddata/errors"
	"github.com/reglet-dev/typeddata/host"
)

// SubprocessEnv marks a test binary re-run by RunSubprocess.
const SubprocessEnv = "TYPEDDATA_TEST_SUBPROCESS"

// Embed binds a fresh runtime to the calling test and releases it when the
// test finishes. The runtime is bound to the test goroutine's thread, so
// host-touching code must not run in subtests or other goroutines.
func Embed(t testing.TB, opts ...host.Option) *host.Runtime {
	t.Helper()
	rt, err := host.Embed(append([]host.Option{host.WithLogWriter(io.Discard)}, opts...)...)
	require.NoError(t, err, "embedding host runtime")
	t.Cleanup(rt.Cleanup)
	return rt
}

// InSubprocess reports whether the test runs inside RunSubprocess.
func InSubprocess() bool {
	return os.Getenv(SubprocessEnv) == "1"
}

// RunSubprocess re-runs the test binary restricted to the named test and
// returns its exit code and standard error.
func RunSubprocess(t *testing.T, testName string) (int, string) {
	t.Helper()

	cmd := exec.Command(os.Args[0], "-test.run=^"+testName+"$", "-test.count=1")
	cmd.Env = append(os.Environ(), SubprocessEnv+"=1")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.Stdout = io.Discard

	err := cmd.Run()
	if err == nil {
		return 0, stderr.String()
	}
	var exitErr *exec.ExitError
	require.True(t, stdErrors.As(err, &exitErr), "running subprocess: %v", err)
	return exitErr.ExitCode(), stderr.String()
}

// AssertBug asserts that the named test terminates with the bug exit code
// and a diagnostic containing msg.
func AssertBug(t *testing.T, testName, msg string) {
	t.Helper()
	code, stderr := RunSubprocess(t, testName)
	assert.Equal(t, host.BugExitCode, code, "exit code; stderr:\n%s", stderr)
	assert.Contains(t, stderr, "level=BUG")
	assert.Contains(t, stderr, msg)
}

// AssertExceptionClass asserts that err maps to the given host exception class.
func AssertExceptionClass(t testing.TB, class string, err error, msgAndArgs ...interface{}) {
	t.Helper()
	require.Error(t, err, msgAndArgs...)
	assert.Equal(t, class, errors.ExceptionClass(err), msgAndArgs...)
}

// HostString returns the Go string behind a host String.
func HostString(t testing.TB, rt *host.Runtime, v host.Value) string {
	t.Helper()
	b, err := rt.StringBytes(v)
	require.NoError(t, err)
	return string(b)
}
