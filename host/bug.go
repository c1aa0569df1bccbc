package host

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"

	"github.com/reglet-dev/typeddata/log"
)

// BugExitCode is the process exit status after a runtime-integrity violation.
const BugExitCode = 134

var exit = os.Exit

// Bug reports a runtime-integrity violation and terminates the process.
// It never returns.
func Bug(format string, args ...any) {
	bug(fmt.Sprintf(format, args...), nil)
}

// BugFromPanic reports a panic recovered at a native callback boundary and
// terminates the process. It never returns.
func BugFromPanic(r any) {
	bug(fmt.Sprintf("panic in native callback: %v", r), r)
}

func bug(msg string, r any) {
	attrs := []any{slog.String("stack", string(debug.Stack()))}
	if err, ok := r.(error); ok {
		attrs = append(attrs, slog.Any("error", err))
	}
	for _, logger := range bugLoggers() {
		logger.Log(context.Background(), log.LevelBug, msg, attrs...)
	}
	exit(BugExitCode)
	panic("unreachable: " + msg)
}

// bugLoggers returns stderr plus the runtime logger when it writes elsewhere.
func bugLoggers() []*slog.Logger {
	loggers := []*slog.Logger{
		slog.New(log.NewHandler(log.WithWriter(os.Stderr), log.WithLevel(log.LevelBug))),
	}
	if rt := active.Load(); rt != nil && rt.logger != nil && !rt.logsToStderr() {
		loggers = append(loggers, rt.logger)
	}
	return loggers
}
