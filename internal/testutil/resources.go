package testutil

import (
	"testing"

	"go.uber.org/goleak"
)

// VerifyNoLeaks fails t if goroutines are still running when it is called.
// Defer it at the top of tests that exercise file handles or loggers.
func VerifyNoLeaks(t *testing.T) {
	t.Helper()
	goleak.VerifyNone(t, defaultOptions()...)
}

// VerifyTestMain runs a package's tests and then checks for leaked
// goroutines.
func VerifyTestMain(m *testing.M) {
	goleak.VerifyTestMain(m, defaultOptions()...)
}

// defaultOptions ignores goroutines owned by the test framework
func defaultOptions() []goleak.Option {
	return []goleak.Option{
		goleak.IgnoreTopFunction("testing.tRunner.func1"),
		goleak.IgnoreTopFunction("testing.runTests"),
		goleak.IgnoreTopFunction("testing.(*M).Run"),
		goleak.IgnoreTopFunction("go.uber.org/goleak.(*opts).retry"),
		// lumberjack starts its mill goroutine lazily and never stops it.
		goleak.IgnoreAnyFunction("gopkg.in/natefinch/lumberjack%2ev2.(*Logger).millRun"),
	}
}
