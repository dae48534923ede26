package observability

import (
	"fmt"
	"runtime/debug"
)

// RecoverPanic recovers from a panic and logs it with its stack trace.
// It must be called directly in a defer statement:
//
//	go func() {
//	    defer observability.RecoverPanic(logger, "health server")
//	    ...
//	}()
//
// The panic is not re-raised.
func RecoverPanic(logger *Logger, where string) {
	if r := recover(); r != nil {
		logPanic(logger, where, r)
	}
}

// PanicError converts a recovered value into an error, logging the stack.
// Returns nil when r is nil.
func PanicError(logger *Logger, where string, r interface{}) error {
	if r == nil {
		return nil
	}
	logPanic(logger, where, r)
	return fmt.Errorf("panic in %s: %v", where, r)
}

func logPanic(logger *Logger, where string, r interface{}) {
	logger.WithField("panic", fmt.Sprint(r)).
		WithField("stack", string(debug.Stack())).
		WithField("context", where).
		Error("PANIC recovered")
}
