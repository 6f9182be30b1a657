package common

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync/atomic"

	"github.com/ternarybob/arbor"
)

var goroutineCounter int64

// GetGoroutineCount returns the number of goroutines spawned via SafeGo or
// SafeGoWithContext, for diagnostics.
func GetGoroutineCount() int64 {
	return atomic.LoadInt64(&goroutineCounter)
}

// SafeGo runs fn in a goroutine with panic recovery: a panic is logged and
// the goroutine exits, but the process keeps running. Used for worker-pool
// tasks where one bad record must not take down the whole build or serve
// process.
func SafeGo(logger arbor.ILogger, name string, fn func()) {
	atomic.AddInt64(&goroutineCounter, 1)
	go func() {
		defer recoverAndLog(logger, name)
		fn()
	}()
}

// SafeGoWithContext is SafeGo with an early exit if ctx is already done
// before fn starts.
func SafeGoWithContext(ctx context.Context, logger arbor.ILogger, name string, fn func()) {
	atomic.AddInt64(&goroutineCounter, 1)
	go func() {
		defer recoverAndLog(logger, name)
		select {
		case <-ctx.Done():
			if logger != nil {
				logger.Debug().Str("goroutine", name).Msg("goroutine cancelled before start")
			}
			return
		default:
		}
		fn()
	}()
}

func recoverAndLog(logger arbor.ILogger, name string) {
	if r := recover(); r != nil {
		buf := make([]byte, 4096)
		n := runtime.Stack(buf, false)
		stackTrace := string(buf[:n])
		if logger != nil {
			logger.Error().
				Str("goroutine", name).
				Str("panic", fmt.Sprintf("%v", r)).
				Str("stack", stackTrace).
				Msg("recovered from panic in goroutine")
		} else {
			fmt.Fprintf(os.Stderr, "panic in goroutine %s: %v\n%s\n", name, r, stackTrace)
		}
	}
}
