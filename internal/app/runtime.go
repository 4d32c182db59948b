package app

import (
	"os"
	"strconv"
	"sync"
	"sync/atomic"
)

// TestModeEnv disables runtime startup in binaries when set to a true value.
const TestModeEnv = "STOCKREVIEW_TEST_MODE"

var (
	testMode     atomic.Bool
	testModeOnce sync.Once
)

func readTestMode() {
	enabled, _ := strconv.ParseBool(os.Getenv(TestModeEnv))
	testMode.Store(enabled)
}

// InTestMode reports whether binaries should skip servers and background work.
func InTestMode() bool {
	testModeOnce.Do(readTestMode)
	return testMode.Load()
}

// RefreshTestMode re-reads the environment after it changed.
func RefreshTestMode() {
	testModeOnce.Do(func() {})
	readTestMode()
}
