package internal

import "sync"

var (
	defaultOnce    sync.Once
	defaultRuntime *Runtime
)

// GetRuntime returns the process wide runtime used when no runtime is given explicitly.
func GetRuntime() *Runtime {
	defaultOnce.Do(func() {
		defaultRuntime = NewRuntime(Config{})
	})

	return defaultRuntime
}
