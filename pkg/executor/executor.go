// Package executor provides the pluggable scheduling abstraction an
// Interface uses to guarantee a single logical ownership thread (spec.md
// §5, §9 "Pluggable executor"): PoolExecutor serializes work onto one
// background goroutine for production use; InlineExecutor runs tasks
// synchronously on the calling goroutine for deterministic tests.
package executor

import "errors"

// ErrClosed is returned by Schedule/RunAndWait once Close has been called.
var ErrClosed = errors.New("executor: closed")

// Executor serializes task execution. Schedule submits work without
// waiting for it to run; RunAndWait submits work and blocks until it has
// completed, the primitive spec.md §9 recommends in place of open-coded
// semaphore hand-offs.
type Executor interface {
	Schedule(task func()) error
	RunAndWait(task func()) error
	Close()
}
