package executor

import "sync"

// InlineExecutor runs every task synchronously on the calling goroutine,
// grounded on the reference test harness's SyncExecutor/FakeExecutionThread
// (there implemented with a blocking queue and a semaphore hand-off per
// task; here the calling goroutine already is the executor, so no hand-off
// is needed). Used by tests that need deterministic ordering.
type InlineExecutor struct {
	mu     sync.Mutex
	closed bool
}

// NewInlineExecutor constructs a ready-to-use InlineExecutor.
func NewInlineExecutor() *InlineExecutor {
	return &InlineExecutor{}
}

// Schedule runs task immediately, before returning.
func (e *InlineExecutor) Schedule(task func()) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	task()
	return nil
}

// RunAndWait is identical to Schedule: the calling goroutine already waits
// for task to complete.
func (e *InlineExecutor) RunAndWait(task func()) error {
	return e.Schedule(task)
}

// Close marks the executor closed; later Schedule/RunAndWait calls return
// ErrClosed.
func (e *InlineExecutor) Close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
}
