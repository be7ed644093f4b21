package executor

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolExecutorRunsTasksInOrder(t *testing.T) {
	e := NewPoolExecutor(8)
	defer e.Close()

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		i := i
		wg.Add(1)
		require.NoError(t, e.Schedule(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			wg.Done()
		}))
	}
	wg.Wait()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestPoolExecutorRunAndWaitBlocksUntilDone(t *testing.T) {
	e := NewPoolExecutor(1)
	defer e.Close()

	var done int32
	require.NoError(t, e.RunAndWait(func() {
		atomic.StoreInt32(&done, 1)
	}))
	assert.Equal(t, int32(1), done)
}

func TestPoolExecutorCloseDrainsPending(t *testing.T) {
	e := NewPoolExecutor(8)
	var ran int32
	for i := 0; i < 5; i++ {
		require.NoError(t, e.Schedule(func() {
			atomic.AddInt32(&ran, 1)
		}))
	}
	e.Close()
	assert.Equal(t, int32(5), ran)
}

func TestPoolExecutorRejectsAfterClose(t *testing.T) {
	e := NewPoolExecutor(1)
	e.Close()
	err := e.Schedule(func() {})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestInlineExecutorRunsSynchronously(t *testing.T) {
	e := NewInlineExecutor()
	ran := false
	require.NoError(t, e.Schedule(func() { ran = true }))
	assert.True(t, ran)
}

func TestInlineExecutorRejectsAfterClose(t *testing.T) {
	e := NewInlineExecutor()
	e.Close()
	err := e.RunAndWait(func() {})
	assert.ErrorIs(t, err, ErrClosed)
}
