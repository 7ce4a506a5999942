// Package task manages the goroutines owned by a client instance.
//
// A Manager starts looping tasks bound to a cancellable context, stops them cooperatively
// and joins them. After Wait returns the Manager can start new tasks again, which lets a
// client reuse one Manager for every connection attempt.
package task

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/arloliu/go-zusi/logger"
)

// ErrStopped is returned when a task is started on a stopped Manager.
var ErrStopped = errors.New("task manager already stopped")

// TaskFunc represents one iteration of a task.
// It should return true to continue running the task, or false to stop the goroutine.
type TaskFunc func() bool

// TaskCancelFunc is called when a task goroutine exits, whatever the reason.
type TaskCancelFunc func()

// Manager manages the lifecycle of task goroutines.
//
// Example Usage:
//
//	taskMgr := task.NewManager(ctx, logger)
//
//	_ = taskMgr.Start("reader", func() bool {
//	    // ... one iteration ...
//	    return true
//	})
//
//	taskMgr.Stop()
//	taskMgr.Wait()
type Manager struct {
	pctx   context.Context
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger logger.Logger
	count  atomic.Int32
	mu     sync.RWMutex // protect ctx and cancel
	taskMu sync.RWMutex // protect task creation during Wait()
}

// NewManager creates a new Manager with the given context as the parent context.
func NewManager(ctx context.Context, l logger.Logger) *Manager {
	mgr := &Manager{pctx: ctx, logger: l}
	mgr.ctx, mgr.cancel = context.WithCancel(ctx)

	return mgr
}

// Context returns the context of the currently running generation of tasks.
func (mgr *Manager) Context() context.Context {
	mgr.mu.RLock()
	defer mgr.mu.RUnlock()

	return mgr.ctx
}

// Start starts a new goroutine running taskFunc until it returns false or the Manager is stopped.
func (mgr *Manager) Start(name string, taskFunc TaskFunc) error {
	return mgr.StartWithCancel(name, taskFunc, nil)
}

// StartWithCancel starts a new goroutine like Start. taskCancelFunc is called when the goroutine exits.
func (mgr *Manager) StartWithCancel(name string, taskFunc TaskFunc, taskCancelFunc TaskCancelFunc) error {
	if taskFunc == nil {
		return fmt.Errorf("task %s: nil task function", name)
	}

	mgr.taskMu.RLock()
	defer mgr.taskMu.RUnlock()

	ctx := mgr.Context()
	if ctx.Err() != nil {
		return fmt.Errorf("start %s: %w", name, ErrStopped)
	}

	mgr.logger.Debug("start task", "name", name)

	mgr.wg.Add(1)
	mgr.count.Add(1)

	go func() {
		defer func() {
			mgr.count.Add(-1)
			mgr.wg.Done()
			mgr.logger.Debug("task terminated", "name", name, "task_count", mgr.TaskCount())
		}()

		if taskCancelFunc != nil {
			defer mgr.callWithRecover(name, taskCancelFunc)
		}

		mgr.runTaskLoop(ctx, name, taskFunc)
	}()

	return nil
}

// Stop signals all running goroutines to terminate.
func (mgr *Manager) Stop() {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	if mgr.cancel != nil {
		mgr.cancel()
	}
}

// Wait waits for all goroutines to terminate and prepares the Manager for the next generation of tasks.
func (mgr *Manager) Wait() {
	mgr.taskMu.Lock()
	defer mgr.taskMu.Unlock()

	mgr.wg.Wait()

	mgr.mu.Lock()
	mgr.cancel()
	mgr.ctx, mgr.cancel = context.WithCancel(mgr.pctx)
	mgr.mu.Unlock()
}

// TaskCount returns the number of currently running goroutines.
func (mgr *Manager) TaskCount() int {
	return int(mgr.count.Load())
}

func (mgr *Manager) callWithRecover(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			mgr.logger.Error("panic in task", "name", name, "panic", r)
		}
	}()

	fn()
}

// runTaskLoop runs a task function in a loop with context cancellation.
func (mgr *Manager) runTaskLoop(ctx context.Context, name string, taskFunc TaskFunc) {
	defer func() {
		if r := recover(); r != nil {
			mgr.logger.Error("panic in task loop", "name", name, "panic", r)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			if !taskFunc() {
				return
			}
		}
	}
}
