// Package task runs the long-lived goroutines of the bridge under one cancellable scope.
package task

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arloliu/go-plcbridge/logger"
)

// ErrStopped is returned when a task is started on a stopped Manager.
var ErrStopped = errors.New("task manager already stopped")

// ErrPanic is passed to the exit handler of a task that panicked.
var ErrPanic = errors.New("task panicked")

// Func is the body of a task. It should run until ctx is done and return nil,
// or return an error when it can't continue.
type Func func(ctx context.Context) error

// ExitFunc is invoked once when a task returns; err is the task result,
// an ErrPanic wrapped error if the task panicked, or nil.
type ExitFunc func(err error)

// Manager manages the lifecycle of goroutines (tasks).
//
// All tasks share one context derived from the parent context given to NewManager.
// Stop cancels that context, and Wait blocks until every task has returned.
//
// Example Usage:
//
//	mgr := task.NewManager(ctx, logger)
//
//	_ = mgr.Go("plc-0", worker.Run, nil)
//	_ = mgr.GoInterval("status", 3*time.Second, false, report)
//
//	// ... run until shutdown ...
//
//	mgr.Stop()
//	mgr.Wait()
type Manager struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger logger.Logger
	count  atomic.Int32
	mu     sync.Mutex // protects wg.Add against Wait after Stop
}

// NewManager creates a Manager whose tasks are cancelled when ctx is done.
func NewManager(ctx context.Context, l logger.Logger) *Manager {
	if l == nil {
		l = logger.GetLogger()
	}
	mgr := &Manager{logger: l}
	mgr.ctx, mgr.cancel = context.WithCancel(ctx)

	return mgr
}

// Context returns the context shared by all tasks.
func (mgr *Manager) Context() context.Context {
	return mgr.ctx
}

// Go starts fn in a new goroutine named name. onExit may be nil.
func (mgr *Manager) Go(name string, fn Func, onExit ExitFunc) error {
	if fn == nil {
		return fmt.Errorf("task %s: nil task function", name)
	}

	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	if mgr.ctx.Err() != nil {
		return fmt.Errorf("task %s: %w", name, ErrStopped)
	}

	mgr.wg.Add(1)
	mgr.count.Add(1)

	go func() {
		defer mgr.wg.Done()
		defer mgr.count.Add(-1)

		err := mgr.callWithRecover(name, fn)
		mgr.logger.Debug("task terminated", "name", name, "error", err, "task_count", mgr.TaskCount()-1)

		if onExit != nil {
			onExit(err)
		}
	}()

	return nil
}

// GoInterval starts a task that calls fn every interval until the manager stops.
// If runNow is true, fn is also called once immediately.
func (mgr *Manager) GoInterval(name string, interval time.Duration, runNow bool, fn func(ctx context.Context)) error {
	if interval <= 0 {
		return fmt.Errorf("task %s: invalid interval %v", name, interval)
	}
	if fn == nil {
		return fmt.Errorf("task %s: nil task function", name)
	}

	return mgr.Go(name, func(ctx context.Context) error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		if runNow {
			fn(ctx)
		}

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				fn(ctx)
			}
		}
	}, nil)
}

// Stop signals all running tasks to terminate.
func (mgr *Manager) Stop() {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	mgr.cancel()
}

// Wait waits for all tasks to terminate.
func (mgr *Manager) Wait() {
	mgr.wg.Wait()
}

// TaskCount returns the number of currently running tasks.
func (mgr *Manager) TaskCount() int {
	return int(mgr.count.Load())
}

func (mgr *Manager) callWithRecover(name string, fn Func) (err error) {
	defer func() {
		if r := recover(); r != nil {
			mgr.logger.Error("panic in task", "name", name, "panic", r)
			err = fmt.Errorf("task %s: %w: %v", name, ErrPanic, r)
		}
	}()

	return fn(mgr.ctx)
}
