// Copyright 2024 The nope-gpu Authors. All rights reserved.

// Package worker implements the single-goroutine command queue
// spec §5 describes: a dedicated goroutine that owns a gpu.Context
// and drains a queue of closures, so callers on other goroutines
// never touch the context (and the OpenGL/Vulkan thread-affinity
// constraints that implies) directly.
package worker

// Worker runs queued closures on one dedicated goroutine, started
// by New and stopped by Close.
type Worker struct {
	fn   chan func()
	stop chan struct{}
	done chan struct{}
}

// New starts a Worker's goroutine and returns it.
func New() *Worker {
	w := &Worker{
		fn:   make(chan func()),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *Worker) run() {
	defer close(w.done)
	for {
		select {
		case f := <-w.fn:
			f()
		case <-w.stop:
			return
		}
	}
}

// Do enqueues f to run on the worker goroutine and blocks until it
// has completed. It must not be called from within another closure
// already running on the same Worker (that would deadlock).
func (w *Worker) Do(f func()) {
	done := make(chan struct{})
	w.fn <- func() {
		f()
		close(done)
	}
	<-done
}

// Go enqueues f to run on the worker goroutine without waiting for
// it to complete, matching the fire-and-forget half of spec §5's
// command-queue model (e.g. a submit whose result is collected
// later through its own completion channel).
func (w *Worker) Go(f func()) {
	w.fn <- f
}

// Close stops the worker goroutine once its queue drains. Close
// must not be called concurrently with Do or Go, and the Worker
// must not be used afterwards.
func (w *Worker) Close() {
	close(w.stop)
	<-w.done
}
