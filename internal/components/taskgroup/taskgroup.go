// Package taskgroup runs independent tasks with a bound on how many run at once. A
// task never fails the group, whatever it needs to report is part of its value.
package taskgroup

import (
	"smartx-backend/internal/components/assert"

	"golang.org/x/sync/errgroup"
)

type Group struct {
	eg errgroup.Group
}

// New creates a group that runs at most limit tasks at the same time.
func New(limit int) *Group {
	assert.Positive(limit)
	g := &Group{}
	g.eg.SetLimit(limit)
	return g
}

// Future is the eventual value of a task.
type Future[T any] struct {
	done  chan struct{}
	value T
}

// Go starts fn in the group, it blocks while the group is at its limit.
func Go[T any](g *Group, fn func() T) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	g.eg.Go(func() error {
		defer close(f.done)
		f.value = fn()
		return nil
	})
	return f
}

// Wait blocks until every task started in the group has returned.
func (g *Group) Wait() {
	_ = g.eg.Wait()
}

// Get blocks until the task has returned and returns its value.
func (f *Future[T]) Get() T {
	<-f.done
	return f.value
}
