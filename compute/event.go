package compute

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Event is the completion token of an asynchronous operation.
type Event interface {
	// Wait blocks until the operation has completed or ctx is done and
	// returns the operation's error.
	Wait(ctx context.Context) error

	// Done is closed when the operation has completed.
	Done() <-chan struct{}

	// Err returns the operation's error once Done is closed, nil before.
	Err() error
}

// Completion is an Event completed explicitly by its producer.
type Completion struct {
	done chan struct{}
	once sync.Once
	err  error
}

// NewCompletion returns a pending Completion.
func NewCompletion() *Completion {
	return &Completion{done: make(chan struct{})}
}

// Completed returns an Event that has already completed with err.
func Completed(err error) Event {
	c := NewCompletion()
	c.Complete(err)
	return c
}

// Complete marks the operation finished. Only the first call has effect.
func (c *Completion) Complete(err error) {
	c.once.Do(func() {
		c.err = err
		close(c.done)
	})
}

// Wait implements Event.
func (c *Completion) Wait(ctx context.Context) error {
	select {
	case <-c.done:
		return c.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done implements Event.
func (c *Completion) Done() <-chan struct{} { return c.done }

// Err implements Event.
func (c *Completion) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

// WaitAll waits for every non-nil event and returns the first error.
func WaitAll(ctx context.Context, events ...Event) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, e := range events {
		if e == nil {
			continue
		}
		g.Go(func() error { return e.Wait(ctx) })
	}
	return g.Wait()
}
