package compute

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCompletion(t *testing.T) {
	c := NewCompletion()
	if c.Err() != nil {
		t.Fatal("pending completion reports an error")
	}
	select {
	case <-c.Done():
		t.Fatal("pending completion is done")
	default:
	}

	boom := errors.New("boom")
	c.Complete(boom)
	c.Complete(nil)

	if err := c.Wait(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Wait() = %v, want %v", err, boom)
	}
	if !errors.Is(c.Err(), boom) {
		t.Errorf("Err() = %v, want %v", c.Err(), boom)
	}
}

func TestCompletionWaitContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := NewCompletion().Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() = %v, want DeadlineExceeded", err)
	}
}

func TestWaitAll(t *testing.T) {
	a, b := NewCompletion(), NewCompletion()
	go func() {
		a.Complete(nil)
		b.Complete(nil)
	}()
	if err := WaitAll(context.Background(), a, nil, b, Completed(nil)); err != nil {
		t.Errorf("WaitAll() = %v", err)
	}

	boom := errors.New("boom")
	if err := WaitAll(context.Background(), Completed(nil), Completed(boom)); !errors.Is(err, boom) {
		t.Errorf("WaitAll() = %v, want %v", err, boom)
	}
	if err := WaitAll(context.Background()); err != nil {
		t.Errorf("WaitAll() with no events = %v", err)
	}
}
