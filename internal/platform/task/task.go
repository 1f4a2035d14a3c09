// Package task modela una operación asíncrona cuyo resultado se espera
// explícitamente (en vez de callbacks fire-and-forget).
package task

import (
	"context"
	"fmt"
	"sync"
)

type Task[T any] struct {
	done   chan struct{}
	cancel context.CancelFunc

	once sync.Once
	val  T
	err  error
}

// Go lanza fn en una goroutine. El ctx que recibe fn se cancela con Cancel().
func Go[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) *Task[T] {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task[T]{
		done:   make(chan struct{}),
		cancel: cancel,
	}

	go func() {
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				t.finish(*new(T), fmt.Errorf("task panic: %v", r))
			}
		}()
		v, err := fn(ctx)
		t.finish(v, err)
	}()

	return t
}

// Done devuelve un valor ya resuelto (útil en tests y fallbacks).
func Done[T any](v T, err error) *Task[T] {
	t := &Task[T]{
		done:   make(chan struct{}),
		cancel: func() {},
	}
	t.finish(v, err)
	return t
}

func (t *Task[T]) finish(v T, err error) {
	t.once.Do(func() {
		t.val = v
		t.err = err
		close(t.done)
	})
}

// Wait bloquea hasta que la tarea termina o ctx se cancela.
func (t *Task[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		return t.val, t.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Peek no bloquea; ok=false si todavía no terminó.
func (t *Task[T]) Peek() (T, bool, error) {
	select {
	case <-t.done:
		return t.val, true, t.err
	default:
		var zero T
		return zero, false, nil
	}
}

// Cancel cancela el ctx de fn. No espera a que termine.
func (t *Task[T]) Cancel() {
	t.cancel()
}
