package test

import (
	"context"
	"iter"
	"sync"
	"time"
)

// Items yields the given items in order.
func Items[T any](items ...T) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for _, item := range items {
			if !yield(item, nil) {
				return
			}
		}
	}
}

// SlowProducer yields 0..n-1, sleeping delay after each item.
func SlowProducer(n int, delay time.Duration) iter.Seq2[int, error] {
	return func(yield func(int, error) bool) {
		for i := range n {
			if !yield(i, nil) {
				return
			}
			time.Sleep(delay)
		}
	}
}

// Paced yields items sleeping delay after each one.
func Paced[T any](delay time.Duration, items ...T) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for _, item := range items {
			if !yield(item, nil) {
				return
			}
			time.Sleep(delay)
		}
	}
}

// FailingProducer yields items and then fails with err. Pulled counts how
// many items were handed out.
type FailingProducer[T any] struct {
	Items []T
	Err   error

	mu     sync.Mutex
	pulled int
}

func (p *FailingProducer[T]) Seq() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for _, item := range p.Items {
			p.mu.Lock()
			p.pulled++
			p.mu.Unlock()
			if !yield(item, nil) {
				return
			}
		}
		var zero T
		yield(zero, p.Err)
	}
}

func (p *FailingProducer[T]) Pulled() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pulled
}

type pair[T comparable] struct {
	a, b T
}

// Recorder is a consumer spy. It echoes every item Repeat times (at least
// once), sleeping Delay (or DelayOf(item)) first, and keeps track of which
// items ran at the same time.
type Recorder[T comparable] struct {
	Delay   time.Duration
	DelayOf func(T) time.Duration
	Repeat  int
	Fail    map[T]error
	Panic   map[T]bool

	mu        sync.Mutex
	started   []T
	active    map[T]struct{}
	maxActive int
	overlaps  map[pair[T]]struct{}
}

func (r *Recorder[T]) Consume(ctx context.Context, item T) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		r.begin(item)
		defer r.end(item)

		delay := r.Delay
		if r.DelayOf != nil {
			delay = r.DelayOf(item)
		}
		if delay > 0 {
			time.Sleep(delay)
		}
		if r.Panic[item] {
			panic("recorder told to panic")
		}
		if err, ok := r.Fail[item]; ok {
			var zero T
			yield(zero, err)
			return
		}
		for range max(r.Repeat, 1) {
			if !yield(item, nil) {
				return
			}
		}
	}
}

func (r *Recorder[T]) begin(item T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil {
		r.active = make(map[T]struct{})
		r.overlaps = make(map[pair[T]]struct{})
	}
	for other := range r.active {
		r.overlaps[pair[T]{a: item, b: other}] = struct{}{}
		r.overlaps[pair[T]{a: other, b: item}] = struct{}{}
	}
	r.active[item] = struct{}{}
	r.started = append(r.started, item)
	r.maxActive = max(r.maxActive, len(r.active))
}

func (r *Recorder[T]) end(item T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, item)
}

// Started returns the items in the order their consumption began.
func (r *Recorder[T]) Started() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]T(nil), r.started...)
}

func (r *Recorder[T]) MaxActive() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.maxActive
}

func (r *Recorder[T]) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}

// Overlapped reports whether a and b were ever consumed at the same time.
func (r *Recorder[T]) Overlapped(a, b T) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.overlaps[pair[T]{a: a, b: b}]
	return ok
}
