package cart

import (
	"context"
	"errors"
	"sync"
)

// ErrSerializerClosed is returned by Do after Close.
var ErrSerializerClosed = errors.New("cart serializer closed")

type job struct {
	ctx  context.Context
	fn   func(context.Context) error
	done chan error
}

// Serializer runs jobs one at a time per key, in submission order. Jobs for
// different keys run concurrently. A drain goroutine exists per key only
// while that key has queued work.
type Serializer struct {
	mu     sync.Mutex
	queues map[string][]job
	closed bool
	wg     sync.WaitGroup
}

// NewSerializer creates an empty Serializer.
func NewSerializer() *Serializer {
	return &Serializer{queues: make(map[string][]job)}
}

// Do queues fn behind every earlier job for key and waits for its result.
// A job whose context is done by the time it is reached is skipped and
// reports the context error.
func (s *Serializer) Do(ctx context.Context, key string, fn func(context.Context) error) error {
	j := job{ctx: ctx, fn: fn, done: make(chan error, 1)}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSerializerClosed
	}
	queue, running := s.queues[key]
	s.queues[key] = append(queue, j)
	if !running {
		s.wg.Add(1)
		go s.drain(key)
	}
	s.mu.Unlock()

	return <-j.done
}

// drain runs the queue of key until it is empty. The key stays in the map
// while drain runs, which tells Do not to start a second drainer.
func (s *Serializer) drain(key string) {
	defer s.wg.Done()
	for {
		s.mu.Lock()
		queue := s.queues[key]
		if len(queue) == 0 {
			delete(s.queues, key)
			s.mu.Unlock()
			return
		}
		j := queue[0]
		s.queues[key] = queue[1:]
		s.mu.Unlock()

		if err := j.ctx.Err(); err != nil {
			j.done <- err
			continue
		}
		j.done <- j.fn(j.ctx)
	}
}

// Close rejects new jobs and waits for queued ones to finish or for ctx to
// end.
func (s *Serializer) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
