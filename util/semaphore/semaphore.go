// Package semaphore implements a small counting semaphore used to bound the
// number of concurrent telemetry connections the TCP collaborator serves.
package semaphore

import (
	"fmt"
)

// Semaphore is a counting semaphore. It must be initialized with New or Init
// before use.
type Semaphore struct {
	c      chan struct{}
	closed chan struct{}
}

// New creates and initializes a new semaphore with the given capacity.
func New(size int) *Semaphore {
	obj := &Semaphore{}
	obj.Init(size)
	return obj
}

// Init initializes the semaphore in place.
func (obj *Semaphore) Init(size int) {
	obj.c = make(chan struct{}, size)
	obj.closed = make(chan struct{})
}

// Close shuts down the semaphore. Any blocked or future P calls return an
// error instead of blocking forever.
func (obj *Semaphore) Close() {
	close(obj.closed)
}

// P acquires n resources, blocking until they're available or the semaphore
// is closed.
func (obj *Semaphore) P(n int) error {
	for i := 0; i < n; i++ {
		select {
		case obj.c <- struct{}{}:
		case <-obj.closed:
			return fmt.Errorf("semaphore: closed")
		}
	}
	return nil
}

// V releases n resources previously acquired with P.
func (obj *Semaphore) V(n int) error {
	for i := 0; i < n; i++ {
		select {
		case <-obj.c:
		case <-obj.closed:
			return fmt.Errorf("semaphore: closed")
		default:
			panic("semaphore: V > P")
		}
	}
	return nil
}
