// Package events implements the generic observable-event hub described in
// spec §4.7 (component C7): an ordered observerId → handler mapping with an
// optional maximum observer count and a per-observer synchronous vs.
// fire-and-forget dispatch option. It is grounded in the teacher's
// internal/server/websocket/broadcaster.go, which fans a single producer
// event out to many concurrently-registered consumers through a
// mutex/sync.Map-protected map; ObservableEvent generalizes that shape to an
// arbitrary payload type and adds the capacity limit and dispatch-mode
// bookkeeping the teacher's Broadcaster doesn't need.
package events

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// ErrCapacityExceeded is the sentinel wrapped into the CapacityExceeded
// error returned by AddObserver once maxObserverCount observers are
// already registered.
var ErrCapacityExceeded = errors.New("events: capacity exceeded")

// DispatchMode selects how a single observer's handler is invoked from
// Notify.
type DispatchMode int

const (
	// RunHandlerSynchronously awaits the handler before Notify returns.
	RunHandlerSynchronously DispatchMode = iota
	// RunHandlerAsynchronously dispatches the handler fire-and-forget;
	// panics and errors inside it never reach the notifier.
	RunHandlerAsynchronously
)

// ObserverOptions configures a single AddObserver call.
type ObserverOptions struct {
	Dispatch    DispatchMode
	Description string
}

type observer[T any] struct {
	id      string
	handler func(T)
	opts    ObserverOptions
}

// ObservableEvent is a typed notification channel with dynamic observer
// registration, per spec §3/§4.7. The zero value is not usable; construct
// with New.
type ObservableEvent[T any] struct {
	mu               sync.Mutex
	observers        []observer[T]
	maxObserverCount int
}

// New creates an ObservableEvent. maxObserverCount of 0 means unlimited.
func New[T any](maxObserverCount int) *ObservableEvent[T] {
	return &ObservableEvent[T]{maxObserverCount: maxObserverCount}
}

// AddObserver registers handler and returns an opaque observer token usable
// with RemoveObserver. It fails with a wrapped ErrCapacityExceeded once
// maxObserverCount observers are already registered.
func (e *ObservableEvent[T]) AddObserver(handler func(T), opts ObserverOptions) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.maxObserverCount > 0 && len(e.observers) >= e.maxObserverCount {
		unit := "handler."
		if e.maxObserverCount != 1 {
			unit = "handlers."
		}
		return "", fmt.Errorf("%w: This observable event only allows %d %s", ErrCapacityExceeded, e.maxObserverCount, unit)
	}

	id := uuid.NewString()
	e.observers = append(e.observers, observer[T]{id: id, handler: handler, opts: opts})
	return id, nil
}

// RemoveObserver unregisters the observer with the given token. Removing an
// unknown or already-removed token is a no-op.
func (e *ObservableEvent[T]) RemoveObserver(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, o := range e.observers {
		if o.id == id {
			e.observers = append(e.observers[:i], e.observers[i+1:]...)
			return
		}
	}
}

// Count returns the number of currently registered observers.
func (e *ObservableEvent[T]) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.observers)
}

// Notify delivers arg to every observer registered at the time Notify is
// called, in insertion order. Synchronous observers run (and are awaited)
// in that order; fire-and-forget observers are started in that order but
// may complete in any order and their panics are recovered and swallowed,
// matching spec §4.7/§7 ("Observer exceptions in fire-and-forget mode are
// swallowed").
func (e *ObservableEvent[T]) Notify(arg T) {
	e.mu.Lock()
	snapshot := make([]observer[T], len(e.observers))
	copy(snapshot, e.observers)
	e.mu.Unlock()

	for _, o := range snapshot {
		switch o.opts.Dispatch {
		case RunHandlerAsynchronously:
			go func(o observer[T]) {
				defer func() { _ = recover() }()
				o.handler(arg)
			}(o)
		default:
			// Synchronous observers are not recovered: per spec §7, a
			// panic here propagates to the notifier and aborts this
			// Notify call, letting the connection's receive loop
			// terminate through its normal finalization path.
			o.handler(arg)
		}
	}
}
