// Package eventloop implements the cooperative event loop the host runs on.
// All engine work happens on the goroutine that called Start; other
// goroutines hand work to the loop through callbacks registered with
// RegisterCallback.
package eventloop

import (
	"fmt"
	"sync"

	"github.com/grafana/sobek"
)

// An EventLoop runs queued callbacks on a single goroutine until the queue is
// empty and nothing registered is still outstanding.
//
// It also tracks unhandled promise rejections in the runtime it was created
// with: if an iteration of the loop ends with a rejected promise that nothing
// handled, Start returns an error, similar to what node and deno do.
type EventLoop struct {
	lock                sync.Mutex
	queue               []func() error
	wakeupCh            chan struct{} // maybe use sync.Cond?
	registeredCallbacks int
	rt                  *sobek.Runtime

	// pendingPromiseRejections are rejected promises with no handler;
	// if there is something in this map at the end of a loop iteration, the
	// loop exits with an error.
	pendingPromiseRejections map[*sobek.Promise]struct{}
}

// New returns a new event loop bound to the provided runtime. The loop
// installs itself as the runtime's promise rejection tracker.
func New(rt *sobek.Runtime) *EventLoop {
	e := &EventLoop{
		wakeupCh:                 make(chan struct{}, 1),
		pendingPromiseRejections: make(map[*sobek.Promise]struct{}),
		rt:                       rt,
	}
	rt.SetPromiseRejectionTracker(e.promiseRejectionTracker)
	return e
}

func (e *EventLoop) wakeup() {
	select {
	case e.wakeupCh <- struct{}{}:
	default:
	}
}

// RegisterCallback signals to the event loop that a new callback will be
// enqueued at some future point, keeping the loop alive until then. The
// returned enqueue function must be called exactly once with the callback to
// run; it is safe to call from any goroutine.
func (e *EventLoop) RegisterCallback() (enqueueCallback func(func() error)) {
	e.lock.Lock()
	var callbackCalled bool
	e.registeredCallbacks++
	e.lock.Unlock()

	return func(f func() error) {
		e.lock.Lock()
		if callbackCalled { // this is protected by the lock on the event loop
			e.lock.Unlock()
			panic("the enqueue function of RegisterCallback was called twice")
		}
		callbackCalled = true
		e.queue = append(e.queue, f)
		e.registeredCallbacks--
		e.lock.Unlock()
		e.wakeup()
	}
}

func (e *EventLoop) promiseRejectionTracker(p *sobek.Promise, op sobek.PromiseRejectionOperation) {
	// No locking necessary here: this is only called on the loop goroutine,
	// while a queued callback is executing.
	if op == sobek.PromiseRejectionReject {
		e.pendingPromiseRejections[p] = struct{}{}
	} else { // sobek.PromiseRejectionHandle
		delete(e.pendingPromiseRejections, p)
	}
}

func (e *EventLoop) popAll() (queue []func() error, awaiting bool) {
	e.lock.Lock()
	queue = e.queue
	e.queue = make([]func() error, 0, len(queue))
	awaiting = e.registeredCallbacks != 0
	e.lock.Unlock()
	return
}

// Start runs firstCallback and then all callbacks enqueued afterwards, until
// the queue is drained and no registered callbacks remain outstanding. It
// returns the first callback error, or an error describing an unhandled
// promise rejection left at the end of an iteration. Must always be called
// from the same goroutine for a given runtime.
func (e *EventLoop) Start(firstCallback func() error) error {
	e.queue = []func() error{firstCallback}
	for {
		queue, awaiting := e.popAll()

		if len(queue) == 0 {
			if !awaiting {
				return nil
			}
			<-e.wakeupCh
			continue
		}

		for _, f := range queue {
			if err := f(); err != nil {
				return err
			}
		}

		for promise := range e.pendingPromiseRejections {
			value := promise.Result()
			if value == nil {
				value = sobek.Undefined()
			}
			// ToObject panics on undefined and null, which are perfectly
			// valid rejection values.
			if !sobek.IsUndefined(value) && !sobek.IsNull(value) {
				if stack := value.ToObject(e.rt).Get("stack"); stack != nil {
					value = stack
				}
			}
			// this is the de facto wording in both firefox and deno at least
			//nolint:stylecheck
			return fmt.Errorf("Uncaught (in promise) %s", value)
		}
	}
}

// WaitOnRegistered waits on all registered callbacks so that nothing is
// still doing work in the background after it returns. The callbacks
// themselves are discarded, not run: the loop they were meant for has
// already finished.
func (e *EventLoop) WaitOnRegistered() {
	for {
		_, awaiting := e.popAll()
		if !awaiting {
			return
		}
		<-e.wakeupCh
	}
}
