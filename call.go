package apikit

import (
	"context"
)

// Call is a cancellable handle for an in-flight request.
type Call struct {
	cancel context.CancelFunc
	done   chan struct{}
	res    *Response
	err    error
}

// Start dispatches the request in the background and returns a handle for
// it. The request goes through the same path as the blocking verbs, so
// hooks and logging behave identically.
func (c *Client) Start(ctx context.Context, req Request) *Call {
	cctx, cancel := context.WithCancel(ctx)
	call := &Call{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer cancel()
		call.res, call.err = c.Do(cctx, req)
		close(call.done)
	}()

	return call
}

// Cancel aborts the request. Safe to call at any time, including after
// completion.
func (c *Call) Cancel() {
	c.cancel()
}

// Done is closed when the request has completed or was cancelled.
func (c *Call) Done() <-chan struct{} {
	return c.done
}

// Finished reports whether the request has completed.
func (c *Call) Finished() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the request completes and returns its result.
func (c *Call) Wait() (*Response, error) {
	<-c.done
	return c.res, c.err
}
