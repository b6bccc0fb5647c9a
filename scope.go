package apikit

import (
	"context"
	"net/http"
	"sync"
)

// Scope binds a Client to one owner lifetime. Every request issued through
// the scope is recorded, and Close cancels whatever is still in flight.
type Scope struct {
	client *Client

	mu     sync.RWMutex
	calls  map[uint64]context.CancelFunc
	nextID uint64
	closed bool
}

// NewScope wraps the client in a fresh scope.
func NewScope(client *Client) *Scope {
	return &Scope{
		client: client,
		calls:  make(map[uint64]context.CancelFunc),
	}
}

// Scope is a convenience for NewScope.
func (c *Client) Scope() *Scope {
	return NewScope(c)
}

// Get issues a GET request tracked by the scope.
func (s *Scope) Get(ctx context.Context, path string, params map[string]string) (*Response, error) {
	return s.do(ctx, Request{Method: http.MethodGet, Path: path, Params: params}, false)
}

// Delete issues a DELETE request tracked by the scope.
func (s *Scope) Delete(ctx context.Context, path string, params map[string]string) (*Response, error) {
	return s.do(ctx, Request{Method: http.MethodDelete, Path: path, Params: params}, false)
}

// Post issues a POST request tracked by the scope.
func (s *Scope) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return s.do(ctx, Request{Method: http.MethodPost, Path: path, Body: body}, false)
}

// Put issues a PUT request tracked by the scope.
func (s *Scope) Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return s.do(ctx, Request{Method: http.MethodPut, Path: path, Body: body}, false)
}

// Patch issues a PATCH request tracked by the scope.
func (s *Scope) Patch(ctx context.Context, path string, body interface{}) (*Response, error) {
	return s.do(ctx, Request{Method: http.MethodPatch, Path: path, Body: body}, false)
}

// SingleGet issues a deduplicated GET tracked by the scope.
func (s *Scope) SingleGet(ctx context.Context, path string, params map[string]string) (*Response, error) {
	return s.do(ctx, Request{Method: http.MethodGet, Path: path, Params: params}, true)
}

// Do issues an arbitrary request tracked by the scope.
func (s *Scope) Do(ctx context.Context, req Request) (*Response, error) {
	return s.do(ctx, req, false)
}

func (s *Scope) do(ctx context.Context, req Request, single bool) (*Response, error) {
	cctx, id, err := s.track(ctx)
	if err != nil {
		return nil, err
	}
	defer s.release(id)

	if single {
		return s.client.SingleGet(cctx, req.Path, req.Params)
	}
	return s.client.Do(cctx, req)
}

// Start issues a background request tracked by the scope. The returned
// handle is released from the scope when it completes.
func (s *Scope) Start(ctx context.Context, req Request) (*Call, error) {
	cctx, id, err := s.track(ctx)
	if err != nil {
		return nil, err
	}

	call := s.client.Start(cctx, req)
	go func() {
		<-call.Done()
		s.release(id)
	}()
	return call, nil
}

// track registers a cancellable context for one request.
func (s *Scope) track(ctx context.Context) (context.Context, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, 0, ErrScopeClosed
	}

	cctx, cancel := context.WithCancel(ctx)
	id := s.nextID
	s.nextID++
	s.calls[id] = cancel
	return cctx, id, nil
}

// release drops a completed request from the tracking map.
func (s *Scope) release(id uint64) {
	s.mu.Lock()
	if cancel, ok := s.calls[id]; ok {
		delete(s.calls, id)
		s.mu.Unlock()
		cancel()
		return
	}
	s.mu.Unlock()
}

// Outstanding returns the number of requests still in flight.
func (s *Scope) Outstanding() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.calls)
}

// Close cancels every outstanding request and rejects further ones.
// Idempotent.
func (s *Scope) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	cancels := make([]context.CancelFunc, 0, len(s.calls))
	for _, cancel := range s.calls {
		cancels = append(cancels, cancel)
	}
	outstanding := len(cancels)
	s.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}

	s.client.log.Debug().
		Int("cancelled", outstanding).
		Msg("Scope closed")
}
