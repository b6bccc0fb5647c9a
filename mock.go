package apikit

import (
	"net/http"
	"net/http/httptest"
)

// handlerTransport serves every request from an in-process http.Handler.
// It backs the mock instance, so tests and development runs never touch
// the network.
type handlerTransport struct {
	handler http.Handler
}

func (t *handlerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	rec := httptest.NewRecorder()
	done := make(chan struct{})

	go func() {
		t.handler.ServeHTTP(rec, req)
		close(done)
	}()

	select {
	case <-req.Context().Done():
		return nil, req.Context().Err()
	case <-done:
	}

	resp := rec.Result()
	resp.Request = req
	return resp, nil
}
