// Package mockapi builds small canned-response API servers, for tests and
// for the mock instance of the client.
package mockapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gorilla/mux"
	"github.com/justinas/alice"
	"github.com/rs/zerolog/log"
)

// Server is a canned-response API built from stubbed routes.
type Server struct {
	router *mux.Router
	chain  alice.Chain
	srv    *httptest.Server
}

// New creates an empty mock API. Routes are added with Stub.
func New() *Server {
	return &Server{
		router: mux.NewRouter(),
		chain:  alice.New(requestLogger, jsonContentType),
	}
}

// Stub registers a route answering with the given status and body. A []byte
// or string body is written verbatim, anything else is JSON-encoded.
// Returns the server for chaining.
func (s *Server) Stub(method, path string, status int, body interface{}) *Server {
	payload := encodeBody(body)
	s.router.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		if len(payload) > 0 {
			_, _ = w.Write(payload)
		}
	}).Methods(method)
	return s
}

// StubFunc registers a route with a custom handler.
func (s *Server) StubFunc(method, path string, fn http.HandlerFunc) *Server {
	s.router.HandleFunc(path, fn).Methods(method)
	return s
}

// Handler returns the middleware-wrapped handler, usable directly as the
// client's mock handler.
func (s *Server) Handler() http.Handler {
	return s.chain.Then(s.router)
}

// Start runs the mock API on a local listener.
func (s *Server) Start() *Server {
	s.srv = httptest.NewServer(s.Handler())
	log.Debug().Str("url", s.srv.URL).Msg("Mock API started")
	return s
}

// URL returns the base URL of a started server.
func (s *Server) URL() string {
	if s.srv == nil {
		return ""
	}
	return s.srv.URL
}

// Close shuts the listener down.
func (s *Server) Close() {
	if s.srv != nil {
		s.srv.Close()
	}
}

func encodeBody(body interface{}) []byte {
	switch v := body.(type) {
	case nil:
		return nil
	case []byte:
		return v
	case string:
		return []byte(v)
	default:
		payload, err := json.Marshal(v)
		if err != nil {
			log.Error().Err(err).Msg("Failed to encode stub body")
			return nil
		}
		return payload
	}
}

// requestLogger logs every request served by the mock API.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("Mock API request")
	})
}

// jsonContentType sets the default content type for stub responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}
