package apikit

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Response is the decoded result of a dispatched request.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
	Duration   time.Duration
	RequestID  string
}

// Into unmarshals the response body as JSON into v.
func (r *Response) Into(v interface{}) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}

// String returns the raw body as a string.
func (r *Response) String() string {
	return string(r.Body)
}
