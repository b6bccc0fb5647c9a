package apikit

import (
	"errors"
	"fmt"
)

// ErrScopeClosed is returned when a request is issued on a closed Scope.
var ErrScopeClosed = errors.New("scope closed")

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	Code      int
	Status    string
	Body      []byte
	RequestID string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request error: status %s, body: %s", e.Status, string(e.Body))
}

// AsStatusError unwraps err into a *StatusError if one is present.
func AsStatusError(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
