package fetcher

import (
	"errors"
	"fmt"
)

var (
	ErrNetwork = errors.New("network error")
	ErrParse   = errors.New("parse error")
)

// NetworkError reports a transport failure or a non-success HTTP status.
type NetworkError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("network error [%s]: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("network error [%s]: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

// ParseError reports a response body that is not valid chart JSON.
type ParseError struct {
	URL     string
	Snippet string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error [%s]: %v snippet=%q", e.URL, e.Err, e.Snippet)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }
