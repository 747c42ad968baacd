package httpexec

import "fmt"

// ErrorKind classifies request failures
type ErrorKind int

const (
	// KindTransport is a network failure with no response received
	KindTransport ErrorKind = iota
	// KindTimeout means no response arrived within the configured duration
	KindTimeout
	// KindHTTP is a response-level failure (non-2xx with a body)
	KindHTTP
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindTimeout:
		return "timeout"
	case KindHTTP:
		return "http"
	default:
		return "unknown"
	}
}

// RequestError is the structured error returned by the execution
// collaborator, carrying the failure class and the HTTP status code when
// one was observed.
type RequestError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether err is a request timeout
func IsTimeout(err error) bool {
	re, ok := err.(*RequestError)
	return ok && re.Kind == KindTimeout
}
