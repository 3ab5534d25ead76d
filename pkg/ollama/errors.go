package ollama

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrEmptyPull is wrapped in a DecodeError when a pull response carries no
// non-empty lines.
var ErrEmptyPull = errors.New("pull response contained no status lines")

// TransportError is returned when the HTTP exchange could not complete:
// DNS failure, refused connection, reset, or a deadline on the caller's context.
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: request to %s failed: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RequestError is returned when the server answers with a non-2xx status.
// StatusCode is the only discriminator; Message holds the server's error text
// when the body carried one.
type RequestError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: HTTP error! status: %d: %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: HTTP error! status: %d", e.Op, e.StatusCode)
}

// DecodeError is returned when a response body is not valid JSON. A well-formed
// document whose fields differ from the response type is not an error.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: decode response: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeError is returned before anything is sent when the request body cannot
// be built, for example an Options.Extra value that has no JSON form.
type EncodeError struct {
	Op  string
	Err error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("%s: encode request: %v", e.Op, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

var (
	_ error = (*TransportError)(nil)
	_ error = (*RequestError)(nil)
	_ error = (*DecodeError)(nil)
	_ error = (*EncodeError)(nil)
)

// StatusCode returns the HTTP status carried by a RequestError anywhere in err's chain.
func StatusCode(err error) (int, bool) {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.StatusCode, true
	}
	return 0, false
}

// IsNotFound reports whether err is a 404 from the server, which is how an
// unknown model is reported.
func IsNotFound(err error) bool {
	code, ok := StatusCode(err)
	return ok && code == http.StatusNotFound
}

// IsTransport reports whether err is a network-level failure.
func IsTransport(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}

// IsDecode reports whether err is a malformed response body.
func IsDecode(err error) bool {
	var decodeErr *DecodeError
	return errors.As(err, &decodeErr)
}

// IsEncode reports whether err is a request body that could not be built.
func IsEncode(err error) bool {
	var encodeErr *EncodeError
	return errors.As(err, &encodeErr)
}
