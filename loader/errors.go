package loader

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrUnresolved matches every *ResolutionError.
var ErrUnresolved = errors.New("ontology not resolved")

// ErrTooLarge is returned for documents larger than the fetch limit.
var ErrTooLarge = errors.New("document too large")

// ResolutionError reports an identifier that could not be turned into a
// document, with every location that was tried.
type ResolutionError struct {
	Identifier string
	Tried      []string
	Err        error
}

func (e *ResolutionError) Error() string {
	msg := fmt.Sprintf("resolve ontology %q", e.Identifier)
	if len(e.Tried) > 0 {
		msg += " (tried " + strings.Join(e.Tried, ", ") + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// Is reports whether target is ErrUnresolved.
func (e *ResolutionError) Is(target error) bool { return target == ErrUnresolved }

// HTTPError is returned by HTTPFetcher for non-200 responses.
type HTTPError struct {
	URL        string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("fetch %s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// NotFound reports whether the server said the document does not exist.
func (e *HTTPError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound || e.StatusCode == http.StatusGone
}

var errNoDocument = errors.New("no document found")
