package search

import (
	"errors"
	"fmt"
)

var (
	// ErrResultsNotReady is returned when derived results are read before
	// the query has been fetched.
	ErrResultsNotReady = errors.New("results not fetched yet")

	// ErrNoTransport is returned when a query without a searcher, or a
	// searcher without a transport, is asked to fetch.
	ErrNoTransport = errors.New("no transport configured")
)

// TransportError wraps a failed select call with the request it carried.
type TransportError struct {
	RequestID string
	Params    string
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("select %s: %v", e.RequestID, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransportError reports whether err came from the transport.
// Uses errors.As to handle wrapped errors.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
