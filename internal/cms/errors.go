package cms

import "fmt"

// RemoteError is a non-2xx response from the content API. Callers must
// treat it as "could not fetch", never as "no results".
type RemoteError struct {
	Status     int
	Collection Collection
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("content API error for %s (status %d)", e.Collection, e.Status)
}

// TransportError is a network-level failure reaching the content API
// (DNS, timeout, refused connection).
type TransportError struct {
	Collection Collection
	Err        error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("content API unreachable for %s: %v", e.Collection, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
