package kvrouter

import "fmt"

// MissingFieldError reports a required form field that was absent from an
// inbound request.
type MissingFieldError struct {
	Command string
	Field   string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: missing field %q", e.Command, e.Field)
}

// BackendError wraps a transport failure talking to the backend.
type BackendError struct {
	Target BackendTarget
	Err    error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend %s: %v", e.Target.Addr(), e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}
