package upstream

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownProvider  = errors.New("unknown provider")
	ErrUnknownOperation = errors.New("unknown operation")
	ErrMissingParam     = errors.New("missing request parameter")
)

// StatusError is returned when a provider answers with a non-2xx status
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider returned status %d for %s", e.Code, e.URL)
}
