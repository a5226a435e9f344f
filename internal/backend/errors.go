package backend

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// KindBackend covers transport failures and error responses.
	KindBackend Kind = iota
	// KindTimeout means the call did not finish within the configured deadline.
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	default:
		return "backend"
	}
}

var ErrTimeout = errors.New("backend call timed out")

// Error is returned by every Client call that fails.
type Error struct {
	Kind Kind
	Op   string
	// Status is the HTTP status of an error response, zero otherwise.
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s error (status %d): %v", e.Op, e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether err is a backend timeout.
func IsTimeout(err error) bool {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind == KindTimeout
	}
	return errors.Is(err, ErrTimeout)
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var be *Error
	if errors.As(err, &be) {
		return err
	}
	return &Error{Kind: KindBackend, Op: op, Err: err}
}
