package codec

import (
	"errors"
	"fmt"
)

var (
	// ErrMissing reports a required element or attribute that is absent or empty.
	ErrMissing = errors.New("required value missing")
	// ErrInvalid reports content that does not parse as the declared type.
	ErrInvalid = errors.New("invalid value")
	// ErrUnknownElement reports an element no factory can instantiate.
	ErrUnknownElement = errors.New("unknown element")
	// ErrDuplicateNamespace reports a second factory for an already claimed namespace.
	ErrDuplicateNamespace = errors.New("namespace already registered")
	// ErrDTD reports a document carrying a DOCTYPE or entity declaration.
	ErrDTD = errors.New("document type declarations are not allowed")
)

// Error locates a codec failure inside the element tree.
type Error struct {
	Op     string // "encode" or "decode"
	Path   string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func encodeErr(path string, err error, detail string) error {
	return &Error{Op: "encode", Path: path, Err: err, Detail: detail}
}

func decodeErr(path string, err error, detail string) error {
	return &Error{Op: "decode", Path: path, Err: err, Detail: detail}
}
