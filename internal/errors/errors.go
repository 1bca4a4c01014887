package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// transport errors
	ErrTransport = errors.New("mail source unreachable")

	// message errors
	ErrMalformedMessage = errors.New("malformed message")

	// storage errors
	ErrCollisionExhausted = errors.New("post path collision window exhausted")

	// curation errors
	ErrUnsupportedCodec = errors.New("unsupported target codec")
)

// ConversionError reports a failed external conversion for a single
// media file. It is fatal for that file's remaining artifacts but never
// for the rest of the directory.
type ConversionError struct {
	Path  string
	Stage string
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("conversion failed for %s at %s: %v", e.Path, e.Stage, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}
