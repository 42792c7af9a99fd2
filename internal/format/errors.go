package format

import (
	"errors"
	"fmt"
)

// Error kinds shared by every decoder. Match them with errors.Is.
var (
	ErrOutOfBounds       = errors.New("out of bounds")
	ErrFormatMismatch    = errors.New("format mismatch")
	ErrSizeMismatch      = errors.New("size mismatch")
	ErrUnsupportedLayout = errors.New("unsupported layout")
	ErrNotFound          = errors.New("not found")
	ErrNotExhausted      = errors.New("record not fully consumed")
)

// FieldError reports a failed structural check at a known absolute offset.
type FieldError struct {
	Kind   error
	Field  string
	Offset int64 // absolute offset in the root buffer
	Got    any
	Want   any
}

func (e *FieldError) Error() string {
	if e.Want == nil {
		return fmt.Sprintf("%v: %s at 0x%X: got %v", e.Kind, e.Field, e.Offset, e.Got)
	}
	return fmt.Sprintf("%v: %s at 0x%X: got %v, want %v", e.Kind, e.Field, e.Offset, e.Got, e.Want)
}

func (e *FieldError) Unwrap() error { return e.Kind }

// Mismatch builds a FieldError of kind ErrFormatMismatch.
func Mismatch(field string, offset int64, got, want any) error {
	return &FieldError{Kind: ErrFormatMismatch, Field: field, Offset: offset, Got: got, Want: want}
}

// SizeMismatch builds a FieldError of kind ErrSizeMismatch.
func SizeMismatch(field string, offset int64, got, want any) error {
	return &FieldError{Kind: ErrSizeMismatch, Field: field, Offset: offset, Got: got, Want: want}
}

// Unsupported builds a FieldError of kind ErrUnsupportedLayout carrying the offending value.
func Unsupported(field string, offset int64, got any) error {
	return &FieldError{Kind: ErrUnsupportedLayout, Field: field, Offset: offset, Got: got}
}
