package certificates

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrNotFound     = errors.New("certificate not found")
	ErrSiteNotFound = errors.New("certificate site not found")
	ErrQRMissing    = errors.New("QR code not generated yet")
	ErrQRGeneration = errors.New("QR code generation failed")
	// ErrDuplicate is returned by repositories on unique key violations.
	ErrDuplicate = errors.New("duplicate key")
	// ErrNumberExhausted means every certificate number attempt collided.
	ErrNumberExhausted = errors.New("could not allocate a unique certificate number")
)

// ValidationError collects per field problems with a request.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = msg
	}
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// fieldError builds a single field ValidationError.
func fieldError(field, msg string) error {
	v := &ValidationError{}
	v.add(field, msg)
	return v
}
