package core

import (
	"errors"
	"fmt"
)

// Error kinds. Callers match them with errors.Is; the underlying cause stays
// reachable through the same chain.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrNotReady          = errors.New("corpus not ready")
	ErrAlreadyProcessing = errors.New("corpus already processing")
	ErrLoad              = errors.New("load failed")
	ErrMalformedDocument = errors.New("malformed document")
	ErrVectorIndex       = errors.New("vector index error")
	ErrGeneration        = errors.New("generation failed")
	ErrPersistence       = errors.New("persistence error")

	ErrSessionNotFound = fmt.Errorf("session %w", ErrNotFound)
)

// MalformedDocumentError is returned when every extractor rejected the file
// because its internal layout is corrupted.
type MalformedDocumentError struct {
	Hint string
	Err  error
}

func (e *MalformedDocumentError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", ErrMalformedDocument, e.Hint)
	}
	return fmt.Sprintf("%s: %s (%v)", ErrMalformedDocument, e.Hint, e.Err)
}

func (e *MalformedDocumentError) Is(target error) bool { return target == ErrMalformedDocument }

func (e *MalformedDocumentError) Unwrap() error { return e.Err }

// Wrap tags err with kind and a short message.
func Wrap(kind error, msg string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", kind, msg, err)
}
