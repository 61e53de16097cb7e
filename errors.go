package duotext

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrFieldBusy is returned when another operation holds the field and the
	// busy policy rejects instead of queueing.
	ErrFieldBusy = errors.New("field is busy")

	// ErrFieldNotFound is returned by field stores for unknown keys.
	ErrFieldNotFound = errors.New("field not found")

	// ErrNoProvider is returned when a translation is needed but no provider is configured.
	ErrNoProvider = errors.New("no translation provider configured")
)

// TranslationError is the base error type for translation failures.
type TranslationError struct {
	Message string
	Cause   error
}

func (e *TranslationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *TranslationError) Unwrap() error {
	return e.Cause
}

// ProviderError indicates a translation provider failure (API error, rate limit, etc.).
type ProviderError struct {
	Message   string
	Cause     error
	Retryable bool // Whether the operation can be retried
}

func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("provider error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("provider error: %s", e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// CacheError indicates a cache operation failure.
type CacheError struct {
	Message string
	Cause   error
}

func (e *CacheError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("cache error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("cache error: %s", e.Message)
}

func (e *CacheError) Unwrap() error {
	return e.Cause
}

// ProcessorError indicates a content processing failure (parse error, etc.).
type ProcessorError struct {
	Message     string
	Cause       error
	ContentType string // The type of content that failed to process
}

func (e *ProcessorError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("processor error (%s): %s: %v", e.ContentType, e.Message, e.Cause)
	}
	return fmt.Sprintf("processor error (%s): %s", e.ContentType, e.Message)
}

func (e *ProcessorError) Unwrap() error {
	return e.Cause
}

// CountMismatchError indicates the provider returned a different number of translations than expected.
type CountMismatchError struct {
	Expected int
	Got      int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("translation count mismatch: expected %d, got %d", e.Expected, e.Got)
}

// FieldError records why a single field was left untouched.
type FieldError struct {
	Key    string
	Action Action
	Cause  error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q (%s): %v", e.Key, e.Action, e.Cause)
}

func (e *FieldError) Unwrap() error {
	return e.Cause
}

// MarshalJSON renders the cause as its message.
func (e *FieldError) MarshalJSON() ([]byte, error) {
	msg := ""
	if e.Cause != nil {
		msg = e.Cause.Error()
	}
	return json.Marshal(struct {
		Key    string `json:"key"`
		Action Action `json:"action"`
		Error  string `json:"error"`
	}{e.Key, e.Action, msg})
}
