package errors

import (
	"fmt"
	"strings"
)

// UnknownLetterTypeError indicates a letter type key absent from the template
// catalog. ValidTypes carries the full key list for user-facing suggestion.
type UnknownLetterTypeError struct {
	LetterType string
	ValidTypes []string
}

func (e *UnknownLetterTypeError) Error() string {
	return fmt.Sprintf("unknown letter type %q. Options: %s", e.LetterType, strings.Join(e.ValidTypes, ", "))
}

// UnknownTargetError indicates a recipient key absent from the bureau address
// registry and no custom recipient was supplied.
type UnknownTargetError struct {
	Target       string
	ValidTargets []string
}

func (e *UnknownTargetError) Error() string {
	return fmt.Sprintf("target %q not found. Use %s, or provide a custom recipient", e.Target, strings.Join(e.ValidTargets, ", "))
}

// MissingRequiredFieldError indicates required identity or address data was
// absent. Raised before any network call is attempted.
type MissingRequiredFieldError struct {
	Field string
}

func (e *MissingRequiredFieldError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}

// GatewayError indicates the mail provider rejected or failed a call. The
// provider's status code and response body are preserved for the caller.
type GatewayError struct {
	StatusCode int
	Body       string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("mail gateway error %d: %s", e.StatusCode, e.Body)
}

// NotFoundError indicates a letter ID absent from the dispute store.
type NotFoundError struct {
	LetterID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no dispute found for letter id %s", e.LetterID)
}

// StoreCorruptionError indicates the durable store exists but failed to
// parse. Distinct from a store file that does not exist yet, which is not an
// error.
type StoreCorruptionError struct {
	Path string
	Err  error
}

func (e *StoreCorruptionError) Error() string {
	return fmt.Sprintf("dispute store %s is corrupt: %s", e.Path, e.Err)
}

func (e *StoreCorruptionError) Unwrap() error {
	return e.Err
}

// ConfigError indicates required environment-provided configuration was
// absent or invalid.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Msg)
}
