package payment

import (
	"errors"
	"fmt"

	"ipgpay-client/internal/transport"
)

// Field names reported by ConfigurationError.
const (
	FieldBaseURL  = "api_base_url"
	FieldClientID = "api_client_id"
	FieldKey      = "api_key"
)

// ConfigurationError reports an unusable ConnectionConfig. It is raised before
// any network activity and is never worth retrying.
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	return e.Message
}

// InvalidRequestError reports a missing or malformed operation field. It is a
// caller bug, not a transient condition.
type InvalidRequestError struct {
	Operation Operation
	Field     string
	Message   string
}

func (e *InvalidRequestError) Error() string {
	return e.Message
}

// TransportError is a network level failure. Whether to retry is the caller's
// decision: a blind retry of a settle or credit can move money twice.
type TransportError = transport.Error

// ErrUnrecognizedShape is wrapped by DecodingError when no matcher accepted the body.
var ErrUnrecognizedShape = errors.New("unrecognized response shape")

// DecodingError carries the raw gateway reply that could not be turned into a
// typed response.
type DecodingError struct {
	Operation  Operation
	StatusCode int
	Body       []byte
	Err        error
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("decode %s response (http %d): %v", e.Operation, e.StatusCode, e.Err)
}

func (e *DecodingError) Unwrap() error {
	return e.Err
}

func invalidRequest(op Operation, field, message string) *InvalidRequestError {
	return &InvalidRequestError{Operation: op, Field: field, Message: message}
}
