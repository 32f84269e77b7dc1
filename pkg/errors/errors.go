package errors

import (
	"context"
	stderrors "errors"
	"fmt"
)

// ErrorCategory represents the category of error for handling
type ErrorCategory string

const (
	CategoryApproved       ErrorCategory = "approved"
	CategoryDeclined       ErrorCategory = "declined"
	CategoryPending        ErrorCategory = "pending"
	CategoryInvalidCard    ErrorCategory = "invalid_card"
	CategoryConfiguration  ErrorCategory = "configuration"
	CategorySystemError    ErrorCategory = "system_error"
	CategoryNetworkError   ErrorCategory = "network_error"
	CategoryProtocolError  ErrorCategory = "protocol_error"
	CategoryInvalidRequest ErrorCategory = "invalid_request"
)

// Error kinds. Every *GatewayError unwraps to exactly one of these so callers
// can branch with errors.Is.
var (
	ErrConfiguration                 = stderrors.New("gateway configuration error")
	ErrHardDecline                   = stderrors.New("hard decline")
	ErrPendingVoiceAuth              = stderrors.New("pending voice authorization")
	ErrInvalidCardData               = stderrors.New("invalid card data")
	ErrMissingCredentials            = stderrors.New("missing gateway credentials")
	ErrUnknownGateway                = stderrors.New("unknown gateway error")
	ErrMissingResult                 = stderrors.New("missing RESULT in gateway response")
	ErrGatewayUnreachable            = stderrors.New("gateway unreachable")
	ErrEmptyGatewayResponse          = stderrors.New("empty gateway response")
	ErrUnsupportedRecurrenceInterval = stderrors.New("unsupported recurrence interval")
)

// Processor error numbers reported to callers alongside the kind.
const (
	CodeConfiguration      = 9003
	CodeEmptyResponse      = 9006
	CodeHardDecline        = 9009
	CodePendingVoiceAuth   = 9010
	CodeInvalidCardData    = 9011
	CodeMissingCredentials = 9012
	CodeUnknownGateway     = 9013
	CodeUnreachable        = 9015
	CodeMissingResult      = 9016
)

// GatewayError is a classified failure talking to the payment gateway.
type GatewayError struct {
	Kind           error
	Category       ErrorCategory
	Code           int    // processor error number (9xxx)
	ResultCode     int    // gateway RESULT, 0 when the failure happened before decoding
	Message        string // caller facing message
	GatewayMessage string // RESPMSG as returned by the gateway
	Details        string
	Err            error
}

func (e *GatewayError) Error() string {
	msg := e.Message
	if e.GatewayMessage != "" {
		msg = fmt.Sprintf("%s (gateway: [%d] %s)", msg, e.ResultCode, e.GatewayMessage)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes both the kind and the underlying cause to errors.Is/As.
func (e *GatewayError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewGatewayError creates a new gateway error of the given kind
func NewGatewayError(kind error, category ErrorCategory, code int, message string) *GatewayError {
	return &GatewayError{
		Kind:     kind,
		Category: category,
		Code:     code,
		Message:  message,
	}
}

// ProtocolError reports a 200 response that does not carry a RESULT.
func ProtocolError(body string) *GatewayError {
	e := NewGatewayError(ErrMissingResult, CategoryProtocolError, CodeMissingResult, "No RESULT code from gateway")
	if len(body) > 0 {
		e.Details = body
	}
	return e
}

// Unreachable reports that no 200 response could be obtained.
func Unreachable(cause error) *GatewayError {
	e := NewGatewayError(ErrGatewayUnreachable, CategoryNetworkError, CodeUnreachable, "Error connecting to the payment gateway")
	e.Err = cause
	return e
}

// EmptyResponse reports a 200 response without a body.
func EmptyResponse(url string) *GatewayError {
	return NewGatewayError(ErrEmptyGatewayResponse, CategoryNetworkError, CodeEmptyResponse,
		fmt.Sprintf("Connection to payment gateway failed - no data returned. Gateway url set to %s", url))
}

// ValidationError represents input validation errors
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// Kind maps an error to a stable label for metrics and API responses.
func Kind(err error) string {
	var verr *ValidationError
	switch {
	case err == nil:
		return ""
	case stderrors.As(err, &verr):
		return "validation"
	case stderrors.Is(err, ErrConfiguration):
		return "configuration"
	case stderrors.Is(err, ErrHardDecline):
		return "hard_decline"
	case stderrors.Is(err, ErrPendingVoiceAuth):
		return "pending_voice_auth"
	case stderrors.Is(err, ErrInvalidCardData):
		return "invalid_card_data"
	case stderrors.Is(err, ErrMissingCredentials):
		return "missing_credentials"
	case stderrors.Is(err, ErrUnknownGateway):
		return "unknown_gateway"
	case stderrors.Is(err, ErrMissingResult):
		return "protocol"
	case stderrors.Is(err, ErrGatewayUnreachable):
		return "unreachable"
	case stderrors.Is(err, ErrEmptyGatewayResponse):
		return "empty_response"
	case stderrors.Is(err, ErrUnsupportedRecurrenceInterval):
		return "unsupported_interval"
	case stderrors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case stderrors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "internal"
	}
}
