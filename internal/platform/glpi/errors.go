package glpi

import (
	"errors"
	"fmt"
)

type OperationErrorCode string

const (
	OperationErrorValidation      OperationErrorCode = "validation_failed"
	OperationErrorEncodeFailed    OperationErrorCode = "encode_failed"
	OperationErrorDecodeFailed    OperationErrorCode = "decode_failed"
	OperationErrorTransportFailed OperationErrorCode = "transport_failed"
	OperationErrorProtocol        OperationErrorCode = "protocol_error"
	OperationErrorAuthFailed      OperationErrorCode = "auth_failed"
	OperationErrorRequestFailed   OperationErrorCode = "request_failed"
)

type OperationError struct {
	Code       OperationErrorCode
	Operation  string
	StatusCode int
	Message    string
	Cause      error
}

func (e *OperationError) Error() string {
	if e == nil {
		return "glpi operation failed"
	}
	if e.Message != "" {
		return fmt.Sprintf(
			"glpi operation failed (op=%s code=%s status=%d): %s",
			e.Operation,
			e.Code,
			e.StatusCode,
			e.Message,
		)
	}
	if e.Cause != nil {
		return fmt.Sprintf(
			"glpi operation failed (op=%s code=%s status=%d): %v",
			e.Operation,
			e.Code,
			e.StatusCode,
			e.Cause,
		)
	}
	return fmt.Sprintf(
		"glpi operation failed (op=%s code=%s status=%d)",
		e.Operation,
		e.Code,
		e.StatusCode,
	)
}

func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func opErr(op string, code OperationErrorCode, msg string, cause error) error {
	return &OperationError{
		Code:      code,
		Operation: op,
		Message:   msg,
		Cause:     cause,
	}
}

func codeOf(err error) (OperationErrorCode, bool) {
	var oe *OperationError
	if errors.As(err, &oe) {
		return oe.Code, true
	}
	return "", false
}

// IsAuth reports whether err means the session is missing, expired or the
// credentials are invalid. Callers must re-authenticate instead of retrying.
func IsAuth(err error) bool {
	code, ok := codeOf(err)
	return ok && code == OperationErrorAuthFailed
}

// IsTransport reports a network-level failure (connect, timeout).
func IsTransport(err error) bool {
	code, ok := codeOf(err)
	return ok && code == OperationErrorTransportFailed
}

// IsProtocol reports an unexpected response shape.
func IsProtocol(err error) bool {
	code, ok := codeOf(err)
	return ok && code == OperationErrorProtocol
}
