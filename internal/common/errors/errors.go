// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Every code below maps to a conversational recovery action, never a crash:
// validation failures become correction requests, unresolved references
// become clarification turns, upstream failures become a retry and then a
// "temporarily unavailable" outcome.
const (
	ErrCodeValidation          ErrorCode = "VALIDATION_ERROR"
	ErrCodeProfileNotFound     ErrorCode = "PROFILE_NOT_FOUND"
	ErrCodeOpportunityNotFound ErrorCode = "OPPORTUNITY_NOT_FOUND"

	ErrCodeSessionNotFound     ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeSessionExpired      ErrorCode = "SESSION_EXPIRED"
	ErrCodeReferenceUnresolved ErrorCode = "REFERENCE_UNRESOLVED"
	ErrCodeIntentAmbiguous     ErrorCode = "INTENT_AMBIGUOUS"
	ErrCodeRepeatedFailure     ErrorCode = "REPEATED_FAILURE"

	ErrCodeValueSuperseded ErrorCode = "VALUE_SUPERSEDED"

	ErrCodeUpstreamTimeout     ErrorCode = "UPSTREAM_TIMEOUT"
	ErrCodeUpstreamUnavailable ErrorCode = "UPSTREAM_UNAVAILABLE"

	ErrCodeSmsDispatchFailed      ErrorCode = "SMS_DISPATCH_FAILED"
	ErrCodeEscalationNotifyFailed ErrorCode = "ESCALATION_NOTIFY_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// CodeOf extracts the error code from err, or INTERNAL_ERROR for anything
// that is not a StandardError.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ErrCodeInternal
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	if e.ErrorVariables != nil {
		for k, v := range e.ErrorVariables {
			vars[k] = v
		}
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewValidationError names the profile field and the violated constraint.
func NewValidationError(field, constraint string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidation,
		Message:   "Profile field failed validation",
		Details:   fmt.Sprintf("field: %s, constraint: %s", field, constraint),
		Retryable: false,
		Metadata:  map[string]interface{}{"field": field, "constraint": constraint},
		Timestamp: time.Now().UTC(),
	}
}

// NewProfileNotFoundError signals a citizen without a profile yet; callers
// route to onboarding, never treat it as fatal.
func NewProfileNotFoundError(citizenID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeProfileNotFound,
		Message:   "No profile stored for citizen",
		Details:   fmt.Sprintf("citizenId: %s", citizenID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewOpportunityNotFoundError creates a non-retryable lookup error.
func NewOpportunityNotFoundError(opportunityID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeOpportunityNotFound,
		Message:   "Opportunity not found",
		Details:   fmt.Sprintf("opportunityId: %s", opportunityID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionNotFoundError creates a non-retryable session lookup error.
func NewSessionNotFoundError(sessionID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionNotFound,
		Message:   "Session not found",
		Details:   fmt.Sprintf("sessionId: %s", sessionID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionExpiredError signals an idle-timed-out context. The stored
// instance is already discarded; recovery is a fresh context for the same
// citizen.
func NewSessionExpiredError(sessionID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionExpired,
		Message:   "Session expired after idle timeout",
		Details:   fmt.Sprintf("sessionId: %s", sessionID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewReferenceUnresolvedError signals a pronoun or ordinal that could not be
// mapped to an opportunity; the caller must ask for clarification, not guess.
func NewReferenceUnresolvedError(phrase string) *StandardError {
	return &StandardError{
		Code:      ErrCodeReferenceUnresolved,
		Message:   "Reference phrase could not be resolved",
		Details:   fmt.Sprintf("phrase: %q", phrase),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewIntentAmbiguousError signals a classification below the confidence
// threshold; routed to a clarification turn.
func NewIntentAmbiguousError(category string, confidence float64) *StandardError {
	return &StandardError{
		Code:      ErrCodeIntentAmbiguous,
		Message:   "Intent classification below confidence threshold",
		Details:   fmt.Sprintf("category: %s, confidence: %.2f", category, confidence),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRepeatedFailureError signals consecutive unresolved intents; triggers
// the escalation path instead of further automatic retries.
func NewRepeatedFailureError(sessionID string, streak int) *StandardError {
	return &StandardError{
		Code:      ErrCodeRepeatedFailure,
		Message:   "Repeated failures to resolve intent",
		Details:   fmt.Sprintf("sessionId: %s, consecutiveFailures: %d", sessionID, streak),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewValueSupersededError informs the caller their field update lost a
// last-write-wins race against a newer write.
func NewValueSupersededError(field string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValueSuperseded,
		Message:   "Field value superseded by a newer update",
		Details:   fmt.Sprintf("field: %s", field),
		Retryable: false,
		Metadata:  map[string]interface{}{"field": field},
		Timestamp: time.Now().UTC(),
	}
}

// NewUpstreamTimeoutError creates a retryable timeout error for an external
// collaborator (opportunity search, profile persistence, classification).
func NewUpstreamTimeoutError(service string, err error) *StandardError {
	details := "deadline exceeded"
	if err != nil {
		details = err.Error()
	}
	return &StandardError{
		Code:      ErrCodeUpstreamTimeout,
		Message:   fmt.Sprintf("Upstream service '%s' timed out", service),
		Details:   details,
		Retryable: true,
		Metadata:  map[string]interface{}{"service": service},
		Timestamp: time.Now().UTC(),
	}
}

// NewUpstreamUnavailableError creates a retryable connectivity error for an
// external collaborator.
func NewUpstreamUnavailableError(service string, err error) *StandardError {
	details := "connection failed"
	if err != nil {
		details = err.Error()
	}
	return &StandardError{
		Code:      ErrCodeUpstreamUnavailable,
		Message:   fmt.Sprintf("Upstream service '%s' unavailable", service),
		Details:   details,
		Retryable: true,
		Metadata:  map[string]interface{}{"service": service},
		Timestamp: time.Now().UTC(),
	}
}

// NewSmsDispatchFailedError creates a retryable SMS delivery error.
func NewSmsDispatchFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSmsDispatchFailed,
		Message:   "SMS dispatch failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewEscalationNotifyFailedError creates a retryable support-desk
// notification error.
func NewEscalationNotifyFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEscalationNotifyFailed,
		Message:   "Escalation notification failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps an unexpected failure.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected internal error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes; the
// process models catch these codes on boundary events, so names are kept
// identical.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeValidation:             "VALIDATION_ERROR",
	ErrCodeProfileNotFound:        "PROFILE_NOT_FOUND",
	ErrCodeOpportunityNotFound:    "OPPORTUNITY_NOT_FOUND",
	ErrCodeSessionNotFound:        "SESSION_NOT_FOUND",
	ErrCodeSessionExpired:         "SESSION_EXPIRED",
	ErrCodeReferenceUnresolved:    "REFERENCE_UNRESOLVED",
	ErrCodeIntentAmbiguous:        "INTENT_AMBIGUOUS",
	ErrCodeRepeatedFailure:        "REPEATED_FAILURE",
	ErrCodeValueSuperseded:        "VALUE_SUPERSEDED",
	ErrCodeUpstreamTimeout:        "UPSTREAM_TIMEOUT",
	ErrCodeUpstreamUnavailable:    "UPSTREAM_UNAVAILABLE",
	ErrCodeSmsDispatchFailed:      "SMS_DISPATCH_FAILED",
	ErrCodeEscalationNotifyFailed: "ESCALATION_NOTIFY_FAILED",
	ErrCodeInternal:               "INTERNAL_ERROR",
}

// GetRetryCount returns the automatic retry budget per error code. Upstream
// collaborator failures get exactly one retry before the conversation
// surfaces a "temporarily unavailable" outcome; conversational and
// validation errors never retry, they recover through the dialog.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeUpstreamTimeout, ErrCodeUpstreamUnavailable:
		return 1

	case ErrCodeSmsDispatchFailed, ErrCodeEscalationNotifyFailed:
		return 2

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "SESSION") || strings.Contains(codeStr, "REFERENCE") ||
		strings.Contains(codeStr, "INTENT") || strings.Contains(codeStr, "REPEATED"):
		return "CONVERSATION"
	case strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "SUPERSEDED"):
		return "VALIDATION"
	case strings.Contains(codeStr, "PROFILE"):
		return "PROFILE"
	case strings.Contains(codeStr, "OPPORTUNITY"):
		return "SEARCH"
	case strings.Contains(codeStr, "SMS") || strings.Contains(codeStr, "ESCALATION"):
		return "DELIVERY"
	case strings.Contains(codeStr, "UPSTREAM"):
		return "UPSTREAM"
	default:
		return "OTHER"
	}
}
