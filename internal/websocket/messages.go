package websocket

import (
	"errors"

	apierrors "brewsignal/internal/errors"
	"brewsignal/pkg/contracts/domain"
)

// MessageType names a frame
type MessageType string

// Client frames
const (
	TypeBundle    MessageType = "bundle"
	TypeOverrides MessageType = "overrides"
	TypeReset     MessageType = "reset"
	TypeHeartbeat MessageType = "heartbeat"
)

// Server frames
const (
	TypeReady      MessageType = "ready"
	TypeEvaluation MessageType = "evaluation"
	TypeError      MessageType = "error"
)

// Error codes carried in error frames
const (
	CodeInvalidMessage   = "INVALID_MESSAGE"
	CodeNoBundle         = "NO_BUNDLE"
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeEvaluationFailed = "EVALUATION_FAILED"
)

// ClientMessage is a frame sent by the client
type ClientMessage struct {
	Type        MessageType          `json:"type"`
	Bundle      *domain.EntityBundle `json:"bundle,omitempty"`
	Overrides   map[string]float64   `json:"overrides,omitempty"`
	IncludePlan *bool                `json:"include_plan,omitempty"`
}

// ServerMessage is a frame sent by the server
type ServerMessage struct {
	Type       MessageType        `json:"type"`
	SessionID  string             `json:"session_id"`
	Sequence   int64              `json:"sequence"`
	Overrides  map[string]float64 `json:"overrides,omitempty"`
	Evaluation *domain.Evaluation `json:"evaluation,omitempty"`
	Error      *ErrorPayload      `json:"error,omitempty"`
}

// ErrorPayload describes a rejected frame; the session stays open
type ErrorPayload struct {
	Code    string                      `json:"code"`
	Message string                      `json:"message"`
	Fields  []apierrors.ValidationError `json:"fields,omitempty"`
}

func errorPayload(code, message string) *ErrorPayload {
	return &ErrorPayload{Code: code, Message: message}
}

// payloadFromError classifies an evaluation failure
func payloadFromError(err error) *ErrorPayload {
	var verrs apierrors.ValidationErrors
	if apierrors.IsType(err, apierrors.ErrTypeValidation) || errors.As(err, &verrs) {
		p := errorPayload(CodeValidationFailed, err.Error())
		if errors.As(err, &verrs) {
			p.Fields = verrs.Errors
		}
		return p
	}
	return errorPayload(CodeEvaluationFailed, err.Error())
}
