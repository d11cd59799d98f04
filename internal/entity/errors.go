package entity

import (
	"errors"
	"fmt"
)

// ParseError means the inbound webhook body could not be turned into an InboundEvent.
type ParseError struct {
	Field   string
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("payload inválido: %s %s", e.Field, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("payload inválido: %v", e.Err)
	}
	return "payload inválido: " + e.Message
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// TransportError wraps a network or timeout failure that happened before any
// HTTP status was received.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RelayError is returned when the lead could not be delivered to the automation host.
// StatusCode is zero when no response was received.
type RelayError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *RelayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("relay do lead falhou: %v", e.Err)
	}
	return fmt.Sprintf("relay do lead falhou: status %d: %s", e.StatusCode, e.Body)
}

func (e *RelayError) Unwrap() error {
	return e.Err
}

// SendError is returned when the gateway did not accept an outbound message.
// StatusCode is zero when no response was received.
type SendError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *SendError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("envio whatsapp falhou: %v", e.Err)
	}
	return fmt.Sprintf("envio whatsapp falhou: status %d: %s", e.StatusCode, e.Body)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
