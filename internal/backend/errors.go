package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrUnauthorized means the access token was rejected and the refresh path
// could not recover; the caller treats the visitor as logged out.
var ErrUnauthorized = errors.New("backend: unauthorized")

// APIError is any structured backend failure. The backend returns either a
// single message or a list; the list is joined for display.
type APIError struct {
	Status   int
	Messages []string
}

func (e *APIError) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("backend: status %d", e.Status)
	}
	return strings.Join(e.Messages, ", ")
}

// ConflictError is the duplicate-pending-order case: the message embeds the
// payment URL of the existing unpaid order, which the UI offers as an
// actionable choice instead of a generic error.
type ConflictError struct {
	Message    string
	PaymentURL string
}

func (e *ConflictError) Error() string { return e.Message }

var rePaymentURL = regexp.MustCompile(`https?://[^\s"']+`)

// wire shape: {"message": "..."} or {"message": ["...", "..."]}
type errBody struct {
	Message json.RawMessage `json:"message"`
}

func parseError(status int, body []byte) error {
	var eb errBody
	msgs := []string{}
	if json.Unmarshal(body, &eb) == nil && len(eb.Message) > 0 {
		var one string
		var many []string
		if json.Unmarshal(eb.Message, &one) == nil {
			msgs = append(msgs, one)
		} else if json.Unmarshal(eb.Message, &many) == nil {
			msgs = append(msgs, many...)
		}
	}
	if status == 409 {
		msg := strings.Join(msgs, ", ")
		return &ConflictError{Message: msg, PaymentURL: rePaymentURL.FindString(msg)}
	}
	return &APIError{Status: status, Messages: msgs}
}
