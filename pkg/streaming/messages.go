// Package streaming defines the websocket protocol spoken between a remote
// project store client and the server. Every request is an Envelope and is
// answered by exactly one Ack carrying the same ID.
package streaming

import (
	"encoding/json"
	"fmt"
)

// Message type constants matching the streaming protocol.
const (
	TypeSave   = "save"
	TypeLoad   = "load"
	TypeDelete = "delete"
	TypeList   = "list"
	TypeAck    = "ack"
)

// Error codes carried by a failed Ack
const (
	CodeNotFound    = "not_found"
	CodeInvalidName = "invalid_name"
	CodeInvalidDoc  = "invalid_document"
	CodeBadRequest  = "bad_request"
	CodeInternal    = "internal"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	ID      string          `json:"id"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// AckMessage is the server's acknowledgement response.
type AckMessage struct {
	Type    string          `json:"type"` // always "ack"
	For     string          `json:"for"`  // the message type being acknowledged
	ID      string          `json:"id"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   string          `json:"error,omitempty"`
	Code    string          `json:"code,omitempty"`
}

// OK reports whether the request succeeded
func (a AckMessage) OK() bool {
	return a.Error == ""
}

// ProjectPayload names a project. Document is set on save requests and load
// replies.
type ProjectPayload struct {
	Name     string          `json:"name"`
	Document json.RawMessage `json:"document,omitempty"`
}

// NewEnvelope encodes payload into an envelope of the given type
func NewEnvelope(msgType, id string, payload any) (Envelope, error) {
	env := Envelope{Type: msgType, ID: id}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return Envelope{}, fmt.Errorf("marshal %s payload: %w", msgType, err)
		}
		env.Payload = raw
	}
	return env, nil
}

// Reply builds the successful ack for env
func Reply(env Envelope, payload any) (AckMessage, error) {
	ack := AckMessage{Type: TypeAck, For: env.Type, ID: env.ID}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return AckMessage{}, fmt.Errorf("marshal %s reply: %w", env.Type, err)
		}
		ack.Payload = raw
	}
	return ack, nil
}

// Fail builds the failed ack for env
func Fail(env Envelope, code string, err error) AckMessage {
	return AckMessage{Type: TypeAck, For: env.Type, ID: env.ID, Code: code, Error: err.Error()}
}
