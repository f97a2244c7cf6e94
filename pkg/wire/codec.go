package wire

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedMessage is returned for frames that are neither a response nor a notification.
var ErrMalformedMessage = errors.New("malformed message")

// Kind identifies a decoded inbound message.
type Kind int

const (
	KindUnknown Kind = iota
	KindResponse
	KindNotification
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindResponse:
		return "RESPONSE"
	case KindNotification:
		return "NOTIFICATION"
	default:
		return "UNKNOWN"
	}
}

// Message is a decoded inbound frame. Exactly one of Response or
// Notification is set, matching Kind.
type Message struct {
	Kind         Kind
	Response     *Response
	Notification *Notification
}

// EncodeRequest encodes a request to JSON bytes.
func EncodeRequest(req *Request) ([]byte, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	return json.Marshal(req)
}

// Decode classifies and decodes one inbound frame.
func Decode(data []byte) (*Message, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	rawID, hasID := fields["id"]
	rawResult, hasResult := fields["result"]
	rawError, hasError := fields["error"]
	rawMethod, hasMethod := fields["method"]

	switch {
	case hasID && (hasResult || hasError):
		resp := &Response{ID: decodeID(rawID)}
		if hasError && !isNull(rawError) {
			resp.Error = decodeError(rawError)
		}
		if hasResult {
			resp.Result = rawResult
		}
		return &Message{Kind: KindResponse, Response: resp}, nil

	case hasMethod && !hasID:
		var method string
		if err := json.Unmarshal(rawMethod, &method); err != nil || method == "" {
			return nil, fmt.Errorf("%w: invalid method", ErrMalformedMessage)
		}
		params, err := decodeParams(fields["params"])
		if err != nil {
			return nil, fmt.Errorf("%w: %s params: %v", ErrMalformedMessage, method, err)
		}
		return &Message{
			Kind:         KindNotification,
			Notification: &Notification{Method: method, Params: params},
		}, nil
	}

	return nil, fmt.Errorf("%w: neither response nor notification", ErrMalformedMessage)
}

// decodeID returns 0 for ids this client never issues (null, strings, negatives).
func decodeID(raw json.RawMessage) uint64 {
	var id uint64
	if err := json.Unmarshal(raw, &id); err != nil {
		return 0
	}
	return id
}

func decodeError(raw json.RawMessage) *RPCError {
	var rpcErr RPCError
	if err := json.Unmarshal(raw, &rpcErr); err == nil {
		return &rpcErr
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return &RPCError{Message: text}
	}
	return &RPCError{Message: string(raw)}
}

// decodeParams accepts a positional array; a lone object is treated as a one-element array.
func decodeParams(raw json.RawMessage) ([]json.RawMessage, error) {
	if len(raw) == 0 || isNull(raw) {
		return nil, nil
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var params []json.RawMessage
		if err := json.Unmarshal(trimmed, &params); err != nil {
			return nil, err
		}
		return params, nil
	}
	return []json.RawMessage{trimmed}, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
