package wire

import (
	"encoding/json"
	"fmt"
)

// Version is the JSON-RPC protocol version sent with every request.
const Version = "2.0"

// Request is a client to host call.
//
// JSON encoding:
//
//	{"jsonrpc": "2.0", "method": "get_printer_info", "params": {}, "id": 3}
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	ID      uint64 `json:"id"`
}

// NewRequest builds a request. Nil params are sent as an empty object.
func NewRequest(method string, params any, id uint64) *Request {
	if params == nil {
		params = map[string]any{}
	}
	return &Request{
		JSONRPC: Version,
		Method:  method,
		Params:  params,
		ID:      id,
	}
}

// Validate checks if the request can be sent.
func (r *Request) Validate() error {
	if r.Method == "" {
		return fmt.Errorf("method is required")
	}
	return nil
}

// RPCError is the error object of a failed response.
type RPCError struct {
	Code    int    `json:"code,omitempty"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
	}
	return e.Message
}

// IsBenignTimeout reports whether the error is the host's known noisy timeout.
func (e *RPCError) IsBenignTimeout() bool {
	return e != nil && e.Message == BenignTimeoutMessage
}

// Response answers a Request with the same ID.
type Response struct {
	ID     uint64
	Result json.RawMessage
	Error  *RPCError
}

// IsError returns true if the response carries an error object.
func (r *Response) IsError() bool {
	return r.Error != nil
}

// Notification is an unsolicited, id-less message pushed by the host.
type Notification struct {
	Method string
	Params []json.RawMessage
}

// Param decodes the positional parameter at index i into v.
func (n *Notification) Param(i int, v any) error {
	if i < 0 || i >= len(n.Params) {
		return fmt.Errorf("%s: missing param %d", n.Method, i)
	}
	if err := json.Unmarshal(n.Params[i], v); err != nil {
		return fmt.Errorf("%s: param %d: %w", n.Method, i, err)
	}
	return nil
}
