package testutil

import (
	"encoding/json"
	"fmt"
)

// ResultFrame builds a JSON-RPC success response frame.
func ResultFrame(id uint64, result any) []byte {
	return mustMarshal(map[string]any{"jsonrpc": "2.0", "id": id, "result": result})
}

// ErrorFrame builds a JSON-RPC error response frame.
func ErrorFrame(id uint64, code int, message string) []byte {
	return mustMarshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"error":   map[string]any{"code": code, "message": message},
	})
}

// NotificationFrame builds a JSON-RPC notification frame.
func NotificationFrame(method string, params ...any) []byte {
	if params == nil {
		params = []any{}
	}
	return mustMarshal(map[string]any{"jsonrpc": "2.0", "method": method, "params": params})
}

// RawJSON marshals v, panicking on failure.
func RawJSON(v any) json.RawMessage {
	return mustMarshal(v)
}

func mustMarshal(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("testutil: marshal: %v", err))
	}
	return data
}
