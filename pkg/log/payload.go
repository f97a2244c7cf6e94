package log

import (
	"encoding/json"
	"reflect"
)

var reflectMapStringAny = reflect.TypeOf(map[string]any(nil))

// JSONPayload converts raw JSON into a CBOR-friendly value for
// MessageEvent.Payload. Invalid JSON is kept as a string.
func JSONPayload(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	return v
}
