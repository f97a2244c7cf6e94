// Package testutil provides fakes shared by package tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Steam-Park/mainsail/pkg/transport"
)

// SentRequest is one request captured by FakeTransport.
type SentRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// DecodeParams unmarshals the request params into v.
func (r SentRequest) DecodeParams(v any) error {
	return json.Unmarshal(r.Params, v)
}

// FakeTransport records every frame sent through it.
type FakeTransport struct {
	mu     sync.Mutex
	frames [][]byte
	err    error
}

var _ transport.Transport = (*FakeTransport)(nil)

// NewFakeTransport creates an empty recording transport.
func NewFakeTransport() *FakeTransport {
	return &FakeTransport{}
}

// Send records data, or returns the configured error.
func (f *FakeTransport) Send(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.frames = append(f.frames, append([]byte(nil), data...))
	return nil
}

// SetError makes subsequent sends fail with err. Nil restores success.
func (f *FakeTransport) SetError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// Frames returns copies of the recorded frames.
func (f *FakeTransport) Frames() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.frames))
	for i, fr := range f.frames {
		out[i] = append([]byte(nil), fr...)
	}
	return out
}

// Requests decodes every recorded frame. Frames that are not JSON objects
// cause a panic; only the dispatcher writes to this transport.
func (f *FakeTransport) Requests() []SentRequest {
	frames := f.Frames()
	out := make([]SentRequest, len(frames))
	for i, fr := range frames {
		if err := json.Unmarshal(fr, &out[i]); err != nil {
			panic(fmt.Sprintf("testutil: frame %d is not a request: %v", i, err))
		}
	}
	return out
}

// Methods returns the method of every recorded request, in send order.
func (f *FakeTransport) Methods() []string {
	reqs := f.Requests()
	out := make([]string, len(reqs))
	for i, r := range reqs {
		out[i] = r.Method
	}
	return out
}

// Last returns the most recent request.
func (f *FakeTransport) Last() (SentRequest, bool) {
	reqs := f.Requests()
	if len(reqs) == 0 {
		return SentRequest{}, false
	}
	return reqs[len(reqs)-1], true
}

// Find returns the first request with the given method.
func (f *FakeTransport) Find(method string) (SentRequest, bool) {
	for _, r := range f.Requests() {
		if r.Method == method {
			return r, true
		}
	}
	return SentRequest{}, false
}

// Clear forgets every recorded frame.
func (f *FakeTransport) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = nil
}
