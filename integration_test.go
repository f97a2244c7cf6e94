package mainsail_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Steam-Park/mainsail/internal/testutil"
	"github.com/Steam-Park/mainsail/pkg/connection"
	"github.com/Steam-Park/mainsail/pkg/log"
	"github.com/Steam-Park/mainsail/pkg/service"
	"github.com/Steam-Park/mainsail/pkg/state"
	"github.com/Steam-Park/mainsail/pkg/transport"
	"github.com/Steam-Park/mainsail/pkg/wire"
)

// fakeHost answers JSON-RPC requests the way a printer host would and
// pushes live updates once the client subscribes.
type fakeHost struct {
	mu      sync.Mutex
	methods []string
	scripts []string
}

func (h *fakeHost) record(method string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.methods = append(h.methods, method)
}

func (h *fakeHost) received(method string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, m := range h.methods {
		if m == method {
			return true
		}
	}
	return false
}

func (h *fakeHost) Scripts() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.scripts...)
}

func (h *fakeHost) result(method string, params json.RawMessage) any {
	switch method {
	case wire.MethodPrinterInfo:
		return map[string]any{
			"state":            "ready",
			"hostname":         "voron",
			"software_version": "v0.12.0-85",
		}
	case wire.MethodObjectsList:
		return map[string]any{"objects": []string{"extruder", "print_stats", "toolhead"}}
	case wire.MethodObjectsStatus:
		return map[string]any{
			"eventtime": 1.0,
			"status":    map[string]any{"print_stats": map[string]any{"state": "standby"}},
		}
	case wire.MethodDirectory:
		return map[string]any{
			"dirs":  []any{},
			"files": []map[string]any{{"filename": "benchy.gcode", "modified": 1.0, "size": 2048}},
		}
	case wire.MethodGcodeScript:
		var p struct {
			Script string `json:"script"`
		}
		_ = json.Unmarshal(params, &p)
		h.mu.Lock()
		h.scripts = append(h.scripts, p.Script)
		h.mu.Unlock()
		return "ok"
	default:
		return map[string]any{}
	}
}

// serve handles one connection until the client goes away.
func (h *fakeHost) serve(conn *websocket.Conn) {
	defer conn.Close()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var req struct {
			ID     uint64          `json:"id"`
			Method string          `json:"method"`
			Params json.RawMessage `json:"params"`
		}
		if json.Unmarshal(data, &req) != nil {
			continue
		}
		h.record(req.Method)

		if err := conn.WriteMessage(websocket.TextMessage, testutil.ResultFrame(req.ID, h.result(req.Method, req.Params))); err != nil {
			return
		}

		if req.Method == wire.MethodSubscribe {
			frames := [][]byte{
				testutil.NotificationFrame(wire.NotifyStatusUpdate,
					map[string]any{"extruder": map[string]any{"temperature": 205.5, "target": 210.0}}, 12.5),
				testutil.NotificationFrame(wire.NotifyGcodeResponse, "// probe at 0,0 is z=0.012"),
			}
			for _, f := range frames {
				if err := conn.WriteMessage(websocket.TextMessage, f); err != nil {
					return
				}
			}
		}
	}
}

func startHost(t *testing.T, h *fakeHost) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	mux := http.NewServeMux()
	mux.HandleFunc(transport.DefaultPath, func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		h.serve(conn)
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return "ws" + strings.TrimPrefix(ts.URL, "http") + transport.DefaultPath
}

func TestSyncAgainstHost(t *testing.T) {
	host := &fakeHost{}
	url := startHost(t, host)

	capturePath := filepath.Join(t.TempDir(), "session.clog")
	capture, err := log.NewFileLogger(capturePath)
	require.NoError(t, err)

	client, err := transport.NewWebSocketClient(transport.Config{
		URL:       url,
		KeepAlive: transport.KeepAliveConfig{PingInterval: time.Second, PongTimeout: time.Second},
	})
	require.NoError(t, err)

	engine := service.NewEngine(client, service.Config{
		HeartbeatInterval: time.Hour,
		ProtocolLogger:    capture,
	})

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = client.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		_ = engine.Run(ctx, client.Events())
	}()

	store := engine.Store()

	require.Eventually(t, func() bool {
		return engine.Status().State == connection.StateReady
	}, 5*time.Second, 10*time.Millisecond, "engine should reach ready")

	t.Run("Identity", func(t *testing.T) {
		require.Eventually(t, func() bool {
			_, ok := store.Get(state.InfoObject, "hostname")
			return ok
		}, 2*time.Second, 10*time.Millisecond)
		hostname, _ := store.Get(state.InfoObject, "hostname")
		version, _ := store.Get(state.InfoObject, "version")
		assert.Equal(t, "voron", hostname)
		assert.Equal(t, "v0.12.0-85", version)
	})

	t.Run("StatusNotification", func(t *testing.T) {
		require.Eventually(t, func() bool {
			v, _ := store.Get("extruder", "temperature")
			return v == 205.5
		}, 2*time.Second, 10*time.Millisecond)
		target, _ := store.Get("extruder", "target")
		assert.Equal(t, 210.0, target)
		assert.True(t, host.received(wire.MethodSubscribe))
	})

	t.Run("GcodeResponse", func(t *testing.T) {
		require.Eventually(t, func() bool {
			for _, line := range store.GcodeLog() {
				if line.Message == "// probe at 0,0 is z=0.012" {
					return true
				}
			}
			return false
		}, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("SendGcode", func(t *testing.T) {
		require.NoError(t, engine.SendGcode(ctx, "G28"))
		require.Eventually(t, func() bool {
			return len(host.Scripts()) == 1
		}, 2*time.Second, 10*time.Millisecond)
		assert.Equal(t, []string{"G28"}, host.Scripts())
	})

	cancel()
	_ = client.Close()
	wg.Wait()
	require.NoError(t, capture.Close())

	t.Run("Capture", func(t *testing.T) {
		reqType := log.MessageTypeRequest
		reader, err := log.NewFilteredReader(capturePath, log.Filter{
			Method:      wire.MethodPrinterInfo,
			MessageType: &reqType,
		})
		require.NoError(t, err)
		defer reader.Close()

		events, err := reader.ReadAll()
		require.NoError(t, err)
		require.NotEmpty(t, events, "identity request should be captured")
		assert.Equal(t, log.LayerWire, events[0].Layer)
		assert.Equal(t, log.DirectionOut, events[0].Direction)
	})
}
