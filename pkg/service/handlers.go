package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Steam-Park/mainsail/pkg/connection"
	"github.com/Steam-Park/mainsail/pkg/interaction"
	"github.com/Steam-Park/mainsail/pkg/state"
	"github.com/Steam-Park/mainsail/pkg/subscription"
	"github.com/Steam-Park/mainsail/pkg/wire"
)

// printerInfo is the identity response. Older hosts report readiness
// with is_ready, newer ones only with state.
type printerInfo struct {
	State           string `json:"state"`
	StateMessage    string `json:"state_message"`
	Hostname        string `json:"hostname"`
	Version         string `json:"version"`
	SoftwareVersion string `json:"software_version"`
	IsReady         *bool  `json:"is_ready"`
}

func (p printerInfo) ready() bool {
	if p.IsReady != nil && *p.IsReady {
		return true
	}
	return p.State == connection.KlippyReady
}

func (p printerInfo) version() string {
	if p.Version != "" {
		return p.Version
	}
	return p.SoftwareVersion
}

func (e *Engine) registerHandlers() {
	handlers := map[string]func(json.RawMessage) error{
		interaction.TagHelpData:       e.onStatus,
		interaction.TagPrinterData:    e.onStatus,
		interaction.TagKlipperInfo:    e.onKlipperInfo,
		interaction.TagObjectInfo:     e.onObjectInfo,
		interaction.TagHeatersInfo:    e.onHeatersInfo,
		interaction.TagPrinterConfig:  e.onPrinterConfig,
		interaction.TagHeatersHistory: e.onHeatersHistory,
		interaction.TagDirectory:      e.onDirectory,
		interaction.TagDirectoryRoot:  e.onDirectory,
		interaction.TagHelpList:       e.onHelpList,
	}
	for tag, fn := range handlers {
		e.dispatcher.Handle(tag, e.wrap(tag, fn))
	}
	e.dispatcher.Handle(interaction.TagSendGcode, e.onGcodeResult)
}

// wrap adapts a result handler: failed requests and undecodable results
// are logged and leave the store untouched.
func (e *Engine) wrap(tag string, fn func(json.RawMessage) error) interaction.Handler {
	return func(result json.RawMessage, err error) {
		if err != nil {
			e.warnLog("request failed", "tag", tag, "error", err)
			return
		}
		if err := fn(result); err != nil {
			e.warnLog("bad result", "tag", tag, "error", err)
		}
	}
}

func (e *Engine) onStatus(result json.RawMessage) error {
	status, err := decodeStatus(result)
	if err != nil {
		return err
	}
	e.store.MergeStatus(status)
	return nil
}

func (e *Engine) onKlipperInfo(result json.RawMessage) error {
	var info printerInfo
	if err := json.Unmarshal(result, &info); err != nil {
		return fmt.Errorf("identity: %w", err)
	}

	if e.manager.SetIdentity(info.ready(), info.State) {
		e.infoLog("host ready", "hostname", info.Hostname, "version", info.version())
		e.orchestrator.OnReady(subscription.Identity{
			Hostname: info.Hostname,
			Version:  info.version(),
		})
	}

	var details map[string]any
	if err := json.Unmarshal(result, &details); err != nil {
		return fmt.Errorf("identity: %w", err)
	}
	if info.Version == "" && info.SoftwareVersion != "" {
		details["version"] = info.SoftwareVersion
	}
	e.store.Merge(state.InfoObject, details)
	return nil
}

func (e *Engine) onObjectInfo(result json.RawMessage) error {
	var wrapped struct {
		Objects []string `json:"objects"`
	}
	if err := json.Unmarshal(result, &wrapped); err == nil && wrapped.Objects != nil {
		e.orchestrator.OnObjectList(wrapped.Objects)
		return nil
	}

	var names []string
	if err := json.Unmarshal(result, &names); err != nil {
		return fmt.Errorf("object list: %w", err)
	}
	e.orchestrator.OnObjectList(names)
	return nil
}

func (e *Engine) onHeatersInfo(result json.RawMessage) error {
	status, err := decodeStatus(result)
	if err != nil {
		return err
	}
	e.store.MergeStatus(status)

	heaters, _ := status["heaters"].(map[string]any)
	e.orchestrator.OnHeaters(stringList(heaters["available_heaters"]))
	return nil
}

func (e *Engine) onPrinterConfig(result json.RawMessage) error {
	status, err := decodeStatus(result)
	if err != nil {
		return err
	}
	for name, v := range status {
		if attrs, ok := v.(map[string]any); ok {
			e.store.Replace(name, attrs)
		}
	}
	return nil
}

func (e *Engine) onHeatersHistory(result json.RawMessage) error {
	var history map[string]state.HeaterSeries
	if err := json.Unmarshal(result, &history); err != nil {
		return fmt.Errorf("heater history: %w", err)
	}
	e.store.SetHeaterHistory(history)
	return nil
}

// onDirectory applies a root listing and starts the settings fetch when
// the settings file is present. Both the handshake and the ready cascade
// list the root; the cascade's reset clears settings loaded before it.
func (e *Engine) onDirectory(result json.RawMessage) error {
	listing, err := e.applyListing(result)
	if err != nil {
		return err
	}
	if e.settings != nil && listing.HasFile(e.config.SettingsFile) {
		e.fetchSettings()
	}
	return nil
}

func (e *Engine) applyListing(result json.RawMessage) (state.DirectoryListing, error) {
	var listing state.DirectoryListing
	if err := json.Unmarshal(result, &listing); err != nil {
		return listing, fmt.Errorf("directory: %w", err)
	}
	e.store.SetDirectory(wire.RootDirectory, listing)
	return listing, nil
}

func (e *Engine) onHelpList(result json.RawMessage) error {
	var help map[string]string
	if err := json.Unmarshal(result, &help); err != nil {
		return fmt.Errorf("help list: %w", err)
	}
	e.store.SetHelp(help)
	return nil
}

// onGcodeResult records script failures in the gcode log. Successful
// scripts answer "ok"; their output already arrives as notifications.
func (e *Engine) onGcodeResult(result json.RawMessage, err error) {
	if err != nil {
		e.store.AppendGcodeResponse("!! " + gcodeErrorMessage(err))
		return
	}
	var reply string
	if json.Unmarshal(result, &reply) == nil && reply != "" && !strings.EqualFold(reply, "ok") {
		e.store.AppendGcodeResponse(reply)
	}
}

// fetchSettings loads the settings blob off the loop and posts the result
// back to it. Results from a session that has since ended are dropped.
func (e *Engine) fetchSettings() {
	ctx := e.runContext()
	session := e.manager.Session()
	go func() {
		blob, err := e.settings.Load(ctx)
		if err != nil {
			e.warnLog("settings fetch failed", "error", err)
			return
		}
		_ = e.post(ctx, func() {
			if e.manager.Session() != session {
				e.debugLog("dropping settings from old session", "session", session)
				return
			}
			e.store.SetSettings(blob)
		})
	}()
}

// decodeStatus accepts both {"status": {...}} and the bare object map.
func decodeStatus(result json.RawMessage) (map[string]any, error) {
	var raw map[string]any
	if err := json.Unmarshal(result, &raw); err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	if status, ok := raw["status"].(map[string]any); ok {
		return status, nil
	}
	return raw, nil
}

func stringList(v any) []string {
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func gcodeErrorMessage(err error) string {
	var re *interaction.RequestError
	if errors.As(err, &re) {
		return re.Message
	}
	return err.Error()
}
