package files

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/tidwall/jsonc"
)

// DefaultSettingsName is the UI settings file in the root.
const DefaultSettingsName = "gui.json"

// ErrInvalidSettings is returned for settings that are not valid JSON or
// do not match the settings schema.
var ErrInvalidSettings = errors.New("invalid settings")

// settingsSchema constrains the top level of the settings document. The
// nested sections belong to the UI and are kept opaque.
const settingsSchema = `{
	"type": "object",
	"properties": {
		"webcam": {"type": "object"},
		"gui": {
			"type": "object",
			"properties": {
				"general": {
					"type": "object",
					"properties": {"printername": {"type": "string"}}
				}
			}
		}
	}
}`

const settingsSchemaURL = "settings.schema.json"

// BlobClient reads and writes single files. Implemented by Client.
type BlobClient interface {
	ReadBlob(ctx context.Context, name string) ([]byte, error)
	WriteBlob(ctx context.Context, name string, data []byte) error
}

var _ BlobClient = (*Client)(nil)

// Cache keeps the last good copy of a blob locally.
type Cache interface {
	Load(name string) ([]byte, error)
	Save(name string, data []byte) error
}

// SettingsDocument is the decoded settings blob.
type SettingsDocument struct {
	Webcam map[string]any `json:"webcam,omitempty"`
	GUI    map[string]any `json:"gui,omitempty"`
}

// PrinterName returns gui.general.printername, empty if unset.
func (d *SettingsDocument) PrinterName() string {
	general, _ := d.GUI["general"].(map[string]any)
	name, _ := general["printername"].(string)
	return name
}

// SettingsConfig configures Settings.
type SettingsConfig struct {
	// Name is the settings file name. Defaults to DefaultSettingsName.
	Name string

	// Cache keeps the last good blob. Nil disables caching.
	Cache Cache

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger
}

// Settings loads and saves the UI settings blob.
type Settings struct {
	blobs  BlobClient
	name   string
	schema *jsonschema.Schema
	cache  Cache
	logger *slog.Logger
}

// NewSettings creates a settings store backed by blobs.
func NewSettings(blobs BlobClient, cfg SettingsConfig) (*Settings, error) {
	if cfg.Name == "" {
		cfg.Name = DefaultSettingsName
	}
	schema, err := compileSettingsSchema()
	if err != nil {
		return nil, err
	}
	return &Settings{
		blobs:  blobs,
		name:   cfg.Name,
		schema: schema,
		cache:  cfg.Cache,
		logger: cfg.Logger,
	}, nil
}

// Name returns the settings file name.
func (s *Settings) Name() string {
	return s.name
}

// Load fetches the blob from the host. When the host cannot be reached the
// cached copy is returned instead.
func (s *Settings) Load(ctx context.Context) ([]byte, error) {
	raw, err := s.blobs.ReadBlob(ctx, s.name)
	if err != nil {
		if cached, ok := s.cached(); ok && !IsNotFound(err) {
			s.warnLog("settings fetch failed, using cached copy", "error", err)
			return cached, nil
		}
		return nil, fmt.Errorf("read %s: %w", s.name, err)
	}

	blob, err := s.Decode(raw)
	if err != nil {
		return nil, err
	}
	s.store(blob)
	return blob, nil
}

// Save validates blob, uploads it in compact form and returns what was
// uploaded.
func (s *Settings) Save(ctx context.Context, blob []byte) ([]byte, error) {
	normalized, err := s.Decode(blob)
	if err != nil {
		return nil, err
	}
	if err := s.blobs.WriteBlob(ctx, s.name, normalized); err != nil {
		return nil, fmt.Errorf("write %s: %w", s.name, err)
	}
	s.store(normalized)
	return normalized, nil
}

// Decode accepts commented JSON, validates it and returns compact JSON.
func (s *Settings) Decode(raw []byte) ([]byte, error) {
	stripped := jsonc.ToJSON(raw)

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(stripped))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	if err := s.schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}

	var out bytes.Buffer
	if err := json.Compact(&out, stripped); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	return out.Bytes(), nil
}

// Parse decodes blob into a SettingsDocument.
func (s *Settings) Parse(blob []byte) (*SettingsDocument, error) {
	normalized, err := s.Decode(blob)
	if err != nil {
		return nil, err
	}
	var doc SettingsDocument
	if err := json.Unmarshal(normalized, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	return &doc, nil
}

func (s *Settings) cached() ([]byte, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Load(s.name)
	if err != nil {
		return nil, false
	}
	return data, true
}

func (s *Settings) store(blob []byte) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Save(s.name, blob); err != nil {
		s.warnLog("settings cache write failed", "error", err)
	}
}

func (s *Settings) warnLog(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

func compileSettingsSchema() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(settingsSchema))
	if err != nil {
		return nil, fmt.Errorf("settings schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(settingsSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("settings schema: %w", err)
	}
	schema, err := c.Compile(settingsSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("settings schema: %w", err)
	}
	return schema, nil
}
