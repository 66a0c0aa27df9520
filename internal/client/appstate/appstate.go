// Package appstate persists the client's free-form UI state and answers
// installability questions from the display-mode signals.
package appstate

import (
	"context"
	"encoding/json"

	"github.com/dmitrijs2005/deepnote/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/deepnote/internal/logging"
)

// State is an arbitrary JSON object. It is replaced wholesale on save.
type State map[string]any

// KV is the part of the metadata store the service needs.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

const (
	DisplayModeBrowser    = "browser"
	DisplayModeStandalone = "standalone"
)

// DisplaySignals reports how the app is being displayed.
type DisplaySignals interface {
	DisplayMode() string
	InstallPromptAvailable() bool
}

// StaticSignals is a DisplaySignals with fixed answers.
type StaticSignals struct {
	Mode   string
	Prompt bool
}

func (s StaticSignals) DisplayMode() string          { return s.Mode }
func (s StaticSignals) InstallPromptAvailable() bool { return s.Prompt }

type Service struct {
	kv      KV
	signals DisplaySignals
	logger  logging.Logger
}

func NewService(kv KV, signals DisplaySignals, logger logging.Logger) *Service {
	if signals == nil {
		signals = StaticSignals{Mode: DisplayModeBrowser}
	}
	return &Service{kv: kv, signals: signals, logger: logger.With("module", "appstate")}
}

// Save stores state. Failures are logged and otherwise ignored.
func (s *Service) Save(ctx context.Context, state State) {
	data, err := json.Marshal(state)
	if err != nil {
		s.logger.Error(ctx, "failed to encode app state", "error", err)
		return
	}
	if err := s.kv.Set(ctx, metadata.KeyAppState, data); err != nil {
		s.logger.Error(ctx, "failed to save app state", "error", err)
	}
}

// Load returns the saved state, or nil when nothing usable is stored.
func (s *Service) Load(ctx context.Context) State {
	data, err := s.kv.Get(ctx, metadata.KeyAppState)
	if err != nil {
		s.logger.Warn(ctx, "failed to read app state", "error", err)
		return nil
	}
	if len(data) == 0 {
		return nil
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		s.logger.Warn(ctx, "discarding corrupt app state", "error", err)
		return nil
	}
	return st
}

// IsInstallable reports that the app runs in a browser tab and the install
// prompt is on offer.
func (s *Service) IsInstallable() bool {
	return s.signals.DisplayMode() == DisplayModeBrowser && s.signals.InstallPromptAvailable()
}

// IsInstalled reports that the app runs standalone.
func (s *Service) IsInstalled() bool {
	return s.signals.DisplayMode() == DisplayModeStandalone
}
