package tts

import (
	"context"
	"fmt"

	"github.com/atlashq/atlas-web/config"
)

// Voice selects the synthesis voice, e.g. "en-US-Standard-C".
type Voice struct {
	Model string `json:"model"`
}

// Tts speaks mentor text aloud.
type Tts interface {
	Speak(ctx context.Context, text, tone string, voice Voice) error
	Name() string
}

// WebTts generates audio bytes for delivery to the browser instead of
// playing them.
type WebTts interface {
	Tts
	GenerateAudio(ctx context.Context, text, tone string, voice Voice) ([]byte, error)
}

// NewWebTts creates the configured TTS client.
func NewWebTts(cfg *config.TtsConfig) (WebTts, error) {
	if !cfg.Enabled {
		return NewDummyTts(), nil
	}
	switch cfg.Type {
	case "google":
		return NewWebGoogleTtsClient(cfg.CredentialsFile)
	case "dummy", "":
		return NewDummyTts(), nil
	default:
		return nil, fmt.Errorf("unsupported tts type: %s", cfg.Type)
	}
}
