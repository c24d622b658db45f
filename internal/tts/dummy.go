package tts

import (
	"context"

	"github.com/atlashq/atlas-web/internal/logger"
)

type DummyTts struct {
}

func NewDummyTts() *DummyTts {
	return &DummyTts{}
}

func (d *DummyTts) Speak(_ context.Context, text, tone string, voice Voice) error {
	logger.New().Debug("no tts configured. ignoring TTS request")
	return nil
}

func (d *DummyTts) GenerateAudio(_ context.Context, text, tone string, voice Voice) ([]byte, error) {
	logger.New().Debug("no tts configured. returning empty audio")
	return nil, nil
}

func (d *DummyTts) Name() string {
	return "dummy"
}
