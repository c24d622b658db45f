package tts

import (
	"context"
	"fmt"
	"strings"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	ttspb "cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"google.golang.org/api/option"

	"github.com/atlashq/atlas-web/internal/logger"
)

type WebGoogleTts struct {
	client *texttospeech.Client
	logger *logger.Log
}

// NewWebGoogleTtsClient authenticates with the given service account file,
// or application default credentials when the path is empty.
func NewWebGoogleTtsClient(credentialsFile string) (*WebGoogleTts, error) {
	ctx := context.Background()

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := texttospeech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google TTS client: %w", err)
	}

	return &WebGoogleTts{
		client: client,
		logger: logger.New(),
	}, nil
}

// Extract language code from voice name (e.g., "en-US-Standard-C" -> "en-US")
func (g *WebGoogleTts) extractLanguageCode(voiceName string) string {
	parts := strings.Split(voiceName, "-")
	if len(parts) >= 2 {
		return fmt.Sprintf("%s-%s", parts[0], parts[1])
	}
	// Fallback to en-US if we can't parse
	return "en-US"
}

// GenerateAudio synthesizes mentor speech as MP3 bytes.
func (g *WebGoogleTts) GenerateAudio(ctx context.Context, text, tone string, voice Voice) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	languageCode := g.extractLanguageCode(voice.Model)

	req := &ttspb.SynthesizeSpeechRequest{
		Input: &ttspb.SynthesisInput{
			InputSource: &ttspb.SynthesisInput_Text{Text: text},
		},
		Voice: &ttspb.VoiceSelectionParams{
			LanguageCode: languageCode,
			Name:         voice.Model,
		},
		AudioConfig: &ttspb.AudioConfig{
			AudioEncoding:   ttspb.AudioEncoding_MP3,
			SpeakingRate:    g.speakingRateForTone(tone),
			Pitch:           g.pitchForTone(tone),
			VolumeGainDb:    0.0,
			SampleRateHertz: 22050,
		},
	}

	g.logger.Debug(fmt.Sprintf("Generating Google TTS audio with voice: %s, language: %s, tone: %s",
		voice.Model, languageCode, tone))

	resp, err := g.client.SynthesizeSpeech(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize speech: %w", err)
	}

	if len(resp.AudioContent) == 0 {
		return nil, fmt.Errorf("empty audio content received from Google TTS")
	}

	return resp.AudioContent, nil
}

// Speak implementation for compatibility (generates without delivering)
func (g *WebGoogleTts) Speak(ctx context.Context, text, tone string, voice Voice) error {
	_, err := g.GenerateAudio(ctx, text, tone, voice)
	return err
}

func (g *WebGoogleTts) Name() string {
	return "Google Cloud Text-to-Speech (Web)"
}

func (g *WebGoogleTts) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// Mentor tone shapes delivery slightly; the default reads neutral.
func (g *WebGoogleTts) speakingRateForTone(tone string) float64 {
	switch strings.ToLower(tone) {
	case "energized":
		return 1.1
	case "calm":
		return 0.92
	default:
		return 1.0
	}
}

func (g *WebGoogleTts) pitchForTone(tone string) float64 {
	switch strings.ToLower(tone) {
	case "energized":
		return 1.5
	case "calm":
		return -1.0
	default:
		return 0.0
	}
}
