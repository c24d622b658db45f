package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/atlashq/atlas-web/config"
	"github.com/atlashq/atlas-web/internal/logger"
	"github.com/atlashq/atlas-web/internal/tts"
)

type speakRequest struct {
	Text string `json:"text"`
	Tone string `json:"tone,omitempty"` // "calm", "energized" or empty
}

// RegisterTtsRoutes mounts the mentor voice endpoint. When TTS is disabled
// the route still exists and returns 204.
func RegisterTtsRoutes(r *mux.Router, cfg *config.Config) {
	log := logger.New()

	client, err := tts.NewWebTts(&cfg.Tts)
	if err != nil {
		log.WithError(err).Warn("tts unavailable, falling back to dummy")
		client = tts.NewDummyTts()
	}
	voice := tts.Voice{Model: cfg.Tts.Voice}

	r.HandleFunc("/mentor/speak", func(w http.ResponseWriter, req *http.Request) {
		var body speakRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if body.Text == "" {
			http.Error(w, "Text is required", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(req.Context(), 20*time.Second)
		defer cancel()

		audio, err := client.GenerateAudio(ctx, body.Text, body.Tone, voice)
		if err != nil {
			log.WithError(err).Warn("tts synthesis failed")
			http.Error(w, "Failed to synthesize speech", http.StatusBadGateway)
			return
		}
		if len(audio) == 0 {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write(audio)
	}).Methods("POST")
}
