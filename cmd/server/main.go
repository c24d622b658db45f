// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"github.com/spf13/viper"

	"github.com/atlashq/atlas-web/config"
	"github.com/atlashq/atlas-web/internal/api"
	"github.com/atlashq/atlas-web/internal/auth"
	"github.com/atlashq/atlas-web/internal/llm"
	"github.com/atlashq/atlas-web/internal/notify"
	"github.com/atlashq/atlas-web/internal/services"
	"github.com/atlashq/atlas-web/internal/storage"
	"github.com/atlashq/atlas-web/internal/sync"
)

func setupViper() {
	// Read base config file
	viper.SetConfigName("config")
	viper.AddConfigPath(".")
	viper.ReadInConfig()

	// Read local config file for overrides (ignored by git)
	viper.SetConfigName("config.local")
	viper.MergeInConfig() // Merge local config on top of base

	// Read environment variables
	viper.SetEnvPrefix("ATLAS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

func main() {
	// Local .env overrides for development
	godotenv.Load()

	setupViper()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := storage.NewStore(cfg.Storage.Path)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	// The mentor model is optional; reflections and chat degrade to
	// fallbacks without it.
	llmClient, err := llm.NewLLMClient(cfg)
	if err != nil {
		log.Printf("Warning: no LLM available: %v", err)
		llmClient = nil
	}

	winService := services.NewWinService(store)
	moodService := services.NewMoodService(store)
	challengeService := services.NewChallengeService(store)
	mentorService := services.NewMentorService(store, llmClient)
	tracker := services.NewAchievementTracker(store)
	readingService := services.NewReadingService(store, tracker)
	sessionService := services.NewSessionService(store)
	reflectionService := services.NewReflectionService(store, llmClient, winService, moodService, challengeService, mentorService, tracker)

	session, err := sessionService.CurrentSession()
	if err != nil {
		log.Fatalf("Failed to initialize session: %v", err)
	}

	// Optional cloud sync pushes the local data set upstream on an interval.
	syncClient := sync.NewClient(&cfg.Sync)
	if syncClient.Enabled() {
		log.Printf("☁️ Sync enabled: %s", cfg.Sync.BaseURL)
		go syncClient.RunPeriodic(context.Background(), 15*time.Minute, sessionService.ExportSessionData)
	}

	auth.Init(cfg.Auth.SessionSecret)

	r := mux.NewRouter()
	r.Use(auth.Middleware(session.ID))

	// Unlock events stream to connected clients
	hub := notify.RegisterRoutes(r)
	tracker.AddListener(hub)

	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	handler := api.NewAtlasHandler(winService, moodService, challengeService, mentorService, reflectionService, tracker, readingService, sessionService)
	api.RegisterRoutes(apiRouter, handler)
	api.RegisterTtsRoutes(apiRouter, cfg)

	// CORS setup for development
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Server.Port
	}

	log.Printf("🧭 Atlas server starting on port %s", port)
	log.Printf("🗄️ Storage: %s", cfg.Storage.Path)

	if err := http.ListenAndServe(":"+port, c.Handler(r)); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
