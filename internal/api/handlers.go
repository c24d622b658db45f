package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"

	"github.com/atlashq/atlas-web/internal/models"
	"github.com/atlashq/atlas-web/internal/services"
)

// iconGlyphs resolves persisted icon keys to display glyphs. The key is the
// only thing that ever gets serialized.
var iconGlyphs = map[string]string{
	"book-open": "📖",
	"books":     "📚",
	"zap":       "⚡",
	"trophy":    "🏆",
	"flame":     "🔥",
	"calendar":  "📅",
	"mirror":    "🪞",
	"compass":   "🧭",
}

type AtlasHandler struct {
	wins        *services.WinService
	moods       *services.MoodService
	challenges  *services.ChallengeService
	mentor      *services.MentorService
	reflections *services.ReflectionService
	tracker     *services.AchievementTracker
	reading     *services.ReadingService
	session     *services.SessionService

	// Mirrors the old client-side isGenerating flag: a soft guard, not a
	// lock. A request losing the race gets 409.
	generating atomic.Bool
}

func NewAtlasHandler(wins *services.WinService, moods *services.MoodService, challenges *services.ChallengeService, mentor *services.MentorService, reflections *services.ReflectionService, tracker *services.AchievementTracker, reading *services.ReadingService, session *services.SessionService) *AtlasHandler {
	return &AtlasHandler{
		wins:        wins,
		moods:       moods,
		challenges:  challenges,
		mentor:      mentor,
		reflections: reflections,
		tracker:     tracker,
		reading:     reading,
		session:     session,
	}
}

// POST /api/v1/moods - log a mood check-in
func (h *AtlasHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req models.CheckInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	entry, err := h.moods.CheckIn(&req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, entry)
}

// GET /api/v1/moods - list mood check-ins
func (h *AtlasHandler) ListMoods(w http.ResponseWriter, r *http.Request) {
	entries, err := h.moods.Entries()
	if err != nil {
		http.Error(w, "Failed to load mood entries", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]interface{}{"entries": entries})
}

// POST /api/v1/wins - log a win
func (h *AtlasHandler) LogWin(w http.ResponseWriter, r *http.Request) {
	var req models.LogWinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	entry, err := h.wins.LogWin(&req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, entry)
}

// GET /api/v1/wins - list wins, newest first
func (h *AtlasHandler) ListWins(w http.ResponseWriter, r *http.Request) {
	wins, err := h.wins.Wins()
	if err != nil {
		http.Error(w, "Failed to load wins", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]interface{}{"wins": wins})
}

// GET /api/v1/patterns/weekly?week=current|last - on-demand pattern
func (h *AtlasHandler) WeeklyPattern(w http.ResponseWriter, r *http.Request) {
	wins, _ := h.wins.Wins()
	moods, _ := h.moods.Entries()
	challenges, _ := h.challenges.Completions()
	mentorMessages, _ := h.mentor.AllMessages()

	weekStart := services.CurrentWeekStart(time.Now())
	if r.URL.Query().Get("week") == "last" {
		weekStart = weekStart.AddDate(0, 0, -7)
	}

	pattern := services.AnalyzeWeeklyPattern(weekStart, wins, moods, challenges, mentorMessages)
	writeJSON(w, pattern)
}

// POST /api/v1/reflections/generate - generate the weekly reflection
func (h *AtlasHandler) GenerateReflection(w http.ResponseWriter, r *http.Request) {
	if !h.generating.CompareAndSwap(false, true) {
		http.Error(w, "A reflection is already being generated", http.StatusConflict)
		return
	}
	defer h.generating.Store(false)

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	reflection, err := h.reflections.CreateWeeklyReflection(ctx)
	if err != nil {
		// Generation failure falls back to the hardcoded sample.
		sample := h.reflections.SampleReflection()
		writeJSON(w, sample)
		return
	}
	writeJSON(w, reflection)
}

// GET /api/v1/reflections - list stored reflections
func (h *AtlasHandler) ListReflections(w http.ResponseWriter, r *http.Request) {
	reflections, err := h.reflections.Reflections()
	if err != nil {
		http.Error(w, "Failed to load reflections", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]interface{}{
		"reflections":     reflections,
		"should_generate": h.reflections.ShouldGenerateWeeklyReflection(),
	})
}

// GET /api/v1/achievements - badge table with resolved icons
func (h *AtlasHandler) ListAchievements(w http.ResponseWriter, r *http.Request) {
	achievements := h.tracker.Achievements()

	views := make([]models.AchievementView, len(achievements))
	for i, a := range achievements {
		views[i] = models.AchievementView{Achievement: a, IconGlyph: iconGlyphs[a.Icon]}
	}
	writeJSON(w, map[string]interface{}{"achievements": views})
}

// POST /api/v1/mentor/ask - one mentor chat turn
func (h *AtlasHandler) MentorAsk(w http.ResponseWriter, r *http.Request) {
	var req models.MentorAskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	resp, err := h.mentor.Ask(ctx, req.ThreadID, req.Message)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, resp)
}

// GET /api/v1/mentor/threads - saved chat threads
func (h *AtlasHandler) MentorThreads(w http.ResponseWriter, r *http.Request) {
	threads, err := h.mentor.Threads()
	if err != nil {
		http.Error(w, "Failed to load threads", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]interface{}{"threads": threads})
}

// GET /api/v1/reading - progress, time and streak
func (h *AtlasHandler) ReadingState(w http.ResponseWriter, r *http.Request) {
	progress, _ := h.reading.Progress()
	times, _ := h.reading.ReadingTime()
	streak, _ := h.reading.Streak()

	writeJSON(w, map[string]interface{}{
		"progress": progress,
		"time":     times,
		"streak":   streak,
	})
}

// POST /api/v1/articles/{id}/progress - partial progress update
func (h *AtlasHandler) UpdateReadingProgress(w http.ResponseWriter, r *http.Request) {
	articleID := mux.Vars(r)["id"]

	var req models.ProgressUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	entry, err := h.reading.UpdateProgress(articleID, &req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, entry)
}

// POST /api/v1/articles/{id}/complete - mark an article finished
func (h *AtlasHandler) CompleteArticle(w http.ResponseWriter, r *http.Request) {
	articleID := mux.Vars(r)["id"]

	var req models.CompleteArticleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	entry, err := h.reading.CompleteArticle(articleID, &req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, entry)
}

// POST /api/v1/challenges/{id}/complete - record a challenge completion
func (h *AtlasHandler) CompleteChallenge(w http.ResponseWriter, r *http.Request) {
	completion, err := h.challenges.CompleteChallenge(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, completion)
}

// GET /api/v1/session - current session (touches lastActive)
func (h *AtlasHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.session.CurrentSession()
	if err != nil {
		http.Error(w, "Failed to load session", http.StatusInternalServerError)
		return
	}
	writeJSON(w, session)
}

// POST /api/v1/session/profile - update the onboarding profile
func (h *AtlasHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req models.ProfileUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	session, err := h.session.UpdateProfile(&req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, session)
}

// POST /api/v1/session/register - upgrade the guest session
func (h *AtlasHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	session, err := h.session.Register(req.Passcode)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, session)
}

// POST /api/v1/reset - weekly reset
func (h *AtlasHandler) WeeklyReset(w http.ResponseWriter, r *http.Request) {
	var opts services.ResetOptions
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	writeJSON(w, map[string]interface{}{"ok": h.session.PerformWeeklyReset(opts)})
}

// GET /api/v1/backups - backup keys, most recent first
func (h *AtlasHandler) ListBackups(w http.ResponseWriter, r *http.Request) {
	keys, err := h.session.ListBackups()
	if err != nil {
		http.Error(w, "Failed to list backups", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]interface{}{"backups": keys})
}

// POST /api/v1/backups - snapshot the data set
func (h *AtlasHandler) CreateBackup(w http.ResponseWriter, r *http.Request) {
	key, err := h.session.CreateResetBackup()
	if err != nil {
		http.Error(w, "Failed to create backup", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]interface{}{"key": key})
}

// POST /api/v1/backups/restore - restore a snapshot
func (h *AtlasHandler) RestoreBackup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	writeJSON(w, map[string]interface{}{"ok": h.session.RestoreFromBackup(req.Key)})
}

// GET /api/v1/export - full data export
func (h *AtlasHandler) Export(w http.ResponseWriter, r *http.Request) {
	export, err := h.session.ExportSessionData()
	if err != nil {
		http.Error(w, "Failed to export data", http.StatusInternalServerError)
		return
	}
	writeJSON(w, export)
}

// POST /api/v1/import - replay a data export
func (h *AtlasHandler) Import(w http.ResponseWriter, r *http.Request) {
	var export models.SessionExport
	if err := json.NewDecoder(r.Body).Decode(&export); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.session.ImportSessionData(&export); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]interface{}{"ok": true})
}

func RegisterRoutes(r *mux.Router, h *AtlasHandler) {
	r.HandleFunc("/moods", h.CheckIn).Methods("POST")
	r.HandleFunc("/moods", h.ListMoods).Methods("GET")
	r.HandleFunc("/wins", h.LogWin).Methods("POST")
	r.HandleFunc("/wins", h.ListWins).Methods("GET")
	r.HandleFunc("/patterns/weekly", h.WeeklyPattern).Methods("GET")
	r.HandleFunc("/reflections/generate", h.GenerateReflection).Methods("POST")
	r.HandleFunc("/reflections", h.ListReflections).Methods("GET")
	r.HandleFunc("/achievements", h.ListAchievements).Methods("GET")
	r.HandleFunc("/mentor/ask", h.MentorAsk).Methods("POST")
	r.HandleFunc("/mentor/threads", h.MentorThreads).Methods("GET")
	r.HandleFunc("/reading", h.ReadingState).Methods("GET")
	r.HandleFunc("/articles/{id}/progress", h.UpdateReadingProgress).Methods("POST")
	r.HandleFunc("/articles/{id}/complete", h.CompleteArticle).Methods("POST")
	r.HandleFunc("/challenges/{id}/complete", h.CompleteChallenge).Methods("POST")
	r.HandleFunc("/session", h.GetSession).Methods("GET")
	r.HandleFunc("/session", h.UpdateProfile).Methods("POST")
	r.HandleFunc("/session/profile", h.UpdateProfile).Methods("POST")
	r.HandleFunc("/session/register", h.Register).Methods("POST")
	r.HandleFunc("/reset", h.WeeklyReset).Methods("POST")
	r.HandleFunc("/backups", h.ListBackups).Methods("GET")
	r.HandleFunc("/backups", h.CreateBackup).Methods("POST")
	r.HandleFunc("/backups/restore", h.RestoreBackup).Methods("POST")
	r.HandleFunc("/export", h.Export).Methods("GET")
	r.HandleFunc("/import", h.Import).Methods("POST")
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
