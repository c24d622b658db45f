package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlashq/atlas-web/internal/models"
	"github.com/atlashq/atlas-web/internal/services"
	"github.com/atlashq/atlas-web/internal/storage"
)

// newTestRouter wires the full API against an in-memory store and no LLM.
func newTestRouter(t *testing.T) *mux.Router {
	t.Helper()
	store, err := storage.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	wins := services.NewWinService(store)
	moods := services.NewMoodService(store)
	challenges := services.NewChallengeService(store)
	mentor := services.NewMentorService(store, nil)
	tracker := services.NewAchievementTracker(store)
	reading := services.NewReadingService(store, tracker)
	session := services.NewSessionService(store)
	reflections := services.NewReflectionService(store, nil, wins, moods, challenges, mentor, tracker)

	r := mux.NewRouter()
	RegisterRoutes(r, NewAtlasHandler(wins, moods, challenges, mentor, reflections, tracker, reading, session))
	return r
}

func doJSON(t *testing.T, r *mux.Router, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestLogWinEndpoint(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/wins", models.LogWinRequest{Title: "ran 5k", Arena: "body", Impact: "medium"})
	require.Equal(t, http.StatusOK, rec.Code)

	var win models.WinEntry
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&win))
	assert.Equal(t, models.ArenaBody, win.Arena)
	assert.NotEmpty(t, win.ID)

	rec = doJSON(t, r, http.MethodGet, "/wins", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list struct {
		Wins []models.WinEntry `json:"wins"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	assert.Len(t, list.Wins, 1)
}

func TestLogWinRejectsUnknownArena(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/wins", models.LogWinRequest{Title: "x", Arena: "finance", Impact: "small"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckInEndpoint(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/moods", models.CheckInRequest{Value: "charged"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/moods", models.CheckInRequest{Value: "ecstatic"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWeeklyPatternEndpoint(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/patterns/weekly", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var pattern models.WeeklyPattern
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&pattern))
	assert.Equal(t, 0, pattern.TotalWins)

	rec = doJSON(t, r, http.MethodGet, "/patterns/weekly?week=last", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGenerateReflectionFallsBackToSample(t *testing.T) {
	r := newTestRouter(t)

	// No model configured, so generation fails and the sample is served.
	rec := doJSON(t, r, http.MethodPost, "/reflections/generate", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var reflection models.WeeklyReflection
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&reflection))
	assert.True(t, reflection.Sample)
}

func TestListReflectionsIncludesShouldGenerate(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/reflections", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Reflections    []models.WeeklyReflection `json:"reflections"`
		ShouldGenerate bool                      `json:"should_generate"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Empty(t, resp.Reflections)
	assert.True(t, resp.ShouldGenerate)
}

func TestListAchievementsResolvesGlyphs(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/achievements", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Achievements []models.AchievementView `json:"achievements"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Achievements, 8)
	for _, a := range resp.Achievements {
		assert.NotEmpty(t, a.IconGlyph, "icon key %q should resolve", a.Icon)
	}
}

func TestMentorAskWithoutModel(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/mentor/ask", models.MentorAskRequest{Message: "hello"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestArticleCompletionFlow(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/articles/a1/progress", models.ProgressUpdateRequest{Percent: 50, Seconds: 60, Arena: "mind"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/articles/a1/complete", models.CompleteArticleRequest{Seconds: 120, Arena: "mind"})
	require.Equal(t, http.StatusOK, rec.Code)

	var entry models.ArticleProgress
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&entry))
	assert.Equal(t, 100, entry.Percent)
	assert.NotEmpty(t, entry.CompletedAt)

	rec = doJSON(t, r, http.MethodGet, "/reading", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var state struct {
		Progress map[string]models.ArticleProgress `json:"progress"`
		Time     map[string]int                    `json:"time"`
		Streak   models.ReadingStreak              `json:"streak"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&state))
	assert.Equal(t, 180, state.Time["a1"])
	assert.Equal(t, 1, state.Streak.Current)
}

func TestSessionEndpoints(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/session", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var session models.UserSession
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&session))
	assert.Equal(t, models.SessionGuest, session.Type)

	rec = doJSON(t, r, http.MethodPost, "/session/register", models.RegisterRequest{Passcode: "hunter22"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/session/register", models.RegisterRequest{Passcode: "short"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBackupAndResetEndpoints(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/wins", models.LogWinRequest{Title: "before reset", Arena: "mind", Impact: "small"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/backups", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var created struct {
		Key string `json:"key"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.NotEmpty(t, created.Key)

	rec = doJSON(t, r, http.MethodPost, "/reset", services.ResetOptions{ClearAll: true})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/wins", nil)
	var list struct {
		Wins []models.WinEntry `json:"wins"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	assert.Empty(t, list.Wins)

	rec = doJSON(t, r, http.MethodPost, "/backups/restore", map[string]string{"key": created.Key})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/wins", nil)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	require.Len(t, list.Wins, 1)
	assert.Equal(t, "before reset", list.Wins[0].Title)
}
