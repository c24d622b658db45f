package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlashq/atlas-web/internal/models"
	"github.com/atlashq/atlas-web/internal/storage"
)

func newReflectionService(t *testing.T, stub *stubLLM) (*ReflectionService, *storage.Store) {
	t.Helper()
	store := newTestStore(t)

	wins := NewWinService(store)
	moods := NewMoodService(store)
	challenges := NewChallengeService(store)
	mentor := NewMentorService(store, stub)
	tracker := NewAchievementTracker(store)

	svc := NewReflectionService(store, stub, wins, moods, challenges, mentor, tracker)
	// Wednesday of the week after the fixture week, so lastCompletedWeekStart
	// lands on the fixture Monday.
	svc.now = func() time.Time { return weekStart.AddDate(0, 0, 9) }
	return svc, store
}

func TestCreateWeeklyReflectionHappyPath(t *testing.T) {
	stub := &stubLLM{
		summary: "  You showed up this week.  ",
		actions: "- Take a walk\n- Call a friend\nnot a bullet\n- Read one article",
	}
	svc, _ := newReflectionService(t, stub)

	reflection, err := svc.CreateWeeklyReflection(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "You showed up this week.", reflection.AISummary)
	assert.Equal(t, []string{"Take a walk", "Call a friend", "Read one article"}, reflection.SuggestedActions)
	assert.False(t, reflection.Sample)
	assert.Equal(t, 1, stub.summaryCalls)
	assert.Equal(t, 1, stub.actionsCalls)

	stored, err := svc.Reflections()
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, reflection.ID, stored[0].ID)
}

func TestCreateWeeklyReflectionTruncatesActions(t *testing.T) {
	stub := &stubLLM{
		summary: "ok",
		actions: "- one\n- two\n- three\n- four\n- five\n- six",
	}
	svc, _ := newReflectionService(t, stub)

	reflection, err := svc.CreateWeeklyReflection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "three", "four"}, reflection.SuggestedActions)
}

func TestCreateWeeklyReflectionSummaryFailureIsAnError(t *testing.T) {
	stub := &stubLLM{summaryErr: errStub, actions: "- unused"}
	svc, _ := newReflectionService(t, stub)

	reflection, err := svc.CreateWeeklyReflection(context.Background())
	assert.Error(t, err)
	assert.Nil(t, reflection)

	stored, err := svc.Reflections()
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestCreateWeeklyReflectionActionFailureFallsBackToGenerics(t *testing.T) {
	stub := &stubLLM{summary: "fine week", actionsErr: errStub}
	svc, _ := newReflectionService(t, stub)

	reflection, err := svc.CreateWeeklyReflection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, genericSuggestions, reflection.SuggestedActions)
}

func TestCreateWeeklyReflectionBulletlessResponseFallsBackToGenerics(t *testing.T) {
	stub := &stubLLM{summary: "fine week", actions: "Here are some thoughts with no bullet lines at all."}
	svc, _ := newReflectionService(t, stub)

	reflection, err := svc.CreateWeeklyReflection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, genericSuggestions, reflection.SuggestedActions)
}

func TestCreateWeeklyReflectionWithoutModel(t *testing.T) {
	store := newTestStore(t)
	svc := NewReflectionService(store, nil, NewWinService(store), NewMoodService(store), NewChallengeService(store), NewMentorService(store, nil), nil)

	_, err := svc.CreateWeeklyReflection(context.Background())
	assert.Error(t, err)
}

func TestReflectionsPrependNewestFirst(t *testing.T) {
	stub := &stubLLM{summary: "first", actions: "- a"}
	svc, store := newReflectionService(t, stub)

	require.NoError(t, store.Set(storage.KeyReflections, []models.WeeklyReflection{
		{ID: "older", AISummary: "old one", GeneratedAt: ts(0, 9)},
	}))

	reflection, err := svc.CreateWeeklyReflection(context.Background())
	require.NoError(t, err)

	stored, err := svc.Reflections()
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, reflection.ID, stored[0].ID)
	assert.Equal(t, "older", stored[1].ID)
}

func TestCreateWeeklyReflectionBumpsReflectionRitual(t *testing.T) {
	stub := &stubLLM{summary: "ok", actions: "- a"}
	svc, store := newReflectionService(t, stub)

	_, err := svc.CreateWeeklyReflection(context.Background())
	require.NoError(t, err)

	tracker := NewAchievementTracker(store)
	a := findAchievement(t, tracker, "reflection_ritual")
	assert.Equal(t, 1, a.Progress)
}

func TestShouldGenerateWeeklyReflection(t *testing.T) {
	stub := &stubLLM{summary: "ok", actions: "- a"}
	svc, store := newReflectionService(t, stub)

	assert.True(t, svc.ShouldGenerateWeeklyReflection(), "no reflections yet")

	stale := weekStart.AddDate(0, 0, -3).Format(time.RFC3339)
	require.NoError(t, store.Set(storage.KeyReflections, []models.WeeklyReflection{
		{ID: "stale", GeneratedAt: stale},
	}))
	assert.True(t, svc.ShouldGenerateWeeklyReflection(), "newest reflection predates last week")

	fresh := weekStart.AddDate(0, 0, 8).Format(time.RFC3339)
	require.NoError(t, store.Set(storage.KeyReflections, []models.WeeklyReflection{
		{ID: "fresh", GeneratedAt: fresh},
	}))
	assert.False(t, svc.ShouldGenerateWeeklyReflection(), "reflection already covers last week")

	require.NoError(t, store.Set(storage.KeyReflections, []models.WeeklyReflection{
		{ID: "broken", GeneratedAt: "garbage"},
	}))
	assert.True(t, svc.ShouldGenerateWeeklyReflection(), "unparsable timestamp forces regeneration")
}

func TestSampleReflection(t *testing.T) {
	svc, _ := newReflectionService(t, &stubLLM{})

	sample := svc.SampleReflection()
	assert.True(t, sample.Sample)
	assert.Equal(t, "sample", sample.ID)
	assert.NotEmpty(t, sample.AISummary)
	assert.Equal(t, genericSuggestions, sample.SuggestedActions)
}
