package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlashq/atlas-web/internal/models"
	"github.com/atlashq/atlas-web/internal/storage"
)

func findAchievement(t *testing.T, tracker *AchievementTracker, id string) models.Achievement {
	t.Helper()
	for _, a := range tracker.Achievements() {
		if a.ID == id {
			return a
		}
	}
	t.Fatalf("achievement %s not in table", id)
	return models.Achievement{}
}

func TestTrackerSeedsDefaultCatalog(t *testing.T) {
	tracker := NewAchievementTracker(newTestStore(t))

	table := tracker.Achievements()
	assert.Len(t, table, 8)
	for _, a := range table {
		assert.NotEmpty(t, a.ID)
		assert.False(t, a.Unlocked)
		assert.Equal(t, 0, a.Progress)
		assert.Greater(t, a.MaxProgress, 0)
	}
}

func TestUpdateProgressBelowMaxDoesNotUnlock(t *testing.T) {
	tracker := NewAchievementTracker(newTestStore(t))
	listener := &recordingListener{}
	tracker.AddListener(listener)

	tracker.UpdateProgress("five_articles", 3)

	a := findAchievement(t, tracker, "five_articles")
	assert.Equal(t, 3, a.Progress)
	assert.False(t, a.Unlocked)
	assert.Empty(t, listener.unlocked)
}

func TestUpdateProgressUnlocksExactlyOnce(t *testing.T) {
	tracker := NewAchievementTracker(newTestStore(t))
	listener := &recordingListener{}
	tracker.AddListener(listener)

	tracker.UpdateProgress("first_article", 1)
	tracker.UpdateProgress("first_article", 1)
	tracker.UpdateProgress("first_article", 2)

	a := findAchievement(t, tracker, "first_article")
	assert.True(t, a.Unlocked)
	assert.NotZero(t, a.UnlockedAt)
	assert.Equal(t, []string{"first_article"}, listener.unlocked)
}

func TestUpdateProgressIsMonotonic(t *testing.T) {
	tracker := NewAchievementTracker(newTestStore(t))

	tracker.UpdateProgress("completionist", 4)
	tracker.UpdateProgress("completionist", 2)

	a := findAchievement(t, tracker, "completionist")
	assert.Equal(t, 4, a.Progress)
}

func TestUpdateProgressCapsAtMax(t *testing.T) {
	tracker := NewAchievementTracker(newTestStore(t))

	tracker.UpdateProgress("week_streak", 99)

	a := findAchievement(t, tracker, "week_streak")
	assert.Equal(t, a.MaxProgress, a.Progress)
	assert.True(t, a.Unlocked)
}

func TestUpdateProgressUnknownIDIsNoOp(t *testing.T) {
	tracker := NewAchievementTracker(newTestStore(t))
	listener := &recordingListener{}
	tracker.AddListener(listener)

	tracker.UpdateProgress("does_not_exist", 100)

	assert.Len(t, tracker.Achievements(), 8)
	assert.Empty(t, listener.unlocked)
}

func TestListenersFireInRegistrationOrderAndSurvivePanics(t *testing.T) {
	tracker := NewAchievementTracker(newTestStore(t))
	first := &recordingListener{}
	second := &recordingListener{}
	tracker.AddListener(first)
	tracker.AddListener(panickyListener{})
	tracker.AddListener(second)

	tracker.UpdateProgress("speed_reader", 1)

	assert.Equal(t, []string{"speed_reader"}, first.unlocked)
	assert.Equal(t, []string{"speed_reader"}, second.unlocked)
}

func TestRemoveListenerStopsNotifications(t *testing.T) {
	tracker := NewAchievementTracker(newTestStore(t))
	listener := &recordingListener{}
	tracker.AddListener(listener)
	tracker.RemoveListener(listener)

	tracker.UpdateProgress("first_article", 1)

	assert.Empty(t, listener.unlocked)
}

func TestOnArticleCompletedTriggers(t *testing.T) {
	tracker := NewAchievementTracker(newTestStore(t))

	tracker.OnArticleCompleted(5, 120, 2)

	assert.True(t, findAchievement(t, tracker, "first_article").Unlocked)
	assert.True(t, findAchievement(t, tracker, "five_articles").Unlocked)
	assert.True(t, findAchievement(t, tracker, "speed_reader").Unlocked)
	assert.Equal(t, 5, findAchievement(t, tracker, "completionist").Progress)
	assert.Equal(t, 2, findAchievement(t, tracker, "arena_explorer").Progress)
	assert.False(t, findAchievement(t, tracker, "arena_explorer").Unlocked)
}

func TestOnArticleCompletedSlowReadDoesNotTriggerSpeedReader(t *testing.T) {
	tracker := NewAchievementTracker(newTestStore(t))

	tracker.OnArticleCompleted(1, speedReadSeconds, 1)

	assert.False(t, findAchievement(t, tracker, "speed_reader").Unlocked)
}

func TestTrackerRehydratesFromStore(t *testing.T) {
	store := newTestStore(t)

	first := NewAchievementTracker(store)
	first.UpdateProgress("five_articles", 4)

	second := NewAchievementTracker(store)
	a := findAchievement(t, second, "five_articles")
	assert.Equal(t, 4, a.Progress)
	assert.False(t, a.Unlocked)
}

func TestTrackerFallsBackToDefaultsOnCorruptBlob(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set(storage.KeyAchievements, "not an array"))

	tracker := NewAchievementTracker(store)
	assert.Len(t, tracker.Achievements(), 8)

	require.NoError(t, store.Set(storage.KeyAchievements, []models.Achievement{{Title: "no id"}}))
	tracker = NewAchievementTracker(store)
	assert.Len(t, tracker.Achievements(), 8)
	for _, a := range tracker.Achievements() {
		assert.NotEmpty(t, a.ID)
	}
}
