package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/atlashq/atlas-web/internal/logger"
	"github.com/atlashq/atlas-web/internal/models"
	"github.com/atlashq/atlas-web/internal/storage"
)

// speedReadSeconds is the reading-session ceiling for the speed_reader badge.
const speedReadSeconds = 300

// UnlockListener receives synchronous notifications when an achievement
// unlocks. Listeners fire in registration order; a panicking listener is
// isolated so it cannot block the rest.
type UnlockListener interface {
	AchievementUnlocked(a models.Achievement)
}

// AchievementTracker keeps the badge table. It is constructed once at
// startup and passed to consumers; there is no package-level instance.
type AchievementTracker struct {
	store  *storage.Store
	logger *logger.Log

	mu           sync.Mutex
	achievements []models.Achievement
	listeners    []UnlockListener
}

func NewAchievementTracker(store *storage.Store) *AchievementTracker {
	t := &AchievementTracker{
		store:  store,
		logger: logger.New(),
	}
	t.achievements = t.hydrate()
	return t
}

// hydrate loads the persisted table, falling back to the default catalog
// when the blob is absent or fails the corruption checks.
func (t *AchievementTracker) hydrate() []models.Achievement {
	raw, ok, err := t.store.GetRaw(storage.KeyAchievements)
	if err != nil || !ok {
		if err != nil {
			t.logger.WithError(err).Warn("failed to read achievements, using defaults")
		}
		return defaultAchievements()
	}

	var stored []models.Achievement
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		t.logger.WithError(err).Warn("achievements blob is not a valid array, using defaults")
		return defaultAchievements()
	}
	for _, a := range stored {
		if a.ID == "" {
			t.logger.Warn("achievements blob has an entry without id, using defaults")
			return defaultAchievements()
		}
	}
	if len(stored) == 0 {
		return defaultAchievements()
	}
	return stored
}

// Achievements returns a copy of the current table.
func (t *AchievementTracker) Achievements() []models.Achievement {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]models.Achievement, len(t.achievements))
	copy(out, t.achievements)
	return out
}

// UpdateProgress raises the progress of one achievement. Progress is
// monotonic: the stored value never decreases. Unknown ids and already
// unlocked achievements are no-ops. Crossing maxProgress unlocks exactly
// once and notifies listeners synchronously.
func (t *AchievementTracker) UpdateProgress(id string, value int) {
	t.mu.Lock()

	var unlocked *models.Achievement
	for i := range t.achievements {
		a := &t.achievements[i]
		if a.ID != id || a.Unlocked {
			continue
		}

		if value > a.Progress {
			a.Progress = value
		}
		if a.Progress > a.MaxProgress {
			a.Progress = a.MaxProgress
		}
		if a.Progress >= a.MaxProgress {
			a.Unlocked = true
			a.UnlockedAt = time.Now().UnixMilli()
			copied := *a
			unlocked = &copied
		}
		break
	}

	if err := t.persistLocked(); err != nil {
		t.logger.WithError(err).Warn("failed to persist achievements")
	}
	listeners := make([]UnlockListener, len(t.listeners))
	copy(listeners, t.listeners)
	t.mu.Unlock()

	if unlocked != nil {
		t.logger.Info(fmt.Sprintf("achievement unlocked: %s", unlocked.Title))
		for _, l := range listeners {
			notifyListener(l, *unlocked)
		}
	}
}

func notifyListener(l UnlockListener, a models.Achievement) {
	defer func() {
		if r := recover(); r != nil {
			logger.New().Warn(fmt.Sprintf("unlock listener panicked: %v", r))
		}
	}()
	l.AchievementUnlocked(a)
}

func (t *AchievementTracker) persistLocked() error {
	return t.store.Set(storage.KeyAchievements, t.achievements)
}

// AddListener registers an unlock listener.
func (t *AchievementTracker) AddListener(l UnlockListener) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, l)
}

// RemoveListener removes a previously registered listener.
func (t *AchievementTracker) RemoveListener(l UnlockListener) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, existing := range t.listeners {
		if existing == l {
			t.listeners = append(t.listeners[:i], t.listeners[i+1:]...)
			return
		}
	}
}

// OnArticleCompleted applies every article-completion trigger. All checks
// run unconditionally on each call; the table is small and fixed.
// completedArticles is the running total, readSeconds the length of this
// reading session, distinctArenas how many arenas have a completed article.
func (t *AchievementTracker) OnArticleCompleted(completedArticles, readSeconds, distinctArenas int) {
	t.UpdateProgress("first_article", completedArticles)
	t.UpdateProgress("five_articles", completedArticles)
	t.UpdateProgress("completionist", completedArticles)
	if readSeconds > 0 && readSeconds < speedReadSeconds {
		t.UpdateProgress("speed_reader", 1)
	}
	t.UpdateProgress("arena_explorer", distinctArenas)
}

// OnReflectionCompleted applies the reflection trigger with the running
// total of generated reflections.
func (t *AchievementTracker) OnReflectionCompleted(totalReflections int) {
	t.UpdateProgress("reflection_ritual", totalReflections)
}

// OnDailyReadingStreak applies the streak triggers with the current
// consecutive-day count.
func (t *AchievementTracker) OnDailyReadingStreak(days int) {
	t.UpdateProgress("week_streak", days)
	t.UpdateProgress("month_streak", days)
}

// defaultAchievements is the fixed catalog the tracker seeds from.
func defaultAchievements() []models.Achievement {
	return []models.Achievement{
		{ID: "first_article", Icon: "book-open", Title: "First Steps", Description: "Complete your first article", Rarity: models.RarityCommon, Category: "reading", MaxProgress: 1},
		{ID: "five_articles", Icon: "books", Title: "Getting Traction", Description: "Complete five articles", Rarity: models.RarityCommon, Category: "reading", MaxProgress: 5},
		{ID: "speed_reader", Icon: "zap", Title: "Speed Reader", Description: "Finish an article in under five minutes", Rarity: models.RarityRare, Category: "reading", MaxProgress: 1},
		{ID: "completionist", Icon: "trophy", Title: "Completionist", Description: "Complete every article in the library", Rarity: models.RarityEpic, Category: "completion", MaxProgress: 20},
		{ID: "week_streak", Icon: "flame", Title: "Seven in a Row", Description: "Read every day for a week", Rarity: models.RarityRare, Category: "streak", MaxProgress: 7},
		{ID: "month_streak", Icon: "calendar", Title: "Iron Month", Description: "Read every day for thirty days", Rarity: models.RarityLegendary, Category: "streak", MaxProgress: 30},
		{ID: "reflection_ritual", Icon: "mirror", Title: "Reflection Ritual", Description: "Generate four weekly reflections", Rarity: models.RarityEpic, Category: "engagement", MaxProgress: 4},
		{ID: "arena_explorer", Icon: "compass", Title: "Arena Explorer", Description: "Complete an article in all five arenas", Rarity: models.RarityEpic, Category: "mastery", MaxProgress: 5},
	}
}
