package services

import (
	"fmt"
	"time"

	"github.com/atlashq/atlas-web/internal/logger"
	"github.com/atlashq/atlas-web/internal/models"
	"github.com/atlashq/atlas-web/internal/storage"
)

// ReadingService tracks per-article progress, accumulated reading time and
// the daily reading streak, and fires achievement triggers on completion.
type ReadingService struct {
	store   *storage.Store
	tracker *AchievementTracker
	logger  *logger.Log

	now func() time.Time
}

func NewReadingService(store *storage.Store, tracker *AchievementTracker) *ReadingService {
	return &ReadingService{
		store:   store,
		tracker: tracker,
		logger:  logger.New(),
		now:     time.Now,
	}
}

// UpdateProgress records partial progress through an article. Progress is
// monotonic per article; a lower percent than what is stored is ignored.
func (s *ReadingService) UpdateProgress(articleID string, req *models.ProgressUpdateRequest) (*models.ArticleProgress, error) {
	if articleID == "" {
		return nil, fmt.Errorf("article id is required")
	}
	if req.Percent < 0 || req.Percent > 100 {
		return nil, fmt.Errorf("percent must be between 0 and 100")
	}

	progress, err := s.Progress()
	if err != nil {
		return nil, err
	}

	entry := progress[articleID]
	if req.Percent > entry.Percent {
		entry.Percent = req.Percent
	}
	if arena := models.Arena(req.Arena); arenaKnown(arena) {
		entry.Arena = arena
	}
	entry.UpdatedAt = s.now().Format(time.RFC3339)
	progress[articleID] = entry

	if err := s.store.Set(storage.KeyReadingProgress, progress); err != nil {
		return nil, fmt.Errorf("failed to persist reading progress: %w", err)
	}

	if req.Seconds > 0 {
		if err := s.addReadingTime(articleID, req.Seconds); err != nil {
			return nil, err
		}
	}

	return &entry, nil
}

// CompleteArticle marks an article finished, bumps the daily streak and
// applies the achievement triggers.
func (s *ReadingService) CompleteArticle(articleID string, req *models.CompleteArticleRequest) (*models.ArticleProgress, error) {
	if articleID == "" {
		return nil, fmt.Errorf("article id is required")
	}

	progress, err := s.Progress()
	if err != nil {
		return nil, err
	}

	now := s.now().Format(time.RFC3339)
	entry := progress[articleID]
	entry.Percent = 100
	if entry.CompletedAt == "" {
		entry.CompletedAt = now
	}
	if arena := models.Arena(req.Arena); arenaKnown(arena) {
		entry.Arena = arena
	}
	entry.UpdatedAt = now
	progress[articleID] = entry

	if err := s.store.Set(storage.KeyReadingProgress, progress); err != nil {
		return nil, fmt.Errorf("failed to persist reading progress: %w", err)
	}
	if req.Seconds > 0 {
		if err := s.addReadingTime(articleID, req.Seconds); err != nil {
			return nil, err
		}
	}

	streak, err := s.bumpStreak()
	if err != nil {
		return nil, err
	}

	completed, arenas := 0, map[models.Arena]bool{}
	for _, p := range progress {
		if p.CompletedAt == "" {
			continue
		}
		completed++
		if p.Arena != "" {
			arenas[p.Arena] = true
		}
	}

	if s.tracker != nil {
		s.tracker.OnArticleCompleted(completed, req.Seconds, len(arenas))
		s.tracker.OnDailyReadingStreak(streak.Current)
	}

	return &entry, nil
}

// Progress returns the per-article progress map. A corrupt or missing blob
// yields an empty map.
func (s *ReadingService) Progress() (map[string]models.ArticleProgress, error) {
	progress := map[string]models.ArticleProgress{}
	if _, err := s.store.Get(storage.KeyReadingProgress, &progress); err != nil {
		s.logger.WithError(err).Warn("discarding unreadable reading progress blob")
		return map[string]models.ArticleProgress{}, nil
	}
	return progress, nil
}

// ReadingTime returns accumulated seconds per article.
func (s *ReadingService) ReadingTime() (map[string]int, error) {
	times := map[string]int{}
	if _, err := s.store.Get(storage.KeyReadingTime, &times); err != nil {
		s.logger.WithError(err).Warn("discarding unreadable reading time blob")
		return map[string]int{}, nil
	}
	return times, nil
}

// Streak returns the current consecutive-day reading counter.
func (s *ReadingService) Streak() (models.ReadingStreak, error) {
	streak := models.ReadingStreak{}
	if _, err := s.store.Get(storage.KeyStreak, &streak); err != nil {
		s.logger.WithError(err).Warn("discarding unreadable streak blob")
		return models.ReadingStreak{}, nil
	}
	return streak, nil
}

func (s *ReadingService) addReadingTime(articleID string, seconds int) error {
	times, err := s.ReadingTime()
	if err != nil {
		return err
	}
	times[articleID] += seconds
	if err := s.store.Set(storage.KeyReadingTime, times); err != nil {
		return fmt.Errorf("failed to persist reading time: %w", err)
	}
	return nil
}

// bumpStreak advances the consecutive-day counter: same day is a no-op,
// the day after extends, anything else restarts at one.
func (s *ReadingService) bumpStreak() (models.ReadingStreak, error) {
	streak, err := s.Streak()
	if err != nil {
		return streak, err
	}

	today := s.now().Format("2006-01-02")
	yesterday := s.now().AddDate(0, 0, -1).Format("2006-01-02")

	switch streak.LastDay {
	case today:
		// already counted today
	case yesterday:
		streak.Current++
		streak.LastDay = today
	default:
		streak.Current = 1
		streak.LastDay = today
	}
	if streak.Current > streak.Longest {
		streak.Longest = streak.Current
	}

	if err := s.store.Set(storage.KeyStreak, streak); err != nil {
		return streak, fmt.Errorf("failed to persist streak: %w", err)
	}
	return streak, nil
}

func arenaKnown(arena models.Arena) bool {
	for _, a := range models.Arenas {
		if a == arena {
			return true
		}
	}
	return false
}
