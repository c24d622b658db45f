package services

import (
	"fmt"
	"time"

	"github.com/atlashq/atlas-web/internal/logger"
	"github.com/atlashq/atlas-web/internal/models"
	"github.com/atlashq/atlas-web/internal/storage"
)

// ChallengeService records completed challenges so the weekly analyzer can
// count them.
type ChallengeService struct {
	store  *storage.Store
	logger *logger.Log
}

func NewChallengeService(store *storage.Store) *ChallengeService {
	return &ChallengeService{store: store, logger: logger.New()}
}

// CompleteChallenge appends a completion record.
func (s *ChallengeService) CompleteChallenge(challengeID string) (*models.ChallengeCompletion, error) {
	if challengeID == "" {
		return nil, fmt.Errorf("challenge id is required")
	}

	completion := models.ChallengeCompletion{
		ID:          challengeID,
		CompletedAt: time.Now().Format(time.RFC3339),
	}

	completions, err := s.Completions()
	if err != nil {
		return nil, err
	}

	completions = append(completions, completion)
	if err := s.store.Set(storage.KeyChallenges, completions); err != nil {
		return nil, fmt.Errorf("failed to persist challenge completion: %w", err)
	}

	return &completion, nil
}

// Completions returns all recorded completions in insertion order.
func (s *ChallengeService) Completions() ([]models.ChallengeCompletion, error) {
	completions := []models.ChallengeCompletion{}
	if _, err := s.store.Get(storage.KeyChallenges, &completions); err != nil {
		s.logger.WithError(err).Warn("discarding unreadable challenge blob")
		return []models.ChallengeCompletion{}, nil
	}
	return completions, nil
}
