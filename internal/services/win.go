package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/closestmatch"

	"github.com/atlashq/atlas-web/internal/logger"
	"github.com/atlashq/atlas-web/internal/models"
	"github.com/atlashq/atlas-web/internal/storage"
)

// WinService is the append-only wins journal.
type WinService struct {
	store  *storage.Store
	logger *logger.Log

	arenaMatcher  *closestmatch.ClosestMatch
	impactMatcher *closestmatch.ClosestMatch
}

func NewWinService(store *storage.Store) *WinService {
	arenas := make([]string, len(models.Arenas))
	for i, a := range models.Arenas {
		arenas[i] = string(a)
	}
	impacts := make([]string, len(models.Impacts))
	for i, im := range models.Impacts {
		impacts[i] = string(im)
	}

	return &WinService{
		store:         store,
		logger:        logger.New(),
		arenaMatcher:  closestmatch.New(arenas, []int{2}),
		impactMatcher: closestmatch.New(impacts, []int{2}),
	}
}

// LogWin appends a new win. The entry is immutable once stored and the list
// is kept newest-first.
func (s *WinService) LogWin(req *models.LogWinRequest) (*models.WinEntry, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("title is required")
	}

	arena, err := s.NormalizeArena(req.Arena)
	if err != nil {
		return nil, err
	}
	impact, err := s.normalizeImpact(req.Impact)
	if err != nil {
		return nil, err
	}

	entry := models.WinEntry{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Arena:       arena,
		Impact:      impact,
		Timestamp:   time.Now().Format(time.RFC3339),
	}

	wins, err := s.Wins()
	if err != nil {
		return nil, err
	}

	wins = append([]models.WinEntry{entry}, wins...)
	if err := s.store.Set(storage.KeyWins, wins); err != nil {
		return nil, fmt.Errorf("failed to persist win: %w", err)
	}

	return &entry, nil
}

// Wins returns the full journal, newest first. A corrupt or missing blob
// yields an empty list.
func (s *WinService) Wins() ([]models.WinEntry, error) {
	wins := []models.WinEntry{}
	if _, err := s.store.Get(storage.KeyWins, &wins); err != nil {
		s.logger.WithError(err).Warn("discarding unreadable wins blob")
		return []models.WinEntry{}, nil
	}
	return wins, nil
}

// NormalizeArena resolves user input like "Body" or "bod" to an arena enum.
// Inputs that don't resolve to a known arena are rejected.
func (s *WinService) NormalizeArena(input string) (models.Arena, error) {
	in := strings.ToLower(strings.TrimSpace(input))
	for _, arena := range models.Arenas {
		if in == string(arena) {
			return arena, nil
		}
	}
	if match := s.arenaMatcher.Closest(in); match != "" && strings.HasPrefix(match, in) && in != "" {
		return models.Arena(match), nil
	}
	return "", fmt.Errorf("unknown arena: %q", input)
}

func (s *WinService) normalizeImpact(input string) (models.Impact, error) {
	in := strings.ToLower(strings.TrimSpace(input))
	for _, impact := range models.Impacts {
		if in == string(impact) {
			return impact, nil
		}
	}
	if match := s.impactMatcher.Closest(in); match != "" && strings.HasPrefix(match, in) && in != "" {
		return models.Impact(match), nil
	}
	return "", fmt.Errorf("unknown impact: %q", input)
}
