package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/atlashq/atlas-web/internal/logger"
	"github.com/atlashq/atlas-web/internal/models"
	"github.com/atlashq/atlas-web/internal/storage"
)

// MoodService is the append-only mood check-in log. Entries keep insertion
// order; the UI discourages multiple check-ins per day but nothing here
// enforces it.
type MoodService struct {
	store  *storage.Store
	logger *logger.Log
}

func NewMoodService(store *storage.Store) *MoodService {
	return &MoodService{store: store, logger: logger.New()}
}

// CheckIn appends a new mood entry.
func (s *MoodService) CheckIn(req *models.CheckInRequest) (*models.MoodEntry, error) {
	value, err := normalizeMood(req.Value)
	if err != nil {
		return nil, err
	}

	entry := models.MoodEntry{
		Value:     value,
		Note:      strings.TrimSpace(req.Note),
		Timestamp: time.Now().Format(time.RFC3339),
	}

	entries, err := s.Entries()
	if err != nil {
		return nil, err
	}

	entries = append(entries, entry)
	if err := s.store.Set(storage.KeyMoodEntries, entries); err != nil {
		return nil, fmt.Errorf("failed to persist mood entry: %w", err)
	}

	return &entry, nil
}

// Entries returns all check-ins in insertion order. A corrupt or missing
// blob yields an empty list.
func (s *MoodService) Entries() ([]models.MoodEntry, error) {
	entries := []models.MoodEntry{}
	if _, err := s.store.Get(storage.KeyMoodEntries, &entries); err != nil {
		s.logger.WithError(err).Warn("discarding unreadable mood blob")
		return []models.MoodEntry{}, nil
	}
	return entries, nil
}

func normalizeMood(input string) (models.MoodValue, error) {
	in := strings.ToLower(strings.TrimSpace(input))
	for _, value := range models.MoodValues {
		if in == string(value) {
			return value, nil
		}
	}
	return "", fmt.Errorf("unknown mood value: %q", input)
}
