package services

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/atlashq/atlas-web/internal/logger"
	"github.com/atlashq/atlas-web/internal/models"
	"github.com/atlashq/atlas-web/internal/storage"
)

// dataVersion is written into every new session record.
const dataVersion = 1

// backupTimeFormat keeps backup keys zero-padded so lexicographic order is
// chronological order.
const backupTimeFormat = "2006-01-02T15-04-05"

// ResetOptions selects what a weekly reset wipes. ClearAll and the
// selective flags are mutually exclusive modes; ClearAll wins.
type ResetOptions struct {
	ClearAll     bool `json:"clear_all"`
	ClearProfile bool `json:"clear_profile"`

	ClearWins        bool `json:"clear_wins"`
	ClearMoods       bool `json:"clear_moods"`
	ClearReflections bool `json:"clear_reflections"`
	ClearChats       bool `json:"clear_chats"`
	ClearReading     bool `json:"clear_reading"`
	ClearChallenges  bool `json:"clear_challenges"`
}

// SessionService owns the session record and the reset/backup/export
// utilities over the whole data set.
type SessionService struct {
	store  *storage.Store
	logger *logger.Log

	now func() time.Time
}

func NewSessionService(store *storage.Store) *SessionService {
	return &SessionService{
		store:  store,
		logger: logger.New(),
		now:    time.Now,
	}
}

// CurrentSession reads the session, creating a guest session on first use.
// LastActive is touched on every call (write-on-read).
func (s *SessionService) CurrentSession() (*models.UserSession, error) {
	session := &models.UserSession{}
	found, err := s.store.Get(storage.KeySession, session)
	if err != nil {
		s.logger.WithError(err).Warn("discarding unreadable session blob")
		found = false
	}

	if !found {
		now := s.now().Format(time.RFC3339)
		session = &models.UserSession{
			ID:          generateSessionID(),
			Type:        models.SessionGuest,
			CreatedAt:   now,
			LastActive:  now,
			DataVersion: dataVersion,
		}
	}

	session.LastActive = s.now().Format(time.RFC3339)
	if err := s.store.Set(storage.KeySession, session); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	return session, nil
}

// UpdateProfile replaces the onboarding profile.
func (s *SessionService) UpdateProfile(req *models.ProfileUpdateRequest) (*models.UserSession, error) {
	session, err := s.CurrentSession()
	if err != nil {
		return nil, err
	}

	session.Profile = &models.OnboardingProfile{
		Name:        strings.TrimSpace(req.Name),
		Intention:   strings.TrimSpace(req.Intention),
		FocusArenas: req.FocusArenas,
	}
	if err := s.store.Set(storage.KeySession, session); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}
	return session, nil
}

// Register upgrades the guest session with a local passcode.
func (s *SessionService) Register(passcode string) (*models.UserSession, error) {
	if len(passcode) < 6 {
		return nil, fmt.Errorf("passcode must be at least 6 characters")
	}

	session, err := s.CurrentSession()
	if err != nil {
		return nil, err
	}
	if session.Type == models.SessionRegistered {
		return nil, fmt.Errorf("session is already registered")
	}

	if err := session.SetPasscode(passcode); err != nil {
		return nil, fmt.Errorf("failed to hash passcode: %w", err)
	}
	session.Type = models.SessionRegistered

	if err := s.store.Set(storage.KeySession, session); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}
	return session, nil
}

// ExportSessionData snapshots every logical dataset into one backup object.
func (s *SessionService) ExportSessionData() (*models.SessionExport, error) {
	export := &models.SessionExport{
		ExportedAt: s.now().Format(time.RFC3339),
	}

	session := &models.UserSession{}
	if found, err := s.store.Get(storage.KeySession, session); err == nil && found {
		export.Session = session
	}
	s.readInto(storage.KeyMoodEntries, &export.MoodEntries)
	s.readInto(storage.KeyWins, &export.Wins)
	s.readInto(storage.KeyReflections, &export.Reflections)
	s.readInto(storage.KeyAchievements, &export.Achievements)
	s.readInto(storage.KeyChatThreads, &export.ChatThreads)
	s.readInto(storage.KeyReadingProgress, &export.ReadingProgress)
	s.readInto(storage.KeyReadingTime, &export.ReadingTime)
	s.readInto(storage.KeyChallenges, &export.Challenges)

	streak := &models.ReadingStreak{}
	if found, err := s.store.Get(storage.KeyStreak, streak); err == nil && found {
		export.Streak = streak
	}

	return export, nil
}

// ImportSessionData replays an export into the store, field by field
// through the key mapping. Absent fields are skipped; present fields
// replace whatever is stored.
func (s *SessionService) ImportSessionData(export *models.SessionExport) error {
	if export == nil {
		return fmt.Errorf("export is required")
	}

	return s.store.InTx(func(kv storage.KV) error {
		return replayExport(kv, export)
	})
}

// CreateResetBackup writes a full export under a timestamped backup key and
// returns the key.
func (s *SessionService) CreateResetBackup() (string, error) {
	session, err := s.CurrentSession()
	if err != nil {
		return "", err
	}

	export, err := s.ExportSessionData()
	if err != nil {
		return "", err
	}

	key := storage.BackupPrefix + session.ID + "_" + s.now().UTC().Format(backupTimeFormat)
	if err := s.store.Set(key, export); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}
	return key, nil
}

// ListBackups returns every backup key, most recent first.
func (s *SessionService) ListBackups() ([]string, error) {
	keys, err := s.store.Keys(storage.BackupPrefix)
	if err != nil {
		return nil, err
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	return keys, nil
}

// RestoreFromBackup wipes the live data set and replays the snapshot at
// key. The whole restore runs in one transaction so a failure part-way
// leaves the current data untouched. Reported as a boolean, never thrown.
func (s *SessionService) RestoreFromBackup(key string) bool {
	if !strings.HasPrefix(key, storage.BackupPrefix) {
		s.logger.Warn(fmt.Sprintf("refusing to restore from non-backup key %s", key))
		return false
	}

	export := &models.SessionExport{}
	found, err := s.store.Get(key, export)
	if err != nil || !found {
		s.logger.WithError(err).Warn(fmt.Sprintf("backup %s is missing or unreadable", key))
		return false
	}

	err = s.store.InTx(func(kv storage.KV) error {
		if err := deleteLiveKeys(kv, false); err != nil {
			return err
		}
		return replayExport(kv, export)
	})
	if err != nil {
		s.logger.WithError(err).Error("restore failed")
		return false
	}
	return true
}

// PerformWeeklyReset clears data per the options, snapshotting a backup
// first (best effort).
func (s *SessionService) PerformWeeklyReset(opts ResetOptions) bool {
	if _, err := s.CreateResetBackup(); err != nil {
		s.logger.WithError(err).Warn("pre-reset backup failed, continuing")
	}

	err := s.store.InTx(func(kv storage.KV) error {
		if opts.ClearAll {
			if err := deleteLiveKeys(kv, true); err != nil {
				return err
			}
			if opts.ClearProfile {
				session := &models.UserSession{}
				if found, err := kv.Get(storage.KeySession, session); err == nil && found {
					session.Profile = nil
					return kv.Set(storage.KeySession, session)
				}
			}
			return nil
		}

		var keys []string
		if opts.ClearWins {
			keys = append(keys, storage.KeyWins)
		}
		if opts.ClearMoods {
			keys = append(keys, storage.KeyMoodEntries)
		}
		if opts.ClearReflections {
			keys = append(keys, storage.KeyReflections)
		}
		if opts.ClearChats {
			keys = append(keys, storage.KeyChatThreads)
		}
		if opts.ClearReading {
			keys = append(keys, storage.KeyReadingProgress, storage.KeyReadingTime, storage.KeyStreak)
		}
		if opts.ClearChallenges {
			keys = append(keys, storage.KeyChallenges)
		}
		return kv.Delete(keys...)
	})
	if err != nil {
		s.logger.WithError(err).Error("weekly reset failed")
		return false
	}
	return true
}

func (s *SessionService) readInto(key string, dest interface{}) {
	if _, err := s.store.Get(key, dest); err != nil {
		s.logger.WithError(err).Warn(fmt.Sprintf("skipping unreadable dataset %s in export", key))
	}
}

// deleteLiveKeys removes every namespaced key except backups, optionally
// sparing the session record.
func deleteLiveKeys(kv storage.KV, keepSession bool) error {
	keys, err := kv.Keys(storage.Namespace)
	if err != nil {
		return err
	}

	var doomed []string
	for _, key := range keys {
		if strings.HasPrefix(key, storage.BackupPrefix) {
			continue
		}
		if keepSession && key == storage.KeySession {
			continue
		}
		doomed = append(doomed, key)
	}
	return kv.Delete(doomed...)
}

// replayExport is the fixed export-field to storage-key mapping.
func replayExport(kv storage.KV, export *models.SessionExport) error {
	if export.Session != nil {
		if err := kv.Set(storage.KeySession, export.Session); err != nil {
			return err
		}
	}
	if export.MoodEntries != nil {
		if err := kv.Set(storage.KeyMoodEntries, export.MoodEntries); err != nil {
			return err
		}
	}
	if export.Wins != nil {
		if err := kv.Set(storage.KeyWins, export.Wins); err != nil {
			return err
		}
	}
	if export.Reflections != nil {
		if err := kv.Set(storage.KeyReflections, export.Reflections); err != nil {
			return err
		}
	}
	if export.Achievements != nil {
		if err := kv.Set(storage.KeyAchievements, export.Achievements); err != nil {
			return err
		}
	}
	if export.ChatThreads != nil {
		if err := kv.Set(storage.KeyChatThreads, export.ChatThreads); err != nil {
			return err
		}
	}
	if export.ReadingProgress != nil {
		if err := kv.Set(storage.KeyReadingProgress, export.ReadingProgress); err != nil {
			return err
		}
	}
	if export.ReadingTime != nil {
		if err := kv.Set(storage.KeyReadingTime, export.ReadingTime); err != nil {
			return err
		}
	}
	if export.Streak != nil {
		if err := kv.Set(storage.KeyStreak, export.Streak); err != nil {
			return err
		}
	}
	if export.Challenges != nil {
		if err := kv.Set(storage.KeyChallenges, export.Challenges); err != nil {
			return err
		}
	}
	return nil
}

// Simple session ID generator
func generateSessionID() string {
	return fmt.Sprintf("session_%d_%d", time.Now().UnixNano(), rand.Intn(1000))
}
