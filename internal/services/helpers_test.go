package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atlashq/atlas-web/internal/models"
	"github.com/atlashq/atlas-web/internal/storage"
)

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// stubLLM answers the summary and actions prompts with canned text. The
// actions prompt is recognized by its bullet instruction.
type stubLLM struct {
	summary    string
	actions    string
	summaryErr error
	actionsErr error

	summaryCalls int
	actionsCalls int
}

func (s *stubLLM) GenerateResponse(_ context.Context, prompt string) (string, error) {
	if strings.Contains(prompt, "bullets only") {
		s.actionsCalls++
		if s.actionsErr != nil {
			return "", s.actionsErr
		}
		return s.actions, nil
	}
	s.summaryCalls++
	if s.summaryErr != nil {
		return "", s.summaryErr
	}
	return s.summary, nil
}

func (s *stubLLM) IsModelAvailable(_ context.Context) error {
	return nil
}

// recordingListener collects the ids of unlocked achievements in order.
type recordingListener struct {
	unlocked []string
}

func (l *recordingListener) AchievementUnlocked(a models.Achievement) {
	l.unlocked = append(l.unlocked, a.ID)
}

// panickyListener always panics; the tracker must survive it.
type panickyListener struct{}

func (panickyListener) AchievementUnlocked(models.Achievement) {
	panic("listener exploded")
}

var errStub = fmt.Errorf("stub failure")
