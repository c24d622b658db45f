package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/atlashq/atlas-web/internal/llm"
	"github.com/atlashq/atlas-web/internal/logger"
	"github.com/atlashq/atlas-web/internal/models"
	"github.com/atlashq/atlas-web/internal/storage"
)

// bulletMarker is the only marker the suggestions parser recognizes.
const bulletMarker = "- "

// maxSuggestedActions caps the parsed suggestion list.
const maxSuggestedActions = 4

// genericSuggestions is the fallback when the suggestions call fails. The
// summary path has no such fallback and returns an error instead; that
// asymmetry is inherited behavior, kept deliberately.
var genericSuggestions = []string{
	"Pick one small win to aim for tomorrow morning",
	"Schedule a short check-in with yourself mid-week",
	"Revisit the arena you gave the least attention last week",
}

// ReflectionService generates and stores weekly reflections.
type ReflectionService struct {
	store      *storage.Store
	llm        llm.LLM
	wins       *WinService
	moods      *MoodService
	challenges *ChallengeService
	mentor     *MentorService
	tracker    *AchievementTracker
	logger     *logger.Log

	now func() time.Time
}

func NewReflectionService(store *storage.Store, llmClient llm.LLM, wins *WinService, moods *MoodService, challenges *ChallengeService, mentor *MentorService, tracker *AchievementTracker) *ReflectionService {
	return &ReflectionService{
		store:      store,
		llm:        llmClient,
		wins:       wins,
		moods:      moods,
		challenges: challenges,
		mentor:     mentor,
		tracker:    tracker,
		logger:     logger.New(),
		now:        time.Now,
	}
}

// CreateWeeklyReflection analyzes the most recently completed Monday-start
// week (never the in-progress one), asks the mentor model for a narrative
// and suggested actions, and persists the result. Returns an error when the
// narrative call fails; callers fall back to SampleReflection.
func (s *ReflectionService) CreateWeeklyReflection(ctx context.Context) (*models.WeeklyReflection, error) {
	if s.llm == nil {
		return nil, fmt.Errorf("no reflection model configured")
	}

	wins, err := s.wins.Wins()
	if err != nil {
		return nil, err
	}
	moods, err := s.moods.Entries()
	if err != nil {
		return nil, err
	}
	challenges, err := s.challenges.Completions()
	if err != nil {
		return nil, err
	}
	mentorMessages, err := s.mentor.AllMessages()
	if err != nil {
		return nil, err
	}

	weekStart := lastCompletedWeekStart(s.now())
	current := AnalyzeWeeklyPattern(weekStart, wins, moods, challenges, mentorMessages)
	prior := AnalyzeWeeklyPattern(weekStart.AddDate(0, 0, -7), wins, moods, challenges, mentorMessages)

	summary, err := s.llm.GenerateResponse(ctx, buildSummaryPrompt(&current, &prior))
	if err != nil {
		s.logger.WithError(err).Warn("reflection summary failed")
		return nil, fmt.Errorf("reflection summary failed: %w", err)
	}

	// A failed suggestions call degrades to generic text instead of failing
	// the whole reflection.
	actions := genericSuggestions
	if raw, err := s.llm.GenerateResponse(ctx, buildActionsPrompt(&current)); err != nil {
		s.logger.WithError(err).Warn("suggested actions failed, using generic suggestions")
	} else if parsed := parseSuggestedActions(raw); len(parsed) > 0 {
		actions = parsed
	}

	reflection := models.WeeklyReflection{
		ID:               uuid.NewString(),
		WeekPattern:      current,
		AISummary:        strings.TrimSpace(summary),
		SuggestedActions: actions,
		GeneratedAt:      s.now().Format(time.RFC3339),
	}

	if err := s.persist(reflection); err != nil {
		return nil, err
	}

	if s.tracker != nil {
		reflections, _ := s.Reflections()
		s.tracker.OnReflectionCompleted(len(reflections))
	}

	return &reflection, nil
}

// Reflections returns all stored reflections, newest first.
func (s *ReflectionService) Reflections() ([]models.WeeklyReflection, error) {
	reflections := []models.WeeklyReflection{}
	if _, err := s.store.Get(storage.KeyReflections, &reflections); err != nil {
		s.logger.WithError(err).Warn("discarding unreadable reflections blob")
		return []models.WeeklyReflection{}, nil
	}
	return reflections, nil
}

// ShouldGenerateWeeklyReflection reports whether the newest reflection is
// missing or predates the start of last week. It does not gate concurrent
// generation; callers are responsible for frequency.
func (s *ReflectionService) ShouldGenerateWeeklyReflection() bool {
	reflections, err := s.Reflections()
	if err != nil || len(reflections) == 0 {
		return true
	}

	generatedAt, ok := parseTimestamp(reflections[0].GeneratedAt)
	if !ok {
		return true
	}
	return generatedAt.Before(lastCompletedWeekStart(s.now()))
}

// SampleReflection is the hardcoded fallback shown when generation fails.
func (s *ReflectionService) SampleReflection() models.WeeklyReflection {
	weekStart := lastCompletedWeekStart(s.now())
	pattern := AnalyzeWeeklyPattern(weekStart, nil, nil, nil, nil)

	return models.WeeklyReflection{
		ID:          "sample",
		WeekPattern: pattern,
		AISummary: "This is a quiet week on paper, but quiet weeks are where habits are built. " +
			"Log a win or two and check in with your mood, and next week's reflection will have something real to work with.",
		SuggestedActions: genericSuggestions,
		GeneratedAt:      s.now().Format(time.RFC3339),
		Sample:           true,
	}
}

// persist dedups by id and prepends. The list is unbounded; growth is
// limited in practice by one reflection per week.
func (s *ReflectionService) persist(reflection models.WeeklyReflection) error {
	reflections, err := s.Reflections()
	if err != nil {
		return err
	}

	kept := make([]models.WeeklyReflection, 0, len(reflections)+1)
	kept = append(kept, reflection)
	for _, existing := range reflections {
		if existing.ID != reflection.ID {
			kept = append(kept, existing)
		}
	}

	if err := s.store.Set(storage.KeyReflections, kept); err != nil {
		return fmt.Errorf("failed to persist reflection: %w", err)
	}
	return nil
}

func buildSummaryPrompt(current, prior *models.WeeklyPattern) string {
	var b strings.Builder

	b.WriteString(`You are Atlas, a warm, direct personal mentor writing a short weekly reflection for the user.

THIS WEEK:
`)
	writePatternFacts(&b, current)

	b.WriteString("\nLAST WEEK, FOR COMPARISON:\n")
	writePatternFacts(&b, prior)

	b.WriteString(`
INSTRUCTIONS:
- Write one short narrative paragraph, 3 to 5 sentences
- Speak directly to the user ("you"), warm but honest
- Mention the strongest arena and the mood direction
- Do not invent events that are not in the numbers
- Plain text only, no headings, no bullets`)

	return b.String()
}

func buildActionsPrompt(current *models.WeeklyPattern) string {
	var b strings.Builder

	b.WriteString("You are Atlas, a personal mentor. Based on this week's numbers, suggest concrete actions for next week.\n\nTHIS WEEK:\n")
	writePatternFacts(&b, current)

	b.WriteString(`
INSTRUCTIONS:
- Suggest 3 or 4 actions
- One line each, starting with "- "
- Small and specific, doable in under 30 minutes
- No preamble, no closing line, bullets only`)

	return b.String()
}

func writePatternFacts(b *strings.Builder, p *models.WeeklyPattern) {
	fmt.Fprintf(b, "- Total wins: %d\n", p.TotalWins)
	for _, arena := range models.Arenas {
		if p.WinsByArena[arena] > 0 {
			fmt.Fprintf(b, "- Wins in %s: %d\n", arena, p.WinsByArena[arena])
		}
	}
	fmt.Fprintf(b, "- Peak day: %s\n", p.FocusPeakDay)
	fmt.Fprintf(b, "- Mood trend: %s\n", p.MoodTrend)
	fmt.Fprintf(b, "- Challenges completed: %d\n", p.ChallengesCompleted)
	fmt.Fprintf(b, "- Mentor conversations: %d\n", p.MentorInteractions)
}

// parseSuggestedActions scans the response for bullet lines and keeps at
// most four. The response is otherwise treated as opaque text.
func parseSuggestedActions(response string) []string {
	var actions []string
	for _, line := range strings.Split(response, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, bulletMarker) {
			continue
		}
		action := strings.TrimSpace(strings.TrimPrefix(trimmed, bulletMarker))
		if action == "" {
			continue
		}
		actions = append(actions, action)
		if len(actions) == maxSuggestedActions {
			break
		}
	}
	return actions
}
