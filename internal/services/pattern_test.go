package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/atlashq/atlas-web/internal/models"
)

// 2024-01-01 is a Monday.
var weekStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func ts(dayOffset int, hour int) string {
	return weekStart.AddDate(0, 0, dayOffset).Add(time.Duration(hour) * time.Hour).Format(time.RFC3339)
}

func TestAnalyzeWeeklyPatternEmptyWeek(t *testing.T) {
	pattern := AnalyzeWeeklyPattern(weekStart, nil, nil, nil, nil)

	assert.Equal(t, 0, pattern.TotalWins)
	for _, arena := range models.Arenas {
		assert.Equal(t, 0, pattern.WinsByArena[arena])
	}
	for _, day := range models.Weekdays {
		assert.Equal(t, 0, pattern.WinsByDay[day])
	}
	assert.Equal(t, "Monday", pattern.FocusPeakDay)
	assert.Equal(t, models.TrendStable, pattern.MoodTrend)
	assert.Empty(t, pattern.Insights)
}

func TestAnalyzeWeeklyPatternCountsWinsByArenaAndDay(t *testing.T) {
	wins := []models.WinEntry{
		{ID: "1", Arena: models.ArenaBody, Impact: models.ImpactLarge, Timestamp: ts(0, 9)},
		{ID: "2", Arena: models.ArenaMind, Impact: models.ImpactSmall, Timestamp: ts(1, 9)},
		{ID: "3", Arena: models.ArenaMind, Impact: models.ImpactSmall, Timestamp: ts(1, 15)},
		// outside the window
		{ID: "4", Arena: models.ArenaWork, Impact: models.ImpactSmall, Timestamp: ts(7, 9)},
		{ID: "5", Arena: models.ArenaWork, Impact: models.ImpactSmall, Timestamp: ts(-1, 9)},
	}

	pattern := AnalyzeWeeklyPattern(weekStart, wins, nil, nil, nil)

	assert.Equal(t, 3, pattern.TotalWins)
	assert.Equal(t, 1, pattern.WinsByArena[models.ArenaBody])
	assert.Equal(t, 2, pattern.WinsByArena[models.ArenaMind])
	assert.Equal(t, 0, pattern.WinsByArena[models.ArenaWork])
	assert.Equal(t, 1, pattern.WinsByDay["Monday"])
	assert.Equal(t, 2, pattern.WinsByDay["Tuesday"])
	assert.Equal(t, "Tuesday", pattern.FocusPeakDay)
}

func TestAnalyzeWeeklyPatternArenaInsightTemplate(t *testing.T) {
	wins := []models.WinEntry{
		{ID: "1", Arena: models.ArenaBody, Impact: models.ImpactLarge, Timestamp: ts(2, 9)},
	}

	pattern := AnalyzeWeeklyPattern(weekStart, wins, nil, nil, nil)

	// Exact template, including the unconditional plural at count=1.
	assert.Contains(t, pattern.Insights, "Body arena dominated this week with 1 wins")
}

func TestAnalyzeWeeklyPatternPeakDayInsightRequiresMoreThanOneWin(t *testing.T) {
	oneWin := []models.WinEntry{
		{ID: "1", Arena: models.ArenaMind, Timestamp: ts(3, 9)},
	}
	pattern := AnalyzeWeeklyPattern(weekStart, oneWin, nil, nil, nil)
	for _, insight := range pattern.Insights {
		assert.NotContains(t, insight, "most focused day")
	}

	twoWins := append(oneWin, models.WinEntry{ID: "2", Arena: models.ArenaMind, Timestamp: ts(3, 15)})
	pattern = AnalyzeWeeklyPattern(weekStart, twoWins, nil, nil, nil)
	assert.Contains(t, pattern.Insights, "Thursday was your most focused day with 2 wins")
}

func TestMoodTrendImproving(t *testing.T) {
	// Scores in stored order: -1, -1, +1, +1. First half avg -1, second
	// half avg +1, difference 2 > 0.3.
	moods := []models.MoodEntry{
		{Value: models.MoodStrained, Timestamp: ts(0, 8)},
		{Value: models.MoodStrained, Timestamp: ts(1, 8)},
		{Value: models.MoodCharged, Timestamp: ts(4, 8)},
		{Value: models.MoodCharged, Timestamp: ts(5, 8)},
	}

	pattern := AnalyzeWeeklyPattern(weekStart, nil, moods, nil, nil)
	assert.Equal(t, models.TrendImproving, pattern.MoodTrend)
	assert.Contains(t, pattern.Insights, "Your mood lifted as the week went on")
}

func TestMoodTrendDeclining(t *testing.T) {
	moods := []models.MoodEntry{
		{Value: models.MoodCharged, Timestamp: ts(0, 8)},
		{Value: models.MoodCharged, Timestamp: ts(1, 8)},
		{Value: models.MoodStrained, Timestamp: ts(4, 8)},
		{Value: models.MoodStrained, Timestamp: ts(5, 8)},
	}

	pattern := AnalyzeWeeklyPattern(weekStart, nil, moods, nil, nil)
	assert.Equal(t, models.TrendDeclining, pattern.MoodTrend)
}

func TestMoodTrendRequiresThreeEntries(t *testing.T) {
	moods := []models.MoodEntry{
		{Value: models.MoodStrained, Timestamp: ts(0, 8)},
		{Value: models.MoodCharged, Timestamp: ts(5, 8)},
	}

	pattern := AnalyzeWeeklyPattern(weekStart, nil, moods, nil, nil)
	assert.Equal(t, models.TrendStable, pattern.MoodTrend)
}

func TestMoodTrendCeilSplit(t *testing.T) {
	// Five entries split 3/2: first half [-1,-1,0] avg -0.667, second
	// half [+1,+1] avg +1.
	moods := []models.MoodEntry{
		{Value: models.MoodStrained, Timestamp: ts(0, 8)},
		{Value: models.MoodStrained, Timestamp: ts(1, 8)},
		{Value: models.MoodSteady, Timestamp: ts(2, 8)},
		{Value: models.MoodCharged, Timestamp: ts(4, 8)},
		{Value: models.MoodCharged, Timestamp: ts(5, 8)},
	}

	pattern := AnalyzeWeeklyPattern(weekStart, nil, moods, nil, nil)
	assert.Equal(t, models.TrendImproving, pattern.MoodTrend)
}

func TestAnalyzeWeeklyPatternCountsCollaborators(t *testing.T) {
	challenges := []models.ChallengeCompletion{
		{ID: "hydrate", CompletedAt: ts(1, 9)},
		{ID: "walk", CompletedAt: ts(8, 9)}, // outside window
	}
	mentorMessages := []models.ChatMessage{
		{Role: "user", Content: "hi", Timestamp: ts(2, 10)},
		{Role: "mentor", Content: "hello", Timestamp: ts(2, 10)},
		{Role: "user", Content: "old", Timestamp: ts(-3, 10)},
	}

	pattern := AnalyzeWeeklyPattern(weekStart, nil, nil, challenges, mentorMessages)
	assert.Equal(t, 1, pattern.ChallengesCompleted)
	assert.Equal(t, 2, pattern.MentorInteractions)
}

func TestAnalyzeWeeklyPatternSkipsUnparsableTimestamps(t *testing.T) {
	wins := []models.WinEntry{
		{ID: "1", Arena: models.ArenaMind, Timestamp: "not-a-timestamp"},
	}
	pattern := AnalyzeWeeklyPattern(weekStart, wins, nil, nil, nil)
	assert.Equal(t, 0, pattern.TotalWins)
}

func TestCurrentWeekStart(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"monday maps to itself", time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"wednesday maps back to monday", time.Date(2024, 1, 3, 8, 0, 0, 0, time.UTC), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"sunday maps back to monday", time.Date(2024, 1, 7, 23, 0, 0, 0, time.UTC), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CurrentWeekStart(tt.now))
		})
	}
}

func TestLastCompletedWeekStart(t *testing.T) {
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC) // Wednesday
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), lastCompletedWeekStart(now))
}
