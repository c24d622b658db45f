package services

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/atlashq/atlas-web/internal/models"
)

// moodTrendThreshold is the minimum half-over-half average shift that
// counts as a real trend.
const moodTrendThreshold = 0.3

// AnalyzeWeeklyPattern aggregates one Monday-start week of activity into a
// WeeklyPattern. Pure function: no I/O, inputs are not mutated.
//
// The window is [weekStart, weekStart+6d] inclusive. Records whose
// timestamps fail to parse are skipped.
func AnalyzeWeeklyPattern(weekStart time.Time, wins []models.WinEntry, moods []models.MoodEntry, challenges []models.ChallengeCompletion, mentorMessages []models.ChatMessage) models.WeeklyPattern {
	weekStart = startOfDay(weekStart)
	weekEnd := weekStart.AddDate(0, 0, 7) // exclusive

	pattern := models.WeeklyPattern{
		WeekStart:   weekStart.Format(time.RFC3339),
		WinsByArena: make(map[models.Arena]int, len(models.Arenas)),
		WinsByDay:   make(map[string]int, len(models.Weekdays)),
		MoodTrend:   models.TrendStable,
	}

	// Arenas and days absent from the data still appear with count 0.
	for _, arena := range models.Arenas {
		pattern.WinsByArena[arena] = 0
	}
	for _, day := range models.Weekdays {
		pattern.WinsByDay[day] = 0
	}

	for _, win := range wins {
		ts, ok := parseTimestamp(win.Timestamp)
		if !ok || !inWindow(ts, weekStart, weekEnd) {
			continue
		}
		pattern.TotalWins++
		pattern.WinsByArena[win.Arena]++
		pattern.WinsByDay[ts.Weekday().String()]++
	}

	// Peak day: strictly greatest count, accumulator starts {Monday, 0} so
	// an empty week reports Monday.
	peakDay, peakCount := "Monday", 0
	for _, day := range models.Weekdays {
		if pattern.WinsByDay[day] > peakCount {
			peakDay, peakCount = day, pattern.WinsByDay[day]
		}
	}
	pattern.FocusPeakDay = peakDay

	var weekMoods []models.MoodEntry
	for _, mood := range moods {
		ts, ok := parseTimestamp(mood.Timestamp)
		if ok && inWindow(ts, weekStart, weekEnd) {
			weekMoods = append(weekMoods, mood)
		}
	}
	pattern.MoodTrend = classifyMoodTrend(weekMoods)

	for _, challenge := range challenges {
		ts, ok := parseTimestamp(challenge.CompletedAt)
		if ok && inWindow(ts, weekStart, weekEnd) {
			pattern.ChallengesCompleted++
		}
	}

	for _, msg := range mentorMessages {
		ts, ok := parseTimestamp(msg.Timestamp)
		if ok && inWindow(ts, weekStart, weekEnd) {
			pattern.MentorInteractions++
		}
	}

	pattern.Insights = buildInsights(&pattern, peakDay, peakCount)

	return pattern
}

// classifyMoodTrend compares the averages of the first and second halves of
// the entries in as-stored order. Fewer than three entries is always stable.
func classifyMoodTrend(moods []models.MoodEntry) models.MoodTrend {
	if len(moods) < 3 {
		return models.TrendStable
	}

	split := int(math.Ceil(float64(len(moods)) / 2))
	first, second := moods[:split], moods[split:]

	diff := averageScore(second) - averageScore(first)
	switch {
	case diff > moodTrendThreshold:
		return models.TrendImproving
	case diff < -moodTrendThreshold:
		return models.TrendDeclining
	default:
		return models.TrendStable
	}
}

func averageScore(moods []models.MoodEntry) float64 {
	if len(moods) == 0 {
		return 0
	}
	var sum float64
	for _, mood := range moods {
		sum += mood.Value.Score()
	}
	return sum / float64(len(moods))
}

// buildInsights produces the fixed-template insight strings. Fully
// deterministic given the pattern.
func buildInsights(p *models.WeeklyPattern, peakDay string, peakCount int) []string {
	insights := []string{}

	topArena, topCount := models.Arena(""), 0
	for _, arena := range models.Arenas {
		if p.WinsByArena[arena] > topCount {
			topArena, topCount = arena, p.WinsByArena[arena]
		}
	}
	if topCount > 0 {
		insights = append(insights, fmt.Sprintf("%s arena dominated this week with %d wins", capitalize(string(topArena)), topCount))
	}

	if peakCount > 1 {
		insights = append(insights, fmt.Sprintf("%s was your most focused day with %d wins", peakDay, peakCount))
	}

	switch p.MoodTrend {
	case models.TrendImproving:
		insights = append(insights, "Your mood lifted as the week went on")
	case models.TrendDeclining:
		insights = append(insights, "Your mood dipped as the week went on - take it easier next week")
	}

	return insights
}

// lastCompletedWeekStart returns the Monday that starts the most recently
// completed week, i.e. never the in-progress week.
func lastCompletedWeekStart(now time.Time) time.Time {
	return CurrentWeekStart(now).AddDate(0, 0, -7)
}

// CurrentWeekStart returns the Monday starting the week containing now.
func CurrentWeekStart(now time.Time) time.Time {
	day := startOfDay(now)
	offset := (int(day.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	return day.AddDate(0, 0, -offset)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func inWindow(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}

func parseTimestamp(ts string) (time.Time, bool) {
	parsed, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
