package models

// MoodTrend classifies the week's mood direction.
type MoodTrend string

const (
	TrendImproving MoodTrend = "improving"
	TrendStable    MoodTrend = "stable"
	TrendDeclining MoodTrend = "declining"
)

// Weekdays in analysis order. The peak-day accumulator starts on Monday,
// so an empty week reports Monday.
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// WeeklyPattern is the derived aggregate over one Monday-start week. It is
// computed on demand and never stored on its own.
type WeeklyPattern struct {
	WeekStart           string         `json:"week_start"` // RFC3339
	TotalWins           int            `json:"total_wins"`
	WinsByArena         map[Arena]int  `json:"wins_by_arena"` // all five arenas always present
	WinsByDay           map[string]int `json:"wins_by_day"`   // all seven weekday names always present
	MoodTrend           MoodTrend      `json:"mood_trend"`
	FocusPeakDay        string         `json:"focus_peak_day"`
	ChallengesCompleted int            `json:"challenges_completed"`
	MentorInteractions  int            `json:"mentor_interactions"`
	Insights            []string       `json:"insights"`
}

// ChallengeCompletion records a finished challenge for pattern analysis.
type ChallengeCompletion struct {
	ID          string `json:"id"`
	CompletedAt string `json:"completed_at"` // RFC3339
}
