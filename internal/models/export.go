package models

// SessionExport is the backup file format: one field per logical dataset
// plus the export timestamp. Absent datasets marshal as null and are
// skipped on restore.
type SessionExport struct {
	Session         *UserSession               `json:"session,omitempty"`
	MoodEntries     []MoodEntry                `json:"mood_entries,omitempty"`
	Wins            []WinEntry                 `json:"wins,omitempty"`
	Reflections     []WeeklyReflection         `json:"reflections,omitempty"`
	Achievements    []Achievement              `json:"achievements,omitempty"`
	ChatThreads     []ChatThread               `json:"chat_threads,omitempty"`
	ReadingProgress map[string]ArticleProgress `json:"reading_progress,omitempty"`
	ReadingTime     map[string]int             `json:"reading_time,omitempty"`
	Streak          *ReadingStreak             `json:"streak,omitempty"`
	Challenges      []ChallengeCompletion      `json:"challenges,omitempty"`
	ExportedAt      string                     `json:"exported_at"` // RFC3339
}
