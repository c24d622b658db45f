package models

// WeeklyReflection is an AI-generated narrative over one week's pattern,
// plus suggested next actions. Never mutated after creation.
type WeeklyReflection struct {
	ID               string        `json:"id"`
	WeekPattern      WeeklyPattern `json:"week_pattern"`
	AISummary        string        `json:"ai_summary"`
	SuggestedActions []string      `json:"suggested_actions"`
	GeneratedAt      string        `json:"generated_at"` // RFC3339
	Sample           bool          `json:"sample,omitempty"`
}
