package models

// MoodValue is the three-state mood scale used by check-ins.
type MoodValue string

const (
	MoodCharged  MoodValue = "charged"
	MoodSteady   MoodValue = "steady"
	MoodStrained MoodValue = "strained"
)

var MoodValues = []MoodValue{MoodCharged, MoodSteady, MoodStrained}

// Score maps a mood to the numeric value used by trend analysis.
func (m MoodValue) Score() float64 {
	switch m {
	case MoodCharged:
		return 1
	case MoodStrained:
		return -1
	default:
		return 0
	}
}

// MoodEntry is a single mood check-in. Entries are immutable and kept in
// insertion order; multiple entries per day are allowed.
type MoodEntry struct {
	Value     MoodValue `json:"value"`
	Note      string    `json:"note,omitempty"`
	Timestamp string    `json:"timestamp"` // RFC3339
}

type CheckInRequest struct {
	Value string `json:"value" validate:"required"`
	Note  string `json:"note" validate:"max=300"`
}
