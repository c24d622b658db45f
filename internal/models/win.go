package models

// Arena is one of the five fixed life-domains used to categorize wins.
type Arena string

const (
	ArenaMind  Arena = "mind"
	ArenaHeart Arena = "heart"
	ArenaBody  Arena = "body"
	ArenaSoul  Arena = "soul"
	ArenaWork  Arena = "work"
)

// Arenas lists every arena in canonical order.
var Arenas = []Arena{ArenaMind, ArenaHeart, ArenaBody, ArenaSoul, ArenaWork}

type Impact string

const (
	ImpactSmall  Impact = "small"
	ImpactMedium Impact = "medium"
	ImpactLarge  Impact = "large"
)

var Impacts = []Impact{ImpactSmall, ImpactMedium, ImpactLarge}

// WinEntry is a user-logged accomplishment. Entries are immutable once
// stored and kept newest-first.
type WinEntry struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Arena       Arena  `json:"arena"`
	Impact      Impact `json:"impact"`
	Timestamp   string `json:"timestamp"` // RFC3339
}

// LogWinRequest is the payload for logging a new win.
type LogWinRequest struct {
	Title       string `json:"title" validate:"required,min=1,max=120"`
	Description string `json:"description" validate:"max=500"`
	Arena       string `json:"arena" validate:"required"`
	Impact      string `json:"impact" validate:"required"`
}
