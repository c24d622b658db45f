package models

type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// Achievement is a progress-gated badge. Progress only ever increases and
// an unlocked achievement is never revisited. The icon is persisted as a
// stable string key; the API layer resolves it to a displayable glyph.
type Achievement struct {
	ID          string `json:"id"`
	Icon        string `json:"icon"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Rarity      Rarity `json:"rarity"`
	Category    string `json:"category"` // reading, streak, completion, mastery, engagement
	Progress    int    `json:"progress"`
	MaxProgress int    `json:"max_progress"`
	Unlocked    bool   `json:"unlocked"`
	UnlockedAt  int64  `json:"unlocked_at,omitempty"` // epoch milliseconds
}

// AchievementView is the API shape with the icon key resolved.
type AchievementView struct {
	Achievement
	IconGlyph string `json:"icon_glyph"`
}
