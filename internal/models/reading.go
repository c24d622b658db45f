package models

// ArticleProgress tracks how far the user is through one article.
type ArticleProgress struct {
	Percent     int    `json:"percent"`
	Arena       Arena  `json:"arena,omitempty"`
	CompletedAt string `json:"completed_at,omitempty"` // RFC3339, set at 100%
	UpdatedAt   string `json:"updated_at"`             // RFC3339
}

// ReadingStreak is the consecutive-day reading counter.
type ReadingStreak struct {
	Current int    `json:"current"`
	Longest int    `json:"longest"`
	LastDay string `json:"last_day"` // "2006-01-02"
}

type ProgressUpdateRequest struct {
	Percent int    `json:"percent" validate:"min=0,max=100"`
	Seconds int    `json:"seconds" validate:"min=0"`
	Arena   string `json:"arena,omitempty"`
}

type CompleteArticleRequest struct {
	Seconds int    `json:"seconds" validate:"min=0"`
	Arena   string `json:"arena,omitempty"`
}
