package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/atlashq/atlas-web/config"
	"github.com/atlashq/atlas-web/internal/logger"
	"github.com/atlashq/atlas-web/internal/models"
)

// Client talks to the optional backend-as-a-service. When no base URL is
// configured every upsert reports false and every fetch returns empty,
// without error. No retries, no response schema validation.
type Client struct {
	baseURL    string
	apiKey     string
	logger     *logger.Log
	httpClient *http.Client
}

func NewClient(cfg *config.SyncConfig) *Client {
	c := &Client{
		logger: logger.New(),
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
	}
	if cfg.Enabled && cfg.BaseURL != "" {
		c.baseURL = cfg.BaseURL
		c.apiKey = cfg.APIKey
	}
	return c
}

// Enabled reports whether sync is configured.
func (c *Client) Enabled() bool {
	return c.baseURL != ""
}

// UpsertProfile pushes the session profile for userID.
func (c *Client) UpsertProfile(ctx context.Context, userID string, session *models.UserSession) bool {
	return c.upsert(ctx, userID, "profiles", session)
}

// UpsertMoodEntries pushes the full mood log for userID.
func (c *Client) UpsertMoodEntries(ctx context.Context, userID string, entries []models.MoodEntry) bool {
	return c.upsert(ctx, userID, "mood_entries", entries)
}

// UpsertWins pushes the full wins journal for userID.
func (c *Client) UpsertWins(ctx context.Context, userID string, wins []models.WinEntry) bool {
	return c.upsert(ctx, userID, "wins", wins)
}

// UpsertReflections pushes the reflections list for userID.
func (c *Client) UpsertReflections(ctx context.Context, userID string, reflections []models.WeeklyReflection) bool {
	return c.upsert(ctx, userID, "reflections", reflections)
}

// FetchWins pulls the wins journal for userID. Empty when sync is disabled.
func (c *Client) FetchWins(ctx context.Context, userID string) ([]models.WinEntry, error) {
	wins := []models.WinEntry{}
	if !c.Enabled() {
		return wins, nil
	}
	if err := c.fetch(ctx, userID, "wins", &wins); err != nil {
		return nil, err
	}
	return wins, nil
}

// FetchMoodEntries pulls the mood log for userID. Empty when sync is
// disabled.
func (c *Client) FetchMoodEntries(ctx context.Context, userID string) ([]models.MoodEntry, error) {
	entries := []models.MoodEntry{}
	if !c.Enabled() {
		return entries, nil
	}
	if err := c.fetch(ctx, userID, "mood_entries", &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// RunPeriodic pushes a snapshot of the local data set upstream on a fixed
// interval until ctx is cancelled. Failures are logged and retried on the
// next tick.
func (c *Client) RunPeriodic(ctx context.Context, interval time.Duration, snapshot func() (*models.SessionExport, error)) {
	if !c.Enabled() {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			export, err := snapshot()
			if err != nil {
				c.logger.WithError(err).Warn("sync snapshot failed")
				continue
			}
			c.PushExport(ctx, export)
		}
	}
}

// PushExport upserts every synced dataset from one export. A snapshot
// without a session record is skipped; there is no user id to file it under.
func (c *Client) PushExport(ctx context.Context, export *models.SessionExport) {
	if export == nil || export.Session == nil {
		return
	}

	userID := export.Session.ID
	c.UpsertProfile(ctx, userID, export.Session)
	c.UpsertMoodEntries(ctx, userID, export.MoodEntries)
	c.UpsertWins(ctx, userID, export.Wins)
	c.UpsertReflections(ctx, userID, export.Reflections)
}

func (c *Client) upsert(ctx context.Context, userID, dataset string, payload interface{}) bool {
	if !c.Enabled() {
		return false
	}

	body, err := json.Marshal(map[string]interface{}{
		"user_id": userID,
		"data":    payload,
	})
	if err != nil {
		c.logger.WithError(err).Warn("failed to encode sync payload")
		return false
	}

	url := fmt.Sprintf("%s/v1/%s/%s", c.baseURL, dataset, userID)
	req, err := http.NewRequestWithContext(ctx, "PUT", url, bytes.NewBuffer(body))
	if err != nil {
		c.logger.WithError(err).Warn("failed to create sync request")
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).Warn(fmt.Sprintf("sync upsert failed for %s", dataset))
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn(fmt.Sprintf("sync upsert for %s returned status %d", dataset, resp.StatusCode))
		return false
	}
	return true
}

func (c *Client) fetch(ctx context.Context, userID, dataset string, dest interface{}) error {
	url := fmt.Sprintf("%s/v1/%s/%s", c.baseURL, dataset, userID)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("failed to create sync request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sync fetch failed for %s: %w", dataset, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read sync response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sync fetch for %s: status %d", dataset, resp.StatusCode)
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("failed to decode sync response: %w", err)
	}
	return nil
}
