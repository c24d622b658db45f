package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/atlashq/atlas-web/internal/llm"
	"github.com/atlashq/atlas-web/internal/logger"
	"github.com/atlashq/atlas-web/internal/models"
	"github.com/atlashq/atlas-web/internal/storage"
)

// mentorContextTurns caps how much thread history goes into the prompt.
const mentorContextTurns = 10

// MentorService runs the AI mentor chat. Threads are persisted whole; the
// weekly analyzer counts user turns as mentor interactions.
type MentorService struct {
	store  *storage.Store
	llm    llm.LLM
	logger *logger.Log
}

func NewMentorService(store *storage.Store, llmClient llm.LLM) *MentorService {
	return &MentorService{
		store:  store,
		llm:    llmClient,
		logger: logger.New(),
	}
}

// Ask sends a message to the mentor and persists both turns. An empty
// threadID starts a new thread.
func (s *MentorService) Ask(ctx context.Context, threadID, message string) (*models.MentorAskResponse, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("message is required")
	}
	if s.llm == nil {
		return nil, fmt.Errorf("no mentor model configured")
	}

	threads, err := s.Threads()
	if err != nil {
		return nil, err
	}

	var thread *models.ChatThread
	if threadID != "" {
		for i := range threads {
			if threads[i].ID == threadID {
				thread = &threads[i]
				break
			}
		}
		if thread == nil {
			return nil, fmt.Errorf("thread not found: %s", threadID)
		}
	} else {
		threads = append(threads, models.ChatThread{
			ID:    uuid.NewString(),
			Title: threadTitle(message),
		})
		thread = &threads[len(threads)-1]
	}

	now := time.Now().Format(time.RFC3339)
	thread.Messages = append(thread.Messages, models.ChatMessage{
		Role:      "user",
		Content:   message,
		Timestamp: now,
	})

	prompt := s.buildPrompt(thread)
	response, err := s.llm.GenerateResponse(ctx, prompt)
	if err != nil {
		s.logger.WithError(err).Warn("mentor response failed")
		return nil, fmt.Errorf("mentor response failed: %w", err)
	}

	reply := models.ChatMessage{
		Role:      "mentor",
		Content:   strings.TrimSpace(response),
		Timestamp: time.Now().Format(time.RFC3339),
	}
	thread.Messages = append(thread.Messages, reply)
	thread.UpdatedAt = reply.Timestamp

	if err := s.store.Set(storage.KeyChatThreads, threads); err != nil {
		return nil, fmt.Errorf("failed to persist chat thread: %w", err)
	}

	return &models.MentorAskResponse{ThreadID: thread.ID, Reply: reply}, nil
}

// Threads returns every saved thread. A corrupt or missing blob yields an
// empty list.
func (s *MentorService) Threads() ([]models.ChatThread, error) {
	threads := []models.ChatThread{}
	if _, err := s.store.Get(storage.KeyChatThreads, &threads); err != nil {
		s.logger.WithError(err).Warn("discarding unreadable chat blob")
		return []models.ChatThread{}, nil
	}
	return threads, nil
}

// AllMessages flattens every thread's messages for the weekly analyzer.
func (s *MentorService) AllMessages() ([]models.ChatMessage, error) {
	threads, err := s.Threads()
	if err != nil {
		return nil, err
	}

	var messages []models.ChatMessage
	for _, thread := range threads {
		messages = append(messages, thread.Messages...)
	}
	return messages, nil
}

func (s *MentorService) buildPrompt(thread *models.ChatThread) string {
	var b strings.Builder

	b.WriteString(`You are Atlas, a warm, direct personal mentor.

MENTOR PROFILE:
- You help the user build momentum in five arenas: mind, heart, body, soul, work
- You are encouraging but honest; you never lecture
- Keep replies short and practical, two or three sentences
- Ask one follow-up question when it would help
- Respond in plain text, no markdown headings

CONVERSATION SO FAR:
`)

	messages := thread.Messages
	if len(messages) > mentorContextTurns {
		messages = messages[len(messages)-mentorContextTurns:]
	}
	for _, msg := range messages {
		b.WriteString(fmt.Sprintf("%s: %s\n", msg.Role, msg.Content))
	}

	b.WriteString("\nmentor:")
	return b.String()
}

func threadTitle(firstMessage string) string {
	const maxTitle = 40
	if len(firstMessage) <= maxTitle {
		return firstMessage
	}
	return firstMessage[:maxTitle] + "…"
}
