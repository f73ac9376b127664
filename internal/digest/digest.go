package digest

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/user/golfoguide/internal/assistant"
	"github.com/user/golfoguide/pkg/llm"
)

// digestPrompt is the canned question the scheduler pushes through the
// assistant. The model resolves "oggi" using the dated system prompt
// and calls the event search tool itself.
const digestPrompt = "Quali eventi ci sono oggi in paese? Fai un breve riepilogo con orari e luoghi, adatto a un messaggio Telegram."

// Sender delivers a digest message to a chat.
type Sender interface {
	SendTo(chatID int64, text string) error
}

// Scheduler runs the daily "what's on today" digest on a cron schedule
// and pushes the result to the configured chats.
type Scheduler struct {
	orch     *assistant.Orchestrator
	sender   Sender
	schedule string
	chatIDs  []int64
	cron     *cron.Cron
}

// cronParser accepts both standard 5-field cron expressions and 6-field
// expressions with an optional seconds field.
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// New creates a Scheduler. schedule is a cron expression, e.g. "0 9 * * *".
func New(orch *assistant.Orchestrator, sender Sender, schedule string, chatIDs []int64) *Scheduler {
	return &Scheduler{
		orch:     orch,
		sender:   sender,
		schedule: schedule,
		chatIDs:  chatIDs,
		cron:     cron.New(cron.WithParser(cronParser)),
	}
}

// Start registers the digest job and starts the cron ticker.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		s.RunOnce(context.Background())
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	slog.Info("digest scheduler started", "schedule", s.schedule, "chats", len(s.chatIDs))
	return nil
}

// Stop halts the cron ticker.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// RunOnce builds today's digest and delivers it to every configured
// chat. Each digest turn starts from a fresh, single-message history.
func (s *Scheduler) RunOnce(ctx context.Context) {
	history := []llm.Message{llm.TextMessage(llm.RoleUser, digestPrompt)}

	result, err := s.orch.Run(ctx, history)
	if err != nil {
		slog.Error("digest turn failed", "error", err)
		return
	}
	if result.Text == "" {
		slog.Warn("digest produced no text, skipping delivery")
		return
	}

	for _, chatID := range s.chatIDs {
		if err := s.sender.SendTo(chatID, result.Text); err != nil {
			slog.Error("digest delivery failed", "chat_id", chatID, "error", err)
		}
	}
}
