package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/user/golfoguide/internal/assistant"
	"github.com/user/golfoguide/pkg/llm"
)

const maxTelegramMessage = 4096

// historyCap bounds the rolling per-chat history the adapter keeps.
// The assistant core is stateless; the adapter plays the role of the
// browser and resends history on every turn.
const historyCap = 40

// Adapter bridges Telegram chats to the assistant.
type Adapter struct {
	bot  *tgbotapi.BotAPI
	orch *assistant.Orchestrator

	mu        sync.Mutex
	histories map[int64][]llm.Message
}

// New creates a Telegram adapter.
func New(token string, orch *assistant.Orchestrator) (*Adapter, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	return &Adapter{
		bot:       bot,
		orch:      orch,
		histories: make(map[int64][]llm.Message),
	}, nil
}

// Start begins long-polling for Telegram updates.
func (a *Adapter) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := a.bot.GetUpdatesChan(u)

	for {
		select {
		case update := <-updates:
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			a.handleMessage(ctx, update.Message)
		case <-ctx.Done():
			a.bot.StopReceivingUpdates()
			return
		}
	}
}

func (a *Adapter) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.IsCommand() {
		a.handleCommand(msg)
		return
	}

	chatID := msg.Chat.ID
	history := a.appendHistory(chatID, llm.TextMessage(llm.RoleUser, msg.Text))

	result, err := a.orch.Run(ctx, history)
	if err != nil {
		slog.Error("telegram turn failed", "chat_id", chatID, "error", err)
		a.sendResponse(chatID, "Mi dispiace, si è verificato un problema tecnico. Riprova tra poco.")
		return
	}

	a.appendHistory(chatID, llm.TextMessage(llm.RoleAssistant, result.Text))
	a.sendResponse(chatID, result.Text)
}

func (a *Adapter) handleCommand(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start":
		a.sendResponse(chatID, "Ciao! Sono l'assistente turistico del paese. Chiedimi cosa c'è da fare, vedere o mangiare.")

	case "reset":
		a.mu.Lock()
		delete(a.histories, chatID)
		a.mu.Unlock()
		a.sendResponse(chatID, "Conversazione azzerata. Ricominciamo!")

	default:
		a.sendResponse(chatID, "Comandi disponibili: /start, /reset")
	}
}

// appendHistory adds a message to the chat's rolling history and returns
// a copy of the updated history.
func (a *Adapter) appendHistory(chatID int64, msg llm.Message) []llm.Message {
	a.mu.Lock()
	defer a.mu.Unlock()

	history := append(a.histories[chatID], msg)
	if len(history) > historyCap {
		history = history[len(history)-historyCap:]
	}
	a.histories[chatID] = history

	out := make([]llm.Message, len(history))
	copy(out, history)
	return out
}

// SendTo pushes a message to a chat outside a conversation turn. The
// digest scheduler uses this.
func (a *Adapter) SendTo(chatID int64, text string) error {
	parts := splitMessage(text)
	for _, part := range parts {
		msg := tgbotapi.NewMessage(chatID, part)
		msg.ParseMode = "Markdown"
		if _, err := a.bot.Send(msg); err != nil {
			// Retry without markdown if it fails
			msg.ParseMode = ""
			if _, err := a.bot.Send(msg); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *Adapter) sendResponse(chatID int64, text string) {
	if err := a.SendTo(chatID, text); err != nil {
		slog.Error("telegram send failed", "chat_id", chatID, "error", err)
	}
}

func splitMessage(text string) []string {
	if len(text) <= maxTelegramMessage {
		return []string{text}
	}
	var parts []string
	runes := []rune(text)
	for len(runes) > 0 {
		end := maxTelegramMessage
		if end > len(runes) {
			end = len(runes)
		}
		parts = append(parts, string(runes[:end]))
		runes = runes[end:]
	}
	return parts
}
