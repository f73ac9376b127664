package telegram

import (
	"strings"
	"testing"

	"github.com/user/golfoguide/pkg/llm"
)

func TestSplitMessageShortTextUnchanged(t *testing.T) {
	parts := splitMessage("ciao")
	if len(parts) != 1 || parts[0] != "ciao" {
		t.Errorf("unexpected parts: %v", parts)
	}
}

func TestSplitMessageLongText(t *testing.T) {
	text := strings.Repeat("a", maxTelegramMessage*2+10)
	parts := splitMessage(text)
	if len(parts) != 3 {
		t.Fatalf("expected 3 parts, got %d", len(parts))
	}
	if len(parts[0]) != maxTelegramMessage || len(parts[1]) != maxTelegramMessage {
		t.Error("full parts must hit the size cap exactly")
	}
	if strings.Join(parts, "") != text {
		t.Error("split must preserve the text")
	}
}

func TestSplitMessageRuneSafe(t *testing.T) {
	text := strings.Repeat("è", maxTelegramMessage+5)
	parts := splitMessage(text)
	if strings.Join(parts, "") != text {
		t.Error("split must preserve multibyte text")
	}
	for i, part := range parts {
		if strings.ContainsRune(part, '�') {
			t.Errorf("part %d splits inside a rune", i)
		}
	}
}

func newBareAdapter() *Adapter {
	return &Adapter{histories: make(map[int64][]llm.Message)}
}

func TestAppendHistoryAccumulates(t *testing.T) {
	a := newBareAdapter()

	h := a.appendHistory(1, llm.TextMessage(llm.RoleUser, "prima"))
	if len(h) != 1 {
		t.Fatalf("expected 1 message, got %d", len(h))
	}
	h = a.appendHistory(1, llm.TextMessage(llm.RoleAssistant, "risposta"))
	if len(h) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(h))
	}
	if h[0].Content != "prima" || h[1].Content != "risposta" {
		t.Errorf("unexpected history: %+v", h)
	}
}

func TestAppendHistoryIsolatesChats(t *testing.T) {
	a := newBareAdapter()
	a.appendHistory(1, llm.TextMessage(llm.RoleUser, "chat uno"))
	h := a.appendHistory(2, llm.TextMessage(llm.RoleUser, "chat due"))
	if len(h) != 1 || h[0].Content != "chat due" {
		t.Errorf("chat histories must not mix: %+v", h)
	}
}

func TestAppendHistoryCapsRollingWindow(t *testing.T) {
	a := newBareAdapter()
	var h []llm.Message
	for i := 0; i < historyCap+7; i++ {
		h = a.appendHistory(1, llm.TextMessage(llm.RoleUser, "m"))
	}
	if len(h) != historyCap {
		t.Errorf("expected history capped at %d, got %d", historyCap, len(h))
	}
}

func TestAppendHistoryReturnsCopy(t *testing.T) {
	a := newBareAdapter()
	h := a.appendHistory(1, llm.TextMessage(llm.RoleUser, "originale"))
	h[0].Content = "manomesso"

	h2 := a.appendHistory(1, llm.TextMessage(llm.RoleAssistant, "r"))
	if h2[0].Content != "originale" {
		t.Error("mutating the returned slice must not affect stored history")
	}
}
