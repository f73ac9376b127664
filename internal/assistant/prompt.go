package assistant

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkoukk/tiktoken-go"

	"github.com/user/golfoguide/pkg/llm"
)

// SystemPrompt builds the assistant's system prompt. Today's date is
// included so the model can resolve relative expressions ("oggi",
// "questo weekend") into concrete ISO dates for tool arguments.
func SystemPrompt(now time.Time, toolNames []string) string {
	var sb strings.Builder
	sb.WriteString("Sei l'assistente turistico ufficiale del paese. ")
	sb.WriteString("Rispondi in modo cordiale e conciso, nella lingua dell'utente (italiano o inglese).\n\n")
	fmt.Fprintf(&sb, "Oggi è %s (%s).\n\n", now.Format("Monday 2 January 2006"), now.Format("2006-01-02"))
	sb.WriteString("Hai a disposizione strumenti di ricerca sul database turistico: eventi, esperienze, punti di interesse, locali e offerte. ")
	sb.WriteString("Usali ogni volta che l'utente chiede informazioni concrete; non inventare mai eventi, orari o prezzi. ")
	sb.WriteString("Quando l'utente usa date relative (oggi, domani, questo weekend), convertile in date ISO (YYYY-MM-DD) negli argomenti degli strumenti. ")
	sb.WriteString("Se uno strumento segnala un errore del servizio, dillo chiaramente: non presentarlo come assenza di risultati.\n")
	if len(toolNames) > 0 {
		fmt.Fprintf(&sb, "\nStrumenti disponibili: %s.\n", strings.Join(toolNames, ", "))
	}
	return sb.String()
}

// Budgeter keeps the prompt within the model's context window by
// dropping the oldest history messages first.
type Budgeter struct {
	tokenizer *tiktoken.Tiktoken
	maxTokens int
	reserve   int
}

// NewBudgeter creates a Budgeter for the given model. maxTokens is the
// model's context window; reserve is headroom kept for the response.
func NewBudgeter(model string, maxTokens, reserve int) (*Budgeter, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		// Fallback to cl100k_base for unknown models
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("get tokenizer: %w", err)
		}
	}
	return &Budgeter{
		tokenizer: enc,
		maxTokens: maxTokens,
		reserve:   reserve,
	}, nil
}

func (b *Budgeter) countTokens(text string) int {
	return len(b.tokenizer.Encode(text, nil, nil))
}

// Trim returns the suffix of history that fits the input budget after
// accounting for the system prompt. The newest message is always kept.
func (b *Budgeter) Trim(system string, history []llm.Message) []llm.Message {
	if len(history) == 0 {
		return history
	}

	budget := b.maxTokens - b.reserve - b.countTokens(system)
	used := 0
	start := len(history)

	for i := len(history) - 1; i >= 0; i-- {
		cost := b.countTokens(history[i].Content)
		for _, tc := range history[i].Tools {
			cost += b.countTokens(tc.Function.Name) + b.countTokens(string(tc.Function.Arguments))
		}
		if used+cost > budget && start < len(history) {
			break
		}
		used += cost
		start = i
	}

	return history[start:]
}
