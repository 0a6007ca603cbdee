// Package title generates short conversation titles from the opening message.
package title

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const maxFallbackLen = 48

type Titler struct {
	llm llms.LLM
}

// New builds a titler against the same API the chat turns use, but with the
// cheaper non-reasoning model.
func New(baseURL, token, model string) (*Titler, error) {
	llm, err := openai.New(
		openai.WithToken(token),
		openai.WithBaseURL(baseURL),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, err
	}
	return &Titler{llm: llm}, nil
}

// Generate asks the model for a title and returns it together with any error
// from the call. Callers are expected to fall back to Fallback on error so a
// failed title never blocks a chat turn.
func (t *Titler) Generate(ctx context.Context, firstMessage string) (string, error) {
	prompt := fmt.Sprintf(`Write a title of at most five words for a conversation that starts with the following message. Respond with only the title, no quotes.

Message: %s`, firstMessage)

	completion, err := llms.GenerateFromSinglePrompt(ctx, t.llm, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate title: %w", err)
	}

	title := strings.TrimSpace(strings.Trim(strings.TrimSpace(completion), `"`))
	if title == "" {
		return "", fmt.Errorf("model returned an empty title")
	}
	return title, nil
}

// Fallback truncates the opening message into a usable title.
func Fallback(firstMessage string) string {
	title := strings.TrimSpace(firstMessage)
	if title == "" {
		return "New conversation"
	}
	if utf8.RuneCountInString(title) <= maxFallbackLen {
		return title
	}
	runes := []rune(title)
	return string(runes[:maxFallbackLen]) + "…"
}
