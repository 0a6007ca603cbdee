// Package chat orchestrates one conversation turn: assemble the history,
// call the reasoner, normalize both response segments and persist the result.
package chat

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/reasonchat/reasonchat/internal/db"
	"github.com/reasonchat/reasonchat/internal/deepseek"
	"github.com/reasonchat/reasonchat/internal/history"
	"github.com/reasonchat/reasonchat/internal/mathfmt"
	"github.com/reasonchat/reasonchat/internal/models"
	"github.com/reasonchat/reasonchat/internal/title"
)

// CompletionClient is the upstream inference call. Satisfied by
// *deepseek.Client; tests substitute a mock.
type CompletionClient interface {
	Complete(ctx context.Context, msgs []models.Message) (*deepseek.Completion, error)
}

// TitleGenerator names new conversations from their opening message.
type TitleGenerator interface {
	Generate(ctx context.Context, firstMessage string) (string, error)
}

const titleTimeout = 15 * time.Second

type Service struct {
	client  CompletionClient
	titler  TitleGenerator
	db      *db.Database
	logger  *zap.Logger
	timeout time.Duration
}

func New(client CompletionClient, titler TitleGenerator, database *db.Database, logger *zap.Logger, timeout time.Duration) *Service {
	return &Service{
		client:  client,
		titler:  titler,
		db:      database,
		logger:  logger,
		timeout: timeout,
	}
}

// StartConversation creates a conversation named after the opening message.
// Title generation is best effort; on failure the message itself is truncated
// into a title.
func (s *Service) StartConversation(ctx context.Context, firstMessage string) (*models.Conversation, error) {
	ctx, cancel := context.WithTimeout(ctx, titleTimeout)
	defer cancel()

	name, err := s.titler.Generate(ctx, firstMessage)
	if err != nil {
		s.logger.Warn("failed to generate conversation title, falling back",
			zap.Error(err))
		name = title.Fallback(firstMessage)
	}

	return s.db.CreateConversation(name)
}

// Respond handles one user turn and returns the stored assistant message. An
// upstream failure never surfaces as an error: it is folded into the display
// string so the conversation UI always has something to show. Errors are
// returned only for store failures, which are the server's own fault.
func (s *Service) Respond(ctx context.Context, convID, content string) (*models.Message, error) {
	prior, err := s.db.GetConversationHistory(convID)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation history: %w", err)
	}

	msgs := history.Assemble(history.TurnsFromMessages(prior), content)
	if tokens, err := history.EstimateTokens(msgs); err == nil {
		s.logger.Debug("assembled request",
			zap.String("conversation_id", convID),
			zap.Int("messages", len(msgs)),
			zap.Int("estimated_tokens", tokens))
	}

	userMsg := &models.Message{ConvID: convID, Role: models.RoleUser, Content: content}
	if err := s.db.SaveMessage(userMsg); err != nil {
		return nil, fmt.Errorf("failed to save user message: %w", err)
	}

	display := s.complete(ctx, convID, msgs)

	assistantMsg := &models.Message{ConvID: convID, Role: models.RoleAssistant, Content: display}
	if err := s.db.SaveMessage(assistantMsg); err != nil {
		return nil, fmt.Errorf("failed to save assistant message: %w", err)
	}
	return assistantMsg, nil
}

// complete runs the upstream call under the configured deadline and folds
// either outcome into a display string.
func (s *Service) complete(ctx context.Context, convID string, msgs []models.Message) string {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	completion, err := s.client.Complete(ctx, msgs)
	if err != nil {
		s.logger.Error("completion failed",
			zap.String("conversation_id", convID),
			zap.Error(err))
		return fmt.Sprintf("Error: %v", err)
	}

	s.logger.Info("completion succeeded",
		zap.String("conversation_id", convID),
		zap.Int("prompt_tokens", completion.PromptTokens),
		zap.Int("completion_tokens", completion.CompletionTokens))

	return fmt.Sprintf("🤔 Reasoning:\n%s\n\n📝 Answer:\n%s",
		mathfmt.Normalize(completion.Reasoning),
		mathfmt.Normalize(completion.Answer))
}
