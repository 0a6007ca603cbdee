// Package history turns conversation transcripts into the ordered message
// sequence submitted to the inference API.
package history

import (
	"github.com/pkoukk/tiktoken-go"

	"github.com/reasonchat/reasonchat/internal/models"
)

// Assemble builds the full context window for one inference call: every prior
// turn in order, then the new user message last. A turn's user text is emitted
// unconditionally (empty text stays an empty user message); the assistant
// reply is emitted only when present. Nothing is truncated or deduplicated —
// the whole history goes upstream on every call.
func Assemble(turns []models.Turn, newMessage string) []models.Message {
	msgs := make([]models.Message, 0, 2*len(turns)+1)
	for _, turn := range turns {
		msgs = append(msgs, models.Message{Role: models.RoleUser, Content: turn.User})
		if turn.Assistant != "" {
			msgs = append(msgs, models.Message{Role: models.RoleAssistant, Content: turn.Assistant})
		}
	}
	msgs = append(msgs, models.Message{Role: models.RoleUser, Content: newMessage})
	return msgs
}

// TurnsFromMessages pairs a chronological message list back into turns. A user
// message opens a turn and an assistant message closes the open one; an
// assistant message with no open turn gets an empty user slot rather than
// being dropped.
func TurnsFromMessages(msgs []models.Message) []models.Turn {
	turns := make([]models.Turn, 0, len(msgs)/2+1)
	open := false
	for _, msg := range msgs {
		switch msg.Role {
		case models.RoleUser:
			turns = append(turns, models.Turn{User: msg.Content})
			open = true
		case models.RoleAssistant:
			if !open {
				turns = append(turns, models.Turn{})
			}
			turns[len(turns)-1].Assistant = msg.Content
			open = false
		}
	}
	return turns
}

// perMessageOverhead approximates the role/delimiter tokens the API wraps
// around each message.
const perMessageOverhead = 4

// EstimateTokens reports the approximate cl100k_base token count of an
// assembled request. It exists for request-size logging only; callers should
// treat failures as "unknown", not as a reason to fail the request.
func EstimateTokens(msgs []models.Message) (int, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return 0, err
	}
	total := 0
	for _, msg := range msgs {
		total += len(enc.Encode(msg.Content, nil, nil)) + perMessageOverhead
	}
	return total, nil
}
