package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/reasonchat/reasonchat/internal/chat"
	"github.com/reasonchat/reasonchat/internal/db"
	"github.com/reasonchat/reasonchat/internal/deepseek"
	"github.com/reasonchat/reasonchat/internal/models"
)

type completeFunc func(ctx context.Context, msgs []models.Message) (*deepseek.Completion, error)

func (f completeFunc) Complete(ctx context.Context, msgs []models.Message) (*deepseek.Completion, error) {
	return f(ctx, msgs)
}

type titleFunc func(ctx context.Context, firstMessage string) (string, error)

func (f titleFunc) Generate(ctx context.Context, firstMessage string) (string, error) {
	return f(ctx, firstMessage)
}

func testHandler(t *testing.T, client chat.CompletionClient) (*Handler, *db.Database) {
	t.Helper()
	database, err := db.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	titler := titleFunc(func(ctx context.Context, firstMessage string) (string, error) {
		return "Test Conversation", nil
	})
	logger := zap.NewNop()
	svc := chat.New(client, titler, database, logger, 5*time.Second)
	return NewHandler(database, svc, logger), database
}

func okClient() chat.CompletionClient {
	return completeFunc(func(ctx context.Context, msgs []models.Message) (*deepseek.Completion, error) {
		return &deepseek.Completion{Reasoning: "thinking", Answer: "done"}, nil
	})
}

func TestHandleMessageNewConversation(t *testing.T) {
	h, database := testHandler(t, okClient())

	body := strings.NewReader(`{"content":"What is 2+2?"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/message", body)
	rec := httptest.NewRecorder()
	h.HandleMessage(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp MessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ConversationID)
	require.NotNil(t, resp.Message)
	assert.Equal(t, "assistant", resp.Message.Role)
	assert.Contains(t, resp.Message.Content, "🤔 Reasoning:\nthinking")
	assert.Contains(t, resp.Message.Content, "📝 Answer:\ndone")

	convs, err := database.GetConversations()
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, "Test Conversation", convs[0].Title)
}

func TestHandleMessageExistingConversation(t *testing.T) {
	h, database := testHandler(t, okClient())
	conv, err := database.CreateConversation("existing")
	require.NoError(t, err)

	body := strings.NewReader(`{"conversation_id":"` + conv.ID + `","content":"hi"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/message", body)
	rec := httptest.NewRecorder()
	h.HandleMessage(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp MessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, conv.ID, resp.ConversationID)

	convs, _ := database.GetConversations()
	assert.Len(t, convs, 1, "no extra conversation should be created")
}

func TestHandleMessageUpstreamFailureStillDisplays(t *testing.T) {
	client := completeFunc(func(ctx context.Context, msgs []models.Message) (*deepseek.Completion, error) {
		return nil, errors.New("timeout")
	})
	h, database := testHandler(t, client)
	conv, err := database.CreateConversation("t")
	require.NoError(t, err)

	body := strings.NewReader(`{"conversation_id":"` + conv.ID + `","content":"hi"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/message", body)
	rec := httptest.NewRecorder()
	h.HandleMessage(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp MessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Message.Content, "Error: timeout")
}

func TestHandleMessageRejectsBadBody(t *testing.T) {
	h, _ := testHandler(t, okClient())
	req := httptest.NewRequest(http.MethodPost, "/api/message", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	h.HandleMessage(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleMessageRejectsWrongMethod(t *testing.T) {
	h, _ := testHandler(t, okClient())
	req := httptest.NewRequest(http.MethodGet, "/api/message", nil)
	rec := httptest.NewRecorder()
	h.HandleMessage(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestGetMessages(t *testing.T) {
	h, database := testHandler(t, okClient())
	conv, _ := database.CreateConversation("t")
	msg := &models.Message{ConvID: conv.ID, Role: models.RoleUser, Content: "hello"}
	require.NoError(t, database.SaveMessage(msg))

	req := httptest.NewRequest(http.MethodGet, "/api/messages?conversation_id="+conv.ID, nil)
	rec := httptest.NewRecorder()
	h.GetMessages(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var msgs []models.Message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msgs))
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello", msgs[0].Content)
}

func TestGetMessagesRequiresConversationID(t *testing.T) {
	h, _ := testHandler(t, okClient())
	req := httptest.NewRequest(http.MethodGet, "/api/messages", nil)
	rec := httptest.NewRecorder()
	h.GetMessages(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteConversation(t *testing.T) {
	h, database := testHandler(t, okClient())
	conv, _ := database.CreateConversation("doomed")

	req := httptest.NewRequest(http.MethodDelete, "/api/conversations/delete?conversation_id="+conv.ID, nil)
	rec := httptest.NewRecorder()
	h.DeleteConversation(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	convs, _ := database.GetConversations()
	assert.Empty(t, convs)
}

func TestUpdateConversation(t *testing.T) {
	h, database := testHandler(t, okClient())
	conv, _ := database.CreateConversation("old")

	body := strings.NewReader(`{"title":"new"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/conversations/update?conversation_id="+conv.ID, body)
	rec := httptest.NewRecorder()
	h.UpdateConversation(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	convs, _ := database.GetConversations()
	require.Len(t, convs, 1)
	assert.Equal(t, "new", convs[0].Title)
}

func TestHealth(t *testing.T) {
	h, _ := testHandler(t, okClient())
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.Health(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var result map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "ok", result["status"])
}
