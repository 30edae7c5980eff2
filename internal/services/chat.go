package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	pkgerrors "github.com/notelab/notebook-backend/internal/pkg/errors"
	"github.com/notelab/notebook-backend/internal/pkg/logger"
	"github.com/notelab/notebook-backend/internal/repos"
	"github.com/notelab/notebook-backend/internal/types"
)

type AppendChatInput struct {
	Role    string `json:"role" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// ChatService stores a notebook's conversation history. The session id
// is the notebook id, so ownership resolves through the notebook row.
type ChatService interface {
	Append(ctx context.Context, notebookID uuid.UUID, input AppendChatInput) (*types.ChatMessage, error)
	History(ctx context.Context, notebookID uuid.UUID) ([]*types.ChatMessage, error)
	Clear(ctx context.Context, notebookID uuid.UUID) error
}

type chatService struct {
	db        *gorm.DB
	log       *logger.Logger
	notebooks repos.NotebookRepo
	chat      repos.ChatMessageRepo
}

func NewChatService(db *gorm.DB, notebooks repos.NotebookRepo, chat repos.ChatMessageRepo, baseLog *logger.Logger) ChatService {
	return &chatService{
		db:        db,
		log:       baseLog.With("service", "ChatService"),
		notebooks: notebooks,
		chat:      chat,
	}
}

func (s *chatService) Append(ctx context.Context, notebookID uuid.UUID, input AppendChatInput) (*types.ChatMessage, error) {
	if _, err := requireNotebookOwner(ctx, nil, s.notebooks, notebookID); err != nil {
		return nil, err
	}
	if input.Role != "user" && input.Role != "assistant" {
		return nil, fmt.Errorf("%w: role must be user or assistant", pkgerrors.ErrInvalidArgument)
	}
	if input.Content == "" {
		return nil, fmt.Errorf("%w: content is required", pkgerrors.ErrInvalidArgument)
	}
	raw, err := json.Marshal(map[string]string{
		"role":    input.Role,
		"content": input.Content,
	})
	if err != nil {
		return nil, err
	}
	created, err := s.chat.Create(ctx, nil, []*types.ChatMessage{{
		SessionID: notebookID,
		Message:   datatypes.JSON(raw),
	}})
	if err != nil {
		return nil, err
	}
	return created[0], nil
}

func (s *chatService) History(ctx context.Context, notebookID uuid.UUID) ([]*types.ChatMessage, error) {
	if _, err := requireNotebookOwner(ctx, nil, s.notebooks, notebookID); err != nil {
		return nil, err
	}
	return s.chat.GetBySessionID(ctx, nil, notebookID)
}

func (s *chatService) Clear(ctx context.Context, notebookID uuid.UUID) error {
	if _, err := requireNotebookOwner(ctx, nil, s.notebooks, notebookID); err != nil {
		return err
	}
	return s.chat.DeleteBySessionID(ctx, nil, notebookID)
}
