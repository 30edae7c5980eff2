package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/notelab/notebook-backend/internal/clients/gcp"
	pkgerrors "github.com/notelab/notebook-backend/internal/pkg/errors"
	"github.com/notelab/notebook-backend/internal/pkg/logger"
	"github.com/notelab/notebook-backend/internal/realtime"
	"github.com/notelab/notebook-backend/internal/repos"
	"github.com/notelab/notebook-backend/internal/types"
)

type CreateNotebookInput struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
}

type UpdateNotebookInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
	Icon        *string `json:"icon"`
}

type NotebookService interface {
	Create(ctx context.Context, input CreateNotebookInput) (*types.Notebook, error)
	Get(ctx context.Context, notebookID uuid.UUID) (*types.Notebook, error)
	List(ctx context.Context) ([]*types.Notebook, error)
	Update(ctx context.Context, notebookID uuid.UUID, input UpdateNotebookInput) (*types.Notebook, error)
	// Delete removes the notebook with everything hanging off it:
	// sources, notes, chat history, embeddings and stored files.
	Delete(ctx context.Context, notebookID uuid.UUID) error
}

type notebookService struct {
	db         *gorm.DB
	log        *logger.Logger
	notebooks  repos.NotebookRepo
	sources    repos.SourceRepo
	notes      repos.NoteRepo
	embeddings repos.EmbeddingRepo
	chat       repos.ChatMessageRepo
	bucket     gcp.BucketService
	events     EventPublisher
}

func NewNotebookService(
	db *gorm.DB,
	notebooks repos.NotebookRepo,
	sources repos.SourceRepo,
	notes repos.NoteRepo,
	embeddings repos.EmbeddingRepo,
	chat repos.ChatMessageRepo,
	bucket gcp.BucketService,
	events EventPublisher,
	baseLog *logger.Logger,
) NotebookService {
	return &notebookService{
		db:         db,
		log:        baseLog.With("service", "NotebookService"),
		notebooks:  notebooks,
		sources:    sources,
		notes:      notes,
		embeddings: embeddings,
		chat:       chat,
		bucket:     bucket,
		events:     events,
	}
}

// NotebookStoragePrefix namespaces every object a notebook owns inside
// the document and audio buckets. The notebook id is the first path
// segment of every key.
func NotebookStoragePrefix(notebookID uuid.UUID) string {
	return fmt.Sprintf("%s/", notebookID)
}

func (s *notebookService) Create(ctx context.Context, input CreateNotebookInput) (*types.Notebook, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", pkgerrors.ErrInvalidArgument)
	}
	created, err := s.notebooks.Create(ctx, nil, []*types.Notebook{{
		UserID:      userID,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Color:       input.Color,
		Icon:        input.Icon,
	}})
	if err != nil {
		return nil, err
	}
	s.log.Info("Notebook created", "notebook_id", created[0].ID, "user_id", userID)
	return created[0], nil
}

func (s *notebookService) Get(ctx context.Context, notebookID uuid.UUID) (*types.Notebook, error) {
	if _, err := requireNotebookOwner(ctx, nil, s.notebooks, notebookID); err != nil {
		return nil, err
	}
	return s.notebooks.GetByID(ctx, nil, notebookID)
}

func (s *notebookService) List(ctx context.Context) ([]*types.Notebook, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	return s.notebooks.GetByUserID(ctx, nil, userID)
}

func (s *notebookService) Update(ctx context.Context, notebookID uuid.UUID, input UpdateNotebookInput) (*types.Notebook, error) {
	if _, err := requireNotebookOwner(ctx, nil, s.notebooks, notebookID); err != nil {
		return nil, err
	}
	fields := map[string]interface{}{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", pkgerrors.ErrInvalidArgument)
		}
		fields["title"] = title
	}
	if input.Description != nil {
		fields["description"] = strings.TrimSpace(*input.Description)
	}
	if input.Color != nil {
		fields["color"] = *input.Color
	}
	if input.Icon != nil {
		fields["icon"] = *input.Icon
	}
	if len(fields) > 0 {
		if err := s.notebooks.UpdateFields(ctx, nil, notebookID, fields); err != nil {
			return nil, err
		}
	}
	updated, err := s.notebooks.GetByID(ctx, nil, notebookID)
	if err != nil {
		return nil, err
	}
	s.events.PublishSourceEvent(ctx, notebookID, realtime.SSEEventNotebookUpdated, updated)
	return updated, nil
}

func (s *notebookService) Delete(ctx context.Context, notebookID uuid.UUID) error {
	if _, err := requireNotebookOwner(ctx, nil, s.notebooks, notebookID); err != nil {
		return err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		sources, err := s.sources.GetByNotebookID(ctx, tx, notebookID)
		if err != nil {
			return err
		}
		for _, src := range sources {
			if err := s.sources.DeleteByID(ctx, tx, src.ID); err != nil {
				return err
			}
		}
		notes, err := s.notes.GetByNotebookID(ctx, tx, notebookID)
		if err != nil {
			return err
		}
		for _, n := range notes {
			if err := s.notes.DeleteByID(ctx, tx, n.ID); err != nil {
				return err
			}
		}
		if err := s.embeddings.DeleteByNotebookID(ctx, tx, notebookID); err != nil {
			return err
		}
		if err := s.chat.DeleteBySessionID(ctx, tx, notebookID); err != nil {
			return err
		}
		return s.notebooks.DeleteByID(ctx, tx, notebookID)
	})
	if err != nil {
		return err
	}

	// Storage cleanup happens after commit; a leaked object is better
	// than a notebook row pointing at deleted files.
	if s.bucket != nil {
		prefix := NotebookStoragePrefix(notebookID)
		if err := s.bucket.DeletePrefix(ctx, gcp.BucketCategoryDocument, prefix); err != nil {
			s.log.Warn("Failed to clean document objects", "notebook_id", notebookID, "error", err)
		}
		if err := s.bucket.DeletePrefix(ctx, gcp.BucketCategoryAudio, prefix); err != nil {
			s.log.Warn("Failed to clean audio objects", "notebook_id", notebookID, "error", err)
		}
	}
	s.log.Info("Notebook deleted", "notebook_id", notebookID)
	return nil
}
