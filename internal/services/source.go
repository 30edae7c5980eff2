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

type CreateFileSourceInput struct {
	Type        types.SourceType `json:"type" binding:"required"`
	Title       string           `json:"title" binding:"required"`
	ContentType string           `json:"content_type" binding:"required"`
	FileSize    int64            `json:"file_size" binding:"required"`
}

type CreateTextSourceInput struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content" binding:"required"`
}

type SourceService interface {
	// CreateFileSource registers a pending file-backed source and hands
	// back its storage path; the client uploads bytes there before asking
	// for processing.
	CreateFileSource(ctx context.Context, notebookID uuid.UUID, input CreateFileSourceInput) (*types.Source, error)
	CreateTextSource(ctx context.Context, notebookID uuid.UUID, input CreateTextSourceInput) (*types.Source, error)
	CreateURLSources(ctx context.Context, notebookID uuid.UUID, sourceType types.SourceType, urls []string) ([]*types.Source, error)

	// MarkUploading moves a pending file-backed source into uploading.
	MarkUploading(ctx context.Context, sourceID uuid.UUID) (*types.Source, error)

	Get(ctx context.Context, sourceID uuid.UUID) (*types.Source, error)
	List(ctx context.Context, notebookID uuid.UUID) ([]*types.Source, error)
	Delete(ctx context.Context, sourceID uuid.UUID) error

	// Reset pulls a terminal source back to pending for re-submission.
	// This is the only exit from completed or failed.
	Reset(ctx context.Context, sourceID uuid.UUID) (*types.Source, error)
}

type sourceService struct {
	db        *gorm.DB
	log       *logger.Logger
	notebooks repos.NotebookRepo
	sources   repos.SourceRepo
	bucket    gcp.BucketService
	events    EventPublisher
}

func NewSourceService(
	db *gorm.DB,
	notebooks repos.NotebookRepo,
	sources repos.SourceRepo,
	bucket gcp.BucketService,
	events EventPublisher,
	baseLog *logger.Logger,
) SourceService {
	return &sourceService{
		db:        db,
		log:       baseLog.With("service", "SourceService"),
		notebooks: notebooks,
		sources:   sources,
		bucket:    bucket,
		events:    events,
	}
}

func bucketCategoryFor(t types.SourceType) gcp.BucketCategory {
	if t == types.SourceTypeAudio {
		return gcp.BucketCategoryAudio
	}
	return gcp.BucketCategoryDocument
}

// getOwnedSource loads a source and checks the owning notebook belongs
// to the caller.
func (s *sourceService) getOwnedSource(ctx context.Context, tx *gorm.DB, sourceID uuid.UUID) (*types.Source, error) {
	src, err := s.sources.GetByID(ctx, tx, sourceID)
	if err != nil {
		return nil, err
	}
	if _, err := requireNotebookOwner(ctx, tx, s.notebooks, src.NotebookID); err != nil {
		return nil, err
	}
	return src, nil
}

func (s *sourceService) CreateFileSource(ctx context.Context, notebookID uuid.UUID, input CreateFileSourceInput) (*types.Source, error) {
	if _, err := requireNotebookOwner(ctx, nil, s.notebooks, notebookID); err != nil {
		return nil, err
	}
	if !input.Type.Valid() || !input.Type.RequiresUpload() {
		return nil, fmt.Errorf("%w: source type %q does not take a file upload", pkgerrors.ErrInvalidArgument, input.Type)
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", pkgerrors.ErrInvalidArgument)
	}
	category := bucketCategoryFor(input.Type)
	if err := gcp.ValidateObject(category, input.ContentType, input.FileSize); err != nil {
		return nil, err
	}

	sourceID := uuid.New()
	storagePath := fmt.Sprintf("%ssources/%s", NotebookStoragePrefix(notebookID), sourceID)
	created, err := s.sources.Create(ctx, nil, []*types.Source{{
		ID:               sourceID,
		NotebookID:       notebookID,
		Type:             input.Type,
		Title:            title,
		StoragePath:      storagePath,
		FileSize:         input.FileSize,
		ProcessingStatus: types.SourceStatusPending,
	}})
	if err != nil {
		return nil, err
	}
	s.events.PublishSourceEvent(ctx, notebookID, realtime.SSEEventSourceCreated, created[0])
	return created[0], nil
}

func (s *sourceService) CreateTextSource(ctx context.Context, notebookID uuid.UUID, input CreateTextSourceInput) (*types.Source, error) {
	if _, err := requireNotebookOwner(ctx, nil, s.notebooks, notebookID); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(input.Title)
	content := strings.TrimSpace(input.Content)
	if title == "" || content == "" {
		return nil, fmt.Errorf("%w: title and content are required", pkgerrors.ErrInvalidArgument)
	}
	created, err := s.sources.Create(ctx, nil, []*types.Source{{
		NotebookID:       notebookID,
		Type:             types.SourceTypeText,
		Title:            title,
		Content:          content,
		ProcessingStatus: types.SourceStatusPending,
	}})
	if err != nil {
		return nil, err
	}
	s.events.PublishSourceEvent(ctx, notebookID, realtime.SSEEventSourceCreated, created[0])
	return created[0], nil
}

func (s *sourceService) CreateURLSources(ctx context.Context, notebookID uuid.UUID, sourceType types.SourceType, urls []string) ([]*types.Source, error) {
	if _, err := requireNotebookOwner(ctx, nil, s.notebooks, notebookID); err != nil {
		return nil, err
	}
	if sourceType != types.SourceTypeWebsite && sourceType != types.SourceTypeYouTube {
		return nil, fmt.Errorf("%w: source type %q is not URL-backed", pkgerrors.ErrInvalidArgument, sourceType)
	}
	var toCreate []*types.Source
	for _, raw := range urls {
		u := strings.TrimSpace(raw)
		if u == "" {
			return nil, fmt.Errorf("%w: empty url in batch", pkgerrors.ErrInvalidArgument)
		}
		toCreate = append(toCreate, &types.Source{
			NotebookID:       notebookID,
			Type:             sourceType,
			Title:            u,
			URL:              u,
			ProcessingStatus: types.SourceStatusPending,
		})
	}
	if len(toCreate) == 0 {
		return nil, fmt.Errorf("%w: at least one url is required", pkgerrors.ErrInvalidArgument)
	}
	created, err := s.sources.Create(ctx, nil, toCreate)
	if err != nil {
		return nil, err
	}
	for _, src := range created {
		s.events.PublishSourceEvent(ctx, notebookID, realtime.SSEEventSourceCreated, src)
	}
	return created, nil
}

func (s *sourceService) MarkUploading(ctx context.Context, sourceID uuid.UUID) (*types.Source, error) {
	src, err := s.getOwnedSource(ctx, nil, sourceID)
	if err != nil {
		return nil, err
	}
	if !types.CanUpload(src.Type, src.ProcessingStatus) {
		return nil, fmt.Errorf("%w: %s source in %s cannot start uploading",
			pkgerrors.ErrInvalidTransition, src.Type, src.ProcessingStatus)
	}
	moved, err := s.sources.TransitionStatus(ctx, nil, sourceID,
		[]types.SourceStatus{types.SourceStatusPending}, types.SourceStatusUploading, nil)
	if err != nil {
		return nil, err
	}
	if moved == 0 {
		return nil, pkgerrors.ErrInvalidTransition
	}
	updated, err := s.sources.GetByID(ctx, nil, sourceID)
	if err != nil {
		return nil, err
	}
	s.events.PublishSourceEvent(ctx, src.NotebookID, realtime.SSEEventSourceStatusChanged, updated)
	return updated, nil
}

func (s *sourceService) Get(ctx context.Context, sourceID uuid.UUID) (*types.Source, error) {
	return s.getOwnedSource(ctx, nil, sourceID)
}

func (s *sourceService) List(ctx context.Context, notebookID uuid.UUID) ([]*types.Source, error) {
	if _, err := requireNotebookOwner(ctx, nil, s.notebooks, notebookID); err != nil {
		return nil, err
	}
	return s.sources.GetByNotebookID(ctx, nil, notebookID)
}

func (s *sourceService) Delete(ctx context.Context, sourceID uuid.UUID) error {
	src, err := s.getOwnedSource(ctx, nil, sourceID)
	if err != nil {
		return err
	}
	if err := s.sources.DeleteByID(ctx, nil, sourceID); err != nil {
		return err
	}
	if s.bucket != nil && src.StoragePath != "" {
		if err := s.bucket.DeleteFile(ctx, bucketCategoryFor(src.Type), src.StoragePath); err != nil {
			s.log.Warn("Failed to delete stored object", "source_id", sourceID, "error", err)
		}
	}
	s.events.PublishSourceEvent(ctx, src.NotebookID, realtime.SSEEventSourceDeleted, map[string]any{"id": sourceID})
	return nil
}

func (s *sourceService) Reset(ctx context.Context, sourceID uuid.UUID) (*types.Source, error) {
	src, err := s.getOwnedSource(ctx, nil, sourceID)
	if err != nil {
		return nil, err
	}
	if !src.ProcessingStatus.Terminal() {
		return nil, fmt.Errorf("%w: only completed or failed sources can be reset",
			pkgerrors.ErrInvalidTransition)
	}
	moved, err := s.sources.TransitionStatus(ctx, nil, sourceID,
		[]types.SourceStatus{types.SourceStatusCompleted, types.SourceStatusFailed},
		types.SourceStatusPending, nil)
	if err != nil {
		return nil, err
	}
	if moved == 0 {
		return nil, pkgerrors.ErrInvalidTransition
	}
	updated, err := s.sources.GetByID(ctx, nil, sourceID)
	if err != nil {
		return nil, err
	}
	s.events.PublishSourceEvent(ctx, src.NotebookID, realtime.SSEEventSourceStatusChanged, updated)
	return updated, nil
}
