package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/notelab/notebook-backend/internal/clients/engine"
	"github.com/notelab/notebook-backend/internal/clients/gcp"
	pkgerrors "github.com/notelab/notebook-backend/internal/pkg/errors"
	"github.com/notelab/notebook-backend/internal/pkg/logger"
	"github.com/notelab/notebook-backend/internal/realtime"
	"github.com/notelab/notebook-backend/internal/repos"
	"github.com/notelab/notebook-backend/internal/types"
)

type BatchSubmitInput struct {
	Type      types.SourceType `json:"type" binding:"required"`
	SourceIDs []uuid.UUID      `json:"source_ids" binding:"required"`
	URLs      []string         `json:"urls"`
	Content   string           `json:"content"`
}

// DispatchService forwards accepted sources to the external workflow
// engine. It only moves status; content fields are written later by the
// callback receiver.
type DispatchService interface {
	// SubmitDocument pushes one file-backed source into processing and
	// forwards a document job. The source must have finished uploading
	// (or still sit in pending for types without an upload phase).
	SubmitDocument(ctx context.Context, sourceID uuid.UUID) (*types.Source, error)

	// SubmitBatch pushes a batch of URL or text sources into processing
	// in one engine submission. Validation happens before any row moves;
	// a forwarding failure fails every source in the batch.
	SubmitBatch(ctx context.Context, notebookID uuid.UUID, input BatchSubmitInput) ([]*types.Source, error)
}

type dispatchService struct {
	db        *gorm.DB
	log       *logger.Logger
	notebooks repos.NotebookRepo
	sources   repos.SourceRepo
	engine    engine.Client
	bucket    gcp.BucketService
	events    EventPublisher
}

func NewDispatchService(
	db *gorm.DB,
	notebooks repos.NotebookRepo,
	sources repos.SourceRepo,
	engineClient engine.Client,
	bucket gcp.BucketService,
	events EventPublisher,
	baseLog *logger.Logger,
) DispatchService {
	return &dispatchService{
		db:        db,
		log:       baseLog.With("service", "DispatchService"),
		notebooks: notebooks,
		sources:   sources,
		engine:    engineClient,
		bucket:    bucket,
		events:    events,
	}
}

func (s *dispatchService) SubmitDocument(ctx context.Context, sourceID uuid.UUID) (*types.Source, error) {
	src, err := s.sources.GetByID(ctx, nil, sourceID)
	if err != nil {
		return nil, err
	}
	if _, err := requireNotebookOwner(ctx, nil, s.notebooks, src.NotebookID); err != nil {
		return nil, err
	}
	if !src.Type.RequiresUpload() {
		return nil, fmt.Errorf("%w: %s sources are submitted in batches", pkgerrors.ErrInvalidArgument, src.Type)
	}

	moved, err := s.sources.TransitionStatus(ctx, nil, sourceID,
		[]types.SourceStatus{types.SourceStatusPending, types.SourceStatusUploading},
		types.SourceStatusProcessing, nil)
	if err != nil {
		return nil, err
	}
	if moved == 0 {
		return nil, fmt.Errorf("%w: source is in %s", pkgerrors.ErrInvalidTransition, src.ProcessingStatus)
	}

	job := engine.DocumentJob{
		SourceID:   src.ID,
		FilePath:   src.StoragePath,
		SourceType: string(src.Type),
	}
	if s.bucket != nil && src.StoragePath != "" {
		job.FileURL = s.bucket.GetPublicURL(bucketCategoryFor(src.Type), src.StoragePath)
	}
	if err := s.engine.SubmitDocumentJob(ctx, job); err != nil {
		// Forwarding failed, nothing is in flight; the source fails
		// immediately instead of waiting for the sweeper.
		if _, ferr := s.sources.TransitionStatus(ctx, nil, sourceID,
			[]types.SourceStatus{types.SourceStatusProcessing}, types.SourceStatusFailed, nil); ferr != nil {
			s.log.Error("Failed to mark source failed after dispatch error", "source_id", sourceID, "error", ferr)
		}
		s.publishStatus(ctx, src.NotebookID, sourceID)
		return nil, fmt.Errorf("submit document job: %w", err)
	}

	updated, err := s.sources.GetByID(ctx, nil, sourceID)
	if err != nil {
		return nil, err
	}
	s.events.PublishSourceEvent(ctx, src.NotebookID, realtime.SSEEventSourceStatusChanged, updated)
	s.log.Info("Document job dispatched", "source_id", sourceID, "type", src.Type)
	return updated, nil
}

func (s *dispatchService) SubmitBatch(ctx context.Context, notebookID uuid.UUID, input BatchSubmitInput) ([]*types.Source, error) {
	if _, err := requireNotebookOwner(ctx, nil, s.notebooks, notebookID); err != nil {
		return nil, err
	}
	if err := validateBatchInput(input); err != nil {
		return nil, err
	}

	sources, err := s.sources.GetByIDs(ctx, nil, input.SourceIDs)
	if err != nil {
		return nil, err
	}
	if len(sources) != len(input.SourceIDs) {
		return nil, fmt.Errorf("%w: unknown source id in batch", pkgerrors.ErrNotFound)
	}
	for _, src := range sources {
		if src.NotebookID != notebookID {
			return nil, fmt.Errorf("%w: source %s is not in this notebook", pkgerrors.ErrNotFound, src.ID)
		}
		if src.Type != input.Type {
			return nil, fmt.Errorf("%w: source %s is %s, batch is %s",
				pkgerrors.ErrInvalidArgument, src.ID, src.Type, input.Type)
		}
	}

	// All rows move together or none do.
	err = s.db.Transaction(func(tx *gorm.DB) error {
		moved, err := s.sources.TransitionStatusByIDs(ctx, tx, input.SourceIDs,
			[]types.SourceStatus{types.SourceStatusPending}, types.SourceStatusProcessing)
		if err != nil {
			return err
		}
		if moved != int64(len(input.SourceIDs)) {
			return fmt.Errorf("%w: %d of %d sources are not pending",
				pkgerrors.ErrInvalidTransition, int64(len(input.SourceIDs))-moved, len(input.SourceIDs))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	job := engine.BatchJob{
		Type:       string(input.Type),
		NotebookID: notebookID,
		URLs:       input.URLs,
		Content:    input.Content,
		SourceIDs:  input.SourceIDs,
	}
	if err := s.engine.SubmitBatchJob(ctx, job); err != nil {
		if _, ferr := s.sources.TransitionStatusByIDs(ctx, nil, input.SourceIDs,
			[]types.SourceStatus{types.SourceStatusProcessing}, types.SourceStatusFailed); ferr != nil {
			s.log.Error("Failed to mark batch failed after dispatch error", "notebook_id", notebookID, "error", ferr)
		}
		for _, id := range input.SourceIDs {
			s.publishStatus(ctx, notebookID, id)
		}
		return nil, fmt.Errorf("submit batch job: %w", err)
	}

	updated, err := s.sources.GetByIDs(ctx, nil, input.SourceIDs)
	if err != nil {
		return nil, err
	}
	for _, src := range updated {
		s.events.PublishSourceEvent(ctx, notebookID, realtime.SSEEventSourceStatusChanged, src)
	}
	s.log.Info("Batch job dispatched", "notebook_id", notebookID, "type", input.Type, "count", len(input.SourceIDs))
	return updated, nil
}

// validateBatchInput rejects malformed batches before any row changes
// state: every URL needs its source row and pasted text travels as a
// single-source batch.
func validateBatchInput(input BatchSubmitInput) error {
	if len(input.SourceIDs) == 0 {
		return fmt.Errorf("%w: source_ids is required", pkgerrors.ErrInvalidArgument)
	}
	seen := make(map[uuid.UUID]bool, len(input.SourceIDs))
	for _, id := range input.SourceIDs {
		if id == uuid.Nil {
			return fmt.Errorf("%w: nil source id in batch", pkgerrors.ErrInvalidArgument)
		}
		if seen[id] {
			return fmt.Errorf("%w: duplicate source id %s", pkgerrors.ErrInvalidArgument, id)
		}
		seen[id] = true
	}
	switch input.Type {
	case types.SourceTypeWebsite, types.SourceTypeYouTube:
		if len(input.URLs) != len(input.SourceIDs) {
			return fmt.Errorf("%w: %d urls for %d source ids",
				pkgerrors.ErrInvalidArgument, len(input.URLs), len(input.SourceIDs))
		}
	case types.SourceTypeText:
		if input.Content == "" {
			return fmt.Errorf("%w: content is required for text batches", pkgerrors.ErrInvalidArgument)
		}
		if len(input.SourceIDs) != 1 {
			return fmt.Errorf("%w: text batches carry exactly one source", pkgerrors.ErrInvalidArgument)
		}
	default:
		return fmt.Errorf("%w: type %q cannot be batch-submitted", pkgerrors.ErrInvalidArgument, input.Type)
	}
	return nil
}

func (s *dispatchService) publishStatus(ctx context.Context, notebookID, sourceID uuid.UUID) {
	src, err := s.sources.GetByID(ctx, nil, sourceID)
	if err != nil {
		return
	}
	s.events.PublishSourceEvent(ctx, notebookID, realtime.SSEEventSourceStatusChanged, src)
}
