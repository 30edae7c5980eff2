package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/notelab/notebook-backend/internal/pkg/errors"
	"github.com/notelab/notebook-backend/internal/pkg/logger"
	"github.com/notelab/notebook-backend/internal/realtime"
	"github.com/notelab/notebook-backend/internal/repos"
	"github.com/notelab/notebook-backend/internal/types"
)

// CallbackResult is what the workflow engine posts back once a job
// finishes. Every field except source_id is optional; absent or empty
// fields leave the stored value alone.
type CallbackResult struct {
	SourceID    string         `json:"source_id"`
	Title       string         `json:"title"`
	DisplayName string         `json:"display_name"`
	Summary     string         `json:"summary"`
	Content     string         `json:"content"`
	Status      string         `json:"status"`
	Error       string         `json:"error"`
	Metadata    map[string]any `json:"metadata"`
}

// CallbackService reconciles engine results into source rows. The
// callback endpoint is unauthenticated by contract, so this service
// trusts only the source id it is given.
type CallbackService interface {
	// ApplyResult writes the result in a single atomic UPDATE. Duplicate
	// deliveries write the same values again and are harmless.
	ApplyResult(ctx context.Context, result CallbackResult) (*types.Source, error)
}

type callbackService struct {
	db      *gorm.DB
	log     *logger.Logger
	sources repos.SourceRepo
	events  EventPublisher
}

func NewCallbackService(db *gorm.DB, sources repos.SourceRepo, events EventPublisher, baseLog *logger.Logger) CallbackService {
	return &callbackService{
		db:      db,
		log:     baseLog.With("service", "CallbackService"),
		sources: sources,
		events:  events,
	}
}

func (s *callbackService) ApplyResult(ctx context.Context, result CallbackResult) (*types.Source, error) {
	rawID := strings.TrimSpace(result.SourceID)
	if rawID == "" {
		return nil, fmt.Errorf("%w: source_id is required", pkgerrors.ErrInvalidArgument)
	}
	sourceID, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("%w: source_id %q is not a uuid", pkgerrors.ErrInvalidArgument, rawID)
	}
	// A callback reports an outcome; it may not rewind a source into a
	// pre-processing state.
	if st := strings.TrimSpace(result.Status); st != "" {
		switch types.SourceStatus(st) {
		case types.SourceStatusCompleted, types.SourceStatusFailed:
		default:
			return nil, fmt.Errorf("%w: callback cannot assert status %q", pkgerrors.ErrInvalidArgument, st)
		}
	}

	fields, failed := buildResultFields(result)
	rows, err := s.sources.ApplyUpdate(ctx, nil, sourceID, fields)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, pkgerrors.ErrNotFound
	}

	updated, err := s.sources.GetByID(ctx, nil, sourceID)
	if err != nil {
		return nil, err
	}
	s.events.PublishSourceEvent(ctx, updated.NotebookID, realtime.SSEEventSourceStatusChanged, updated)
	if failed {
		s.log.Warn("Source failed in engine", "source_id", sourceID, "engine_error", result.Error)
	} else {
		s.log.Info("Source completed", "source_id", sourceID)
	}
	return updated, nil
}

// buildResultFields maps a callback payload onto column writes. Only
// non-empty payload fields make it in, so a sparse result never blanks
// data written by an earlier delivery. Title beats display_name when
// both arrive. An error forces failed no matter what else the payload
// says; otherwise an explicit terminal status wins over the completed
// default.
func buildResultFields(result CallbackResult) (map[string]interface{}, bool) {
	fields := map[string]interface{}{}

	title := strings.TrimSpace(result.Title)
	if title == "" {
		title = strings.TrimSpace(result.DisplayName)
	}
	if title != "" {
		fields["title"] = title
	}
	if result.Summary != "" {
		fields["summary"] = result.Summary
	}
	if result.Content != "" {
		fields["content"] = result.Content
	}
	if len(result.Metadata) > 0 {
		if raw, err := json.Marshal(result.Metadata); err == nil {
			fields["metadata"] = raw
		}
	}

	failed := strings.TrimSpace(result.Error) != ""
	switch {
	case failed:
		fields["processing_status"] = types.SourceStatusFailed
	case strings.TrimSpace(result.Status) != "":
		fields["processing_status"] = types.SourceStatus(strings.TrimSpace(result.Status))
	default:
		fields["processing_status"] = types.SourceStatusCompleted
	}
	return fields, failed
}
