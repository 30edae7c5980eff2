package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/notelab/notebook-backend/internal/pkg/errors"
	"github.com/notelab/notebook-backend/internal/pkg/logger"
	"github.com/notelab/notebook-backend/internal/types"
)

type SourceRepo interface {
	Create(ctx context.Context, tx *gorm.DB, sources []*types.Source) ([]*types.Source, error)
	GetByID(ctx context.Context, tx *gorm.DB, sourceID uuid.UUID) (*types.Source, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, sourceIDs []uuid.UUID) ([]*types.Source, error)
	GetByNotebookID(ctx context.Context, tx *gorm.DB, notebookID uuid.UUID) ([]*types.Source, error)

	// TransitionStatus flips processing_status from one of the expected
	// states to the target in a single conditional UPDATE, optionally
	// carrying extra column writes. Returns the number of rows actually
	// moved, so racing callers observe 0 instead of clobbering state.
	TransitionStatus(ctx context.Context, tx *gorm.DB, sourceID uuid.UUID, from []types.SourceStatus, to types.SourceStatus, extra map[string]interface{}) (int64, error)
	TransitionStatusByIDs(ctx context.Context, tx *gorm.DB, sourceIDs []uuid.UUID, from []types.SourceStatus, to types.SourceStatus) (int64, error)

	// ApplyUpdate writes the given columns in one atomic UPDATE keyed by
	// id. Never read-modify-write around this; two concurrent callbacks
	// must serialize on the row, last committed write winning.
	ApplyUpdate(ctx context.Context, tx *gorm.DB, sourceID uuid.UUID, fields map[string]interface{}) (int64, error)

	// FailStaleProcessing marks sources stuck in processing since before
	// the cutoff as failed. Returns how many were swept.
	FailStaleProcessing(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)

	DeleteByID(ctx context.Context, tx *gorm.DB, sourceID uuid.UUID) error
}

type sourceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSourceRepo(db *gorm.DB, baseLog *logger.Logger) SourceRepo {
	return &sourceRepo{db: db, log: baseLog.With("repo", "SourceRepo")}
}

func (r *sourceRepo) Create(ctx context.Context, tx *gorm.DB, sources []*types.Source) ([]*types.Source, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(sources) == 0 {
		return []*types.Source{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&sources).Error; err != nil {
		return nil, err
	}
	return sources, nil
}

func (r *sourceRepo) GetByID(ctx context.Context, tx *gorm.DB, sourceID uuid.UUID) (*types.Source, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.Source
	err := transaction.WithContext(ctx).
		Where("id = ?", sourceID).
		First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ErrNotFound
		}
		return nil, err
	}
	return &result, nil
}

func (r *sourceRepo) GetByIDs(ctx context.Context, tx *gorm.DB, sourceIDs []uuid.UUID) ([]*types.Source, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Source
	if len(sourceIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", sourceIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *sourceRepo) GetByNotebookID(ctx context.Context, tx *gorm.DB, notebookID uuid.UUID) ([]*types.Source, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Source
	if err := transaction.WithContext(ctx).
		Where("notebook_id = ?", notebookID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *sourceRepo) TransitionStatus(ctx context.Context, tx *gorm.DB, sourceID uuid.UUID, from []types.SourceStatus, to types.SourceStatus, extra map[string]interface{}) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	fields := map[string]interface{}{
		"processing_status": to,
		"updated_at":        time.Now(),
	}
	for k, v := range extra {
		fields[k] = v
	}
	res := transaction.WithContext(ctx).
		Model(&types.Source{}).
		Where("id = ? AND processing_status IN ?", sourceID, from).
		Updates(fields)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *sourceRepo) TransitionStatusByIDs(ctx context.Context, tx *gorm.DB, sourceIDs []uuid.UUID, from []types.SourceStatus, to types.SourceStatus) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(sourceIDs) == 0 {
		return 0, nil
	}
	res := transaction.WithContext(ctx).
		Model(&types.Source{}).
		Where("id IN ? AND processing_status IN ?", sourceIDs, from).
		Updates(map[string]interface{}{
			"processing_status": to,
			"updated_at":        time.Now(),
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *sourceRepo) ApplyUpdate(ctx context.Context, tx *gorm.DB, sourceID uuid.UUID, fields map[string]interface{}) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(fields) == 0 {
		return 0, nil
	}
	fields["updated_at"] = time.Now()
	res := transaction.WithContext(ctx).
		Model(&types.Source{}).
		Where("id = ?", sourceID).
		Updates(fields)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *sourceRepo) FailStaleProcessing(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.Source{}).
		Where("processing_status = ? AND updated_at < ?", types.SourceStatusProcessing, cutoff).
		Updates(map[string]interface{}{
			"processing_status": types.SourceStatusFailed,
			"updated_at":        time.Now(),
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *sourceRepo) DeleteByID(ctx context.Context, tx *gorm.DB, sourceID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", sourceID).
		Delete(&types.Source{}).Error
}
