package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/notelab/notebook-backend/internal/pkg/errors"
	"github.com/notelab/notebook-backend/internal/pkg/logger"
	"github.com/notelab/notebook-backend/internal/types"
)

type NotebookRepo interface {
	Create(ctx context.Context, tx *gorm.DB, notebooks []*types.Notebook) ([]*types.Notebook, error)
	GetByID(ctx context.Context, tx *gorm.DB, notebookID uuid.UUID) (*types.Notebook, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Notebook, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, notebookID uuid.UUID, fields map[string]interface{}) error
	DeleteByID(ctx context.Context, tx *gorm.DB, notebookID uuid.UUID) error
	// IsOwner is the ownership predicate every scoped read/write goes
	// through: true only when the notebook exists and belongs to userID.
	IsOwner(ctx context.Context, tx *gorm.DB, userID, notebookID uuid.UUID) (bool, error)
}

type notebookRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewNotebookRepo(db *gorm.DB, baseLog *logger.Logger) NotebookRepo {
	return &notebookRepo{db: db, log: baseLog.With("repo", "NotebookRepo")}
}

func (r *notebookRepo) Create(ctx context.Context, tx *gorm.DB, notebooks []*types.Notebook) ([]*types.Notebook, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(notebooks) == 0 {
		return []*types.Notebook{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&notebooks).Error; err != nil {
		return nil, err
	}
	return notebooks, nil
}

func (r *notebookRepo) GetByID(ctx context.Context, tx *gorm.DB, notebookID uuid.UUID) (*types.Notebook, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.Notebook
	err := transaction.WithContext(ctx).
		Where("id = ?", notebookID).
		First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ErrNotFound
		}
		return nil, err
	}
	return &result, nil
}

func (r *notebookRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Notebook, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Notebook
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *notebookRepo) UpdateFields(ctx context.Context, tx *gorm.DB, notebookID uuid.UUID, fields map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(fields) == 0 {
		return nil
	}
	res := transaction.WithContext(ctx).
		Model(&types.Notebook{}).
		Where("id = ?", notebookID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.ErrNotFound
	}
	return nil
}

func (r *notebookRepo) DeleteByID(ctx context.Context, tx *gorm.DB, notebookID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", notebookID).
		Delete(&types.Notebook{}).Error
}

func (r *notebookRepo) IsOwner(ctx context.Context, tx *gorm.DB, userID, notebookID uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if userID == uuid.Nil || notebookID == uuid.Nil {
		return false, nil
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Notebook{}).
		Where("id = ? AND user_id = ?", notebookID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
