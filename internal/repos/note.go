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

type NoteRepo interface {
	Create(ctx context.Context, tx *gorm.DB, notes []*types.Note) ([]*types.Note, error)
	GetByID(ctx context.Context, tx *gorm.DB, noteID uuid.UUID) (*types.Note, error)
	GetByNotebookID(ctx context.Context, tx *gorm.DB, notebookID uuid.UUID) ([]*types.Note, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, noteID uuid.UUID, fields map[string]interface{}) error
	DeleteByID(ctx context.Context, tx *gorm.DB, noteID uuid.UUID) error
}

type noteRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewNoteRepo(db *gorm.DB, baseLog *logger.Logger) NoteRepo {
	return &noteRepo{db: db, log: baseLog.With("repo", "NoteRepo")}
}

func (r *noteRepo) Create(ctx context.Context, tx *gorm.DB, notes []*types.Note) ([]*types.Note, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(notes) == 0 {
		return []*types.Note{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&notes).Error; err != nil {
		return nil, err
	}
	return notes, nil
}

func (r *noteRepo) GetByID(ctx context.Context, tx *gorm.DB, noteID uuid.UUID) (*types.Note, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.Note
	err := transaction.WithContext(ctx).
		Where("id = ?", noteID).
		First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ErrNotFound
		}
		return nil, err
	}
	return &result, nil
}

func (r *noteRepo) GetByNotebookID(ctx context.Context, tx *gorm.DB, notebookID uuid.UUID) ([]*types.Note, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Note
	if err := transaction.WithContext(ctx).
		Where("notebook_id = ?", notebookID).
		Order("updated_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *noteRepo) UpdateFields(ctx context.Context, tx *gorm.DB, noteID uuid.UUID, fields map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(fields) == 0 {
		return nil
	}
	fields["updated_at"] = time.Now()
	res := transaction.WithContext(ctx).
		Model(&types.Note{}).
		Where("id = ?", noteID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.ErrNotFound
	}
	return nil
}

func (r *noteRepo) DeleteByID(ctx context.Context, tx *gorm.DB, noteID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", noteID).
		Delete(&types.Note{}).Error
}
