package repos

import (
	"context"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/notelab/notebook-backend/internal/pkg/logger"
	"github.com/notelab/notebook-backend/internal/types"
)

type EmbeddingRepo interface {
	Create(ctx context.Context, tx *gorm.DB, embeddings []*types.Embedding) ([]*types.Embedding, error)
	// Match runs an ordered cosine-similarity search, optionally filtered
	// to one notebook through the metadata back-reference. Rows come back
	// ordered by ascending distance, i.e. descending similarity.
	Match(ctx context.Context, tx *gorm.DB, query pgvector.Vector, limit int, notebookID uuid.UUID) ([]*types.EmbeddingMatch, error)
	DeleteByNotebookID(ctx context.Context, tx *gorm.DB, notebookID uuid.UUID) error
	// NotebookIDFromMetadata resolves an embedding row's owning notebook
	// out of its metadata document, for ownership checks.
	NotebookIDFromMetadata(ctx context.Context, tx *gorm.DB, embeddingID uuid.UUID) (uuid.UUID, error)
}

type embeddingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEmbeddingRepo(db *gorm.DB, baseLog *logger.Logger) EmbeddingRepo {
	return &embeddingRepo{db: db, log: baseLog.With("repo", "EmbeddingRepo")}
}

func (r *embeddingRepo) Create(ctx context.Context, tx *gorm.DB, embeddings []*types.Embedding) ([]*types.Embedding, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(embeddings) == 0 {
		return []*types.Embedding{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&embeddings).Error; err != nil {
		return nil, err
	}
	return embeddings, nil
}

func (r *embeddingRepo) Match(ctx context.Context, tx *gorm.DB, query pgvector.Vector, limit int, notebookID uuid.UUID) ([]*types.EmbeddingMatch, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 10
	}
	var results []*types.EmbeddingMatch
	if notebookID != uuid.Nil {
		err := transaction.WithContext(ctx).Raw(`
			SELECT id, content, metadata, 1 - (embedding <=> ?) AS similarity
			FROM embedding
			WHERE metadata->>'notebook_id' = ?
			ORDER BY embedding <=> ?
			LIMIT ?`, query, notebookID.String(), query, limit).
			Scan(&results).Error
		if err != nil {
			return nil, err
		}
		return results, nil
	}
	err := transaction.WithContext(ctx).Raw(`
		SELECT id, content, metadata, 1 - (embedding <=> ?) AS similarity
		FROM embedding
		ORDER BY embedding <=> ?
		LIMIT ?`, query, query, limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (r *embeddingRepo) DeleteByNotebookID(ctx context.Context, tx *gorm.DB, notebookID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("metadata->>'notebook_id' = ?", notebookID.String()).
		Delete(&types.Embedding{}).Error
}

func (r *embeddingRepo) NotebookIDFromMetadata(ctx context.Context, tx *gorm.DB, embeddingID uuid.UUID) (uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var raw string
	err := transaction.WithContext(ctx).
		Model(&types.Embedding{}).
		Select("metadata->>'notebook_id'").
		Where("id = ?", embeddingID).
		Scan(&raw).Error
	if err != nil {
		return uuid.Nil, err
	}
	if raw == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(raw)
}
