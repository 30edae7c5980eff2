package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	pkgerrors "github.com/notelab/notebook-backend/internal/pkg/errors"
	"github.com/notelab/notebook-backend/internal/pkg/logger"
	"github.com/notelab/notebook-backend/internal/repos"
	"github.com/notelab/notebook-backend/internal/types"
)

type CreateEmbeddingInput struct {
	Content  string         `json:"content" binding:"required"`
	Metadata map[string]any `json:"metadata" binding:"required"`
	Vector   []float32      `json:"embedding" binding:"required"`
}

type MatchInput struct {
	Vector     []float32 `json:"query_embedding" binding:"required"`
	Limit      int       `json:"match_count"`
	NotebookID uuid.UUID `json:"notebook_id"`
}

// SearchService stores source chunks with their vectors and answers
// similarity queries scoped to a notebook.
type SearchService interface {
	CreateEmbeddings(ctx context.Context, inputs []CreateEmbeddingInput) ([]*types.Embedding, error)
	Match(ctx context.Context, input MatchInput) ([]*types.EmbeddingMatch, error)
}

type searchService struct {
	db         *gorm.DB
	log        *logger.Logger
	notebooks  repos.NotebookRepo
	embeddings repos.EmbeddingRepo
}

func NewSearchService(db *gorm.DB, notebooks repos.NotebookRepo, embeddings repos.EmbeddingRepo, baseLog *logger.Logger) SearchService {
	return &searchService{
		db:         db,
		log:        baseLog.With("service", "SearchService"),
		notebooks:  notebooks,
		embeddings: embeddings,
	}
}

// EmbeddingNotebookID pulls the owning notebook out of an embedding's
// metadata document. Rows without the back-reference belong to nobody
// and are invisible to scoped queries.
func EmbeddingNotebookID(metadata map[string]any) (uuid.UUID, error) {
	raw, ok := metadata["notebook_id"].(string)
	if !ok || raw == "" {
		return uuid.Nil, fmt.Errorf("%w: metadata.notebook_id is required", pkgerrors.ErrInvalidArgument)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: metadata.notebook_id %q is not a uuid", pkgerrors.ErrInvalidArgument, raw)
	}
	return id, nil
}

func (s *searchService) CreateEmbeddings(ctx context.Context, inputs []CreateEmbeddingInput) ([]*types.Embedding, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: at least one embedding is required", pkgerrors.ErrInvalidArgument)
	}
	var toCreate []*types.Embedding
	for i, input := range inputs {
		if input.Content == "" {
			return nil, fmt.Errorf("%w: embedding %d has empty content", pkgerrors.ErrInvalidArgument, i)
		}
		if len(input.Vector) != types.EmbeddingDim {
			return nil, fmt.Errorf("%w: embedding %d has dimension %d, want %d",
				pkgerrors.ErrInvalidArgument, i, len(input.Vector), types.EmbeddingDim)
		}
		notebookID, err := EmbeddingNotebookID(input.Metadata)
		if err != nil {
			return nil, err
		}
		if _, err := requireNotebookOwner(ctx, nil, s.notebooks, notebookID); err != nil {
			return nil, err
		}
		raw, err := json.Marshal(input.Metadata)
		if err != nil {
			return nil, err
		}
		toCreate = append(toCreate, &types.Embedding{
			Content:  input.Content,
			Metadata: datatypes.JSON(raw),
			Vector:   pgvector.NewVector(input.Vector),
		})
	}
	return s.embeddings.Create(ctx, nil, toCreate)
}

func (s *searchService) Match(ctx context.Context, input MatchInput) ([]*types.EmbeddingMatch, error) {
	if len(input.Vector) != types.EmbeddingDim {
		return nil, fmt.Errorf("%w: query has dimension %d, want %d",
			pkgerrors.ErrInvalidArgument, len(input.Vector), types.EmbeddingDim)
	}
	if input.NotebookID == uuid.Nil {
		return nil, fmt.Errorf("%w: notebook_id is required", pkgerrors.ErrInvalidArgument)
	}
	if _, err := requireNotebookOwner(ctx, nil, s.notebooks, input.NotebookID); err != nil {
		return nil, err
	}
	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}
	if limit > 50 {
		limit = 50
	}
	return s.embeddings.Match(ctx, nil, pgvector.NewVector(input.Vector), limit, input.NotebookID)
}
