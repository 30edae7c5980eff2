package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EmbeddingDim is the dimension of stored vectors.
const EmbeddingDim = 768

// Embedding holds a chunk of source text with its vector. Ownership is
// derived through metadata["notebook_id"] rather than a foreign key
// column, so every write path must stamp the owning notebook into
// metadata before insert.
type Embedding struct {
	ID       uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Content  string          `gorm:"column:content;type:text;not null" json:"content"`
	Metadata datatypes.JSON  `gorm:"column:metadata;type:jsonb;not null" json:"metadata"`
	Vector   pgvector.Vector `gorm:"column:embedding;type:vector(768)" json:"-"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Embedding) TableName() string { return "embedding" }

func (e *Embedding) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// EmbeddingMatch is one row of a similarity search result, ordered by
// descending similarity.
type EmbeddingMatch struct {
	ID         uuid.UUID      `json:"id"`
	Content    string         `json:"content"`
	Metadata   datatypes.JSON `json:"metadata"`
	Similarity float64        `json:"similarity"`
}
