package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SourceType string

const (
	SourceTypePDF     SourceType = "pdf"
	SourceTypeText    SourceType = "text"
	SourceTypeWebsite SourceType = "website"
	SourceTypeYouTube SourceType = "youtube"
	SourceTypeAudio   SourceType = "audio"
)

func (t SourceType) Valid() bool {
	switch t {
	case SourceTypePDF, SourceTypeText, SourceTypeWebsite, SourceTypeYouTube, SourceTypeAudio:
		return true
	}
	return false
}

// RequiresUpload reports whether sources of this type carry bytes the
// client must first transfer to the object store. Pasted text and remote
// URLs skip the uploading state entirely.
func (t SourceType) RequiresUpload() bool {
	return t == SourceTypePDF || t == SourceTypeAudio
}

type Source struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	NotebookID uuid.UUID `gorm:"type:uuid;not null;index" json:"notebook_id"`
	Notebook   *Notebook `gorm:"constraint:OnDelete:CASCADE;foreignKey:NotebookID;references:ID" json:"notebook,omitempty"`

	Type        SourceType `gorm:"column:type;not null" json:"type"`
	Title       string     `gorm:"column:title;not null" json:"title"`
	URL         string     `gorm:"column:url" json:"url,omitempty"`
	StoragePath string     `gorm:"column:storage_path" json:"storage_path,omitempty"`
	FileSize    int64      `gorm:"column:file_size" json:"file_size,omitempty"`

	Content string `gorm:"column:content;type:text" json:"content,omitempty"`
	Summary string `gorm:"column:summary;type:text" json:"summary,omitempty"`

	ProcessingStatus SourceStatus   `gorm:"column:processing_status;not null;default:'pending';index" json:"processing_status"`
	Metadata         datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;index" json:"updated_at"`
}

func (Source) TableName() string { return "source" }

func (s *Source) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
