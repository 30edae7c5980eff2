package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NoteAuthor string

const (
	NoteAuthorUser      NoteAuthor = "user"
	NoteAuthorGenerated NoteAuthor = "generated"
)

func (a NoteAuthor) Valid() bool {
	return a == NoteAuthorUser || a == NoteAuthorGenerated
}

// Note lives alongside sources in a notebook but has its own lifecycle;
// it never enters the processing pipeline.
type Note struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	NotebookID uuid.UUID `gorm:"type:uuid;not null;index" json:"notebook_id"`
	Notebook   *Notebook `gorm:"constraint:OnDelete:CASCADE;foreignKey:NotebookID;references:ID" json:"notebook,omitempty"`

	Title         string     `gorm:"column:title;not null" json:"title"`
	Content       string     `gorm:"column:content;type:text" json:"content"`
	Author        NoteAuthor `gorm:"column:author;not null;default:'user'" json:"author"`
	ExtractedText string     `gorm:"column:extracted_text;type:text" json:"extracted_text,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Note) TableName() string { return "note" }

func (n *Note) BeforeCreate(*gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
