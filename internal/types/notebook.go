package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Notebook struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User   *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`

	Title       string `gorm:"column:title;not null" json:"title"`
	Description string `gorm:"column:description" json:"description"`
	Color       string `gorm:"column:color" json:"color"`
	Icon        string `gorm:"column:icon" json:"icon"`

	GenerationStatus string `gorm:"column:generation_status;not null;default:'pending'" json:"generation_status"`

	AudioOverviewURL       string     `gorm:"column:audio_overview_url" json:"audio_overview_url,omitempty"`
	AudioOverviewExpiresAt *time.Time `gorm:"column:audio_overview_expires_at" json:"audio_overview_expires_at,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Notebook) TableName() string { return "notebook" }

func (n *Notebook) BeforeCreate(*gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
