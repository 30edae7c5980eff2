package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ChatMessage is one entry of a notebook's chat history. SessionID is
// defined as 1:1 with the notebook id; ownership checks resolve the
// session through the notebook's owner. If that mapping ever diverges a
// dedicated session table has to replace this column.
type ChatMessage struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID uuid.UUID      `gorm:"type:uuid;not null;index;column:session_id" json:"session_id"`
	Message   datatypes.JSON `gorm:"column:message;type:jsonb;not null" json:"message"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
}

func (ChatMessage) TableName() string { return "chat_message" }

func (m *ChatMessage) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
