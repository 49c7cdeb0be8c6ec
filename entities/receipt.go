package entities

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReceiptItem struct {
	Name  string `json:"name"`
	Price string `json:"price"`
}

type Receipt struct {
	ID        uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    string        `gorm:"index;not null" json:"user_id"`
	Merchant  string        `json:"merchant"`
	Items     []ReceiptItem `gorm:"serializer:json;type:text" json:"items"`
	Total     string        `json:"total"`
	ImageURL  string        `json:"image_url"`
	RawText   string        `gorm:"type:text" json:"raw_text,omitempty"`
	Processed bool          `json:"processed"`

	Timestamp
}

func (r *Receipt) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
