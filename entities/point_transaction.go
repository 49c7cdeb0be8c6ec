package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PointTransactionEarned = "earned"
	PointTransactionSpent  = "spent"
)

// PointTransaction is an append-only ledger entry. Points is negative for spends.
type PointTransaction struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       string    `gorm:"index;not null" json:"user_id"`
	Points       int       `gorm:"not null" json:"points"`
	Reason       string    `json:"reason"`
	Type         string    `gorm:"type:varchar(16);not null" json:"type"` // earned, spent
	BalanceAfter int       `json:"balance_after"`
	CreatedAt    time.Time `gorm:"index" json:"timestamp"`
}

func (t *PointTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
