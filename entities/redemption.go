package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const RedemptionPendingFulfillment = "pending_fulfillment"

type Redemption struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        string    `gorm:"index;not null" json:"user_id"`
	RewardID      string    `gorm:"not null" json:"reward_id"`
	RewardName    string    `json:"reward_name"`
	PointsCost    int       `json:"points_cost"`
	TransactionID uuid.UUID `gorm:"type:uuid" json:"transaction_id"`
	Status        string    `gorm:"type:varchar(32)" json:"status"`
	CreatedAt     time.Time `gorm:"index" json:"timestamp"`
}

func (r *Redemption) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
