package entities

// User is the points account of an externally identified user.
// PointsBalance is a projection of the point_transactions log for the same user.
type User struct {
	UserID        string `gorm:"primaryKey;column:user_id;type:varchar(255)" json:"user_id"`
	PointsBalance int    `gorm:"not null;default:0" json:"points_balance"`

	Timestamp
}
