package domain

import (
	"errors"
)

var (
	MessageSuccessAwardPoints     = "points awarded successfully"
	MessageSuccessGetAchievements = "achievements retrieved successfully"

	MessageFailedAwardPoints     = "failed to award points"
	MessageFailedGetAchievements = "failed to retrieve achievements"

	ErrAwardFailed = errors.New("points award failed")
)

const (
	AchievementFirstReceipt     = "First Receipt"
	AchievementReceiptCollector = "Receipt Collector"
	AchievementReceiptMaster    = "Receipt Master"
	AchievementCenturyClub      = "Century Club"
	AchievementPointCollector   = "Point Collector"

	CenturyClubPoints    = 100
	PointCollectorPoints = 500
)

type (
	Achievement struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Unlocked    bool   `json:"unlocked"`
	}

	NextAchievement struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Progress    int    `json:"progress"`
		Target      int    `json:"target"`
	}

	AchievementStats struct {
		TotalReceipts        int `json:"total_receipts"`
		TotalPoints          int `json:"total_points"`
		AchievementsUnlocked int `json:"achievements_unlocked"`
	}

	AchievementsResponse struct {
		UserID           string            `json:"user_id"`
		Achievements     []Achievement     `json:"achievements"`
		NextAchievements []NextAchievement `json:"next_achievements"`
		Stats            AchievementStats  `json:"stats"`
		Encouragement    string            `json:"encouragement,omitempty"`
	}

	AwardPointsRequest struct {
		UserID      string       `json:"userId" validate:"required"`
		ReceiptData *ReceiptData `json:"receiptData"`
	}

	AwardPointsResponse struct {
		Status       string        `json:"status"`
		Points       int           `json:"points"`
		NewBalance   int           `json:"new_balance"`
		Breakdown    PointsAward   `json:"breakdown"`
		Achievements []Achievement `json:"achievements"`
		Message      string        `json:"message"`
	}
)
