package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	MessageSuccessGetBalance      = "balance retrieved successfully"
	MessageSuccessGetTransactions = "transactions retrieved successfully"
	MessageSuccessGetRewards      = "rewards retrieved successfully"
	MessageSuccessRedeemReward    = "reward redeemed successfully"
	MessageSuccessGetRedemptions  = "redemptions retrieved successfully"
	MessageSuccessReconcile       = "balance reconciled successfully"

	MessageFailedGetBalance      = "failed to retrieve balance"
	MessageFailedGetTransactions = "failed to retrieve transactions"
	MessageFailedGetRewards      = "failed to retrieve rewards"
	MessageFailedRedeemReward    = "failed to redeem reward"
	MessageFailedGetRedemptions  = "failed to retrieve redemptions"
	MessageFailedReconcile       = "failed to reconcile balance"
	MessageInsufficientBalance   = "insufficient balance"
	MessageRewardNotFound        = "reward not found"
	MessageRewardUnavailable     = "reward is not available"

	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrRewardNotFound      = errors.New("reward not found")
	ErrRewardUnavailable   = errors.New("reward is not available")
	ErrInvalidPoints       = errors.New("points must be positive")
)

const (
	PointsCurrency    = "points"
	DefaultHistoryLen = 20
	MaxHistoryLen     = 100

	RewardCategoryGiftCards = "gift_cards"
	RewardCategoryBoosts    = "boosts"
	RewardCategoryServices  = "services"
)

// InsufficientBalanceError reports a rejected spend. It matches ErrInsufficientBalance with errors.Is.
type InsufficientBalanceError struct {
	Current  int
	Required int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("Insufficient balance. Current: %d, Required: %d", e.Current, e.Required)
}

func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientBalance
}

func (e *InsufficientBalanceError) Shortfall() int {
	return e.Required - e.Current
}

type (
	Reward struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
		Cost        int    `json:"cost"`
		Category    string `json:"category"`
		Available   bool   `json:"available"`
	}

	RewardsResponse struct {
		Catalog    []Reward `json:"catalog"`
		Categories []string `json:"categories"`
	}

	BalanceResponse struct {
		UserID             string             `json:"user_id"`
		Balance            int                `json:"balance"`
		Currency           string             `json:"currency"`
		RecentTransactions []PointTransaction `json:"recent_transactions"`
		Summary            string             `json:"summary"`
	}

	PointTransaction struct {
		ID           string    `json:"id"`
		Points       int       `json:"points"`
		Reason       string    `json:"reason"`
		Type         string    `json:"type"`
		BalanceAfter int       `json:"balance_after"`
		Timestamp    time.Time `json:"timestamp"`
	}

	TransactionSummary struct {
		TotalTransactions int `json:"total_transactions"`
		TotalEarned       int `json:"total_earned"`
		TotalSpent        int `json:"total_spent"`
		NetPoints         int `json:"net_points"`
	}

	TransactionsResponse struct {
		UserID       string             `json:"user_id"`
		Transactions []PointTransaction `json:"transactions"`
		Summary      TransactionSummary `json:"summary"`
	}

	RedeemRequest struct {
		UserID   string `json:"userId" validate:"required"`
		RewardID string `json:"rewardId" validate:"required"`
	}

	RedeemResponse struct {
		Status            string `json:"status"`
		RedemptionID      string `json:"redemption_id"`
		RewardID          string `json:"reward_id"`
		RewardName        string `json:"reward_name"`
		PointsSpent       int    `json:"points_spent"`
		NewBalance        int    `json:"new_balance"`
		FulfillmentStatus string `json:"fulfillment_status"`
		Confirmation      string `json:"confirmation"`
	}

	Redemption struct {
		ID         string    `json:"id"`
		RewardID   string    `json:"reward_id"`
		RewardName string    `json:"reward_name"`
		PointsCost int       `json:"points_cost"`
		Status     string    `json:"status"`
		Timestamp  time.Time `json:"timestamp"`
	}

	RedemptionsResponse struct {
		UserID      string       `json:"user_id"`
		Redemptions []Redemption `json:"redemptions"`
	}

	ReconcileResponse struct {
		UserID        string `json:"user_id"`
		StoredBalance int    `json:"stored_balance"`
		LedgerBalance int    `json:"ledger_balance"`
		Repaired      bool   `json:"repaired"`
	}
)

// RewardCatalog is the static list of redeemable rewards.
var RewardCatalog = []Reward{
	{
		ID:          "gift_card_10",
		Name:        "$10 Gift Card",
		Description: "Redeem for a $10 gift card to popular retailers",
		Cost:        1000,
		Category:    RewardCategoryGiftCards,
		Available:   true,
	},
	{
		ID:          "gift_card_25",
		Name:        "$25 Gift Card",
		Description: "Redeem for a $25 gift card to popular retailers",
		Cost:        2500,
		Category:    RewardCategoryGiftCards,
		Available:   true,
	},
	{
		ID:          "discount_5",
		Name:        "5% Cashback Boost",
		Description: "Get 5% extra cashback on your next 3 receipts",
		Cost:        500,
		Category:    RewardCategoryBoosts,
		Available:   true,
	},
	{
		ID:          "premium_insights",
		Name:        "Premium Analytics Report",
		Description: "Get detailed spending insights and budgeting advice",
		Cost:        300,
		Category:    RewardCategoryServices,
		Available:   true,
	},
}

var RewardCategories = []string{RewardCategoryGiftCards, RewardCategoryBoosts, RewardCategoryServices}
