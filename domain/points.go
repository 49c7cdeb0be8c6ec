package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidPointsRules = errors.New("invalid points rules")
)

// PointsRules holds the tunable constants of the points engine.
type PointsRules struct {
	PointsPerReceipt        int
	BonusMultiplier         float64
	LargePurchaseThreshold  float64
	MediumPurchaseThreshold float64
	LargePurchaseBonus      int
	MediumPurchaseBonus     int
	GroceryBonusPoints      int
	GroceryKeywords         []string
	StreakBonusEnabled      bool
	StreakBonusChance       float64
	MinStreakBonus          int
	MaxStreakBonus          int
	FallbackPoints          int
}

func DefaultPointsRules() PointsRules {
	return PointsRules{
		PointsPerReceipt:        10,
		BonusMultiplier:         1.5,
		LargePurchaseThreshold:  100,
		MediumPurchaseThreshold: 50,
		LargePurchaseBonus:      10,
		MediumPurchaseBonus:     5,
		GroceryBonusPoints:      3,
		GroceryKeywords:         []string{"grocery", "market", "food"},
		StreakBonusEnabled:      true,
		StreakBonusChance:       0.3,
		MinStreakBonus:          2,
		MaxStreakBonus:          8,
		FallbackPoints:          5,
	}
}

// BaseRange returns the inclusive range base points are drawn from.
func (r PointsRules) BaseRange() (int, int) {
	low := r.PointsPerReceipt - 5
	if low < 1 {
		low = 1
	}
	return low, r.PointsPerReceipt + 10
}

func (r PointsRules) Validate() error {
	if r.PointsPerReceipt < 1 {
		return fmt.Errorf("%w: points per receipt must be positive", ErrInvalidPointsRules)
	}
	if r.StreakBonusChance < 0 || r.StreakBonusChance > 1 {
		return fmt.Errorf("%w: streak chance %v outside [0,1]", ErrInvalidPointsRules, r.StreakBonusChance)
	}
	if r.StreakBonusEnabled && r.MinStreakBonus > r.MaxStreakBonus {
		return fmt.Errorf("%w: streak range %d..%d", ErrInvalidPointsRules, r.MinStreakBonus, r.MaxStreakBonus)
	}
	if r.FallbackPoints < 0 {
		return fmt.Errorf("%w: fallback points must not be negative", ErrInvalidPointsRules)
	}
	return nil
}

type (
	CalculationDetails struct {
		ReceiptTotal      string  `json:"receipt_total"`
		Merchant          string  `json:"merchant"`
		MultiplierApplied float64 `json:"multiplier_applied"`
	}

	// PointsAward is the outcome of scoring one receipt. TotalPoints is always BasePoints + BonusPoints.
	PointsAward struct {
		BasePoints         int                `json:"base_points"`
		BonusPoints        int                `json:"bonus_points"`
		TotalPoints        int                `json:"total_points"`
		BonusReasons       []string           `json:"bonus_reasons"`
		CalculationDetails CalculationDetails `json:"calculation_details"`
		Fallback           bool               `json:"fallback,omitempty"`
	}
)
