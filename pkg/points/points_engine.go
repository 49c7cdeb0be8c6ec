package points

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"stash-backend/domain"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RandomSource is the subset of *rand.Rand the engine draws from.
type RandomSource interface {
	Intn(n int) int
	Float64() float64
}

type (
	PointsEngine interface {
		Calculate(receipt domain.ReceiptData) domain.PointsAward
		Rules() domain.PointsRules
	}

	pointsEngine struct {
		rules domain.PointsRules

		mu  sync.Mutex
		rnd RandomSource
	}
)

// NewRandomSource returns a seeded source. A zero seed uses the current time.
func NewRandomSource(seed int64) RandomSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

func NewPointsEngine(rules domain.PointsRules, rnd RandomSource) PointsEngine {
	if rnd == nil {
		rnd = NewRandomSource(0)
	}
	return &pointsEngine{
		rules: rules,
		rnd:   rnd,
	}
}

func (e *pointsEngine) Rules() domain.PointsRules {
	return e.rules
}

// Calculate scores a receipt. It never fails: invalid rules or a panic while scoring yield the fallback award.
func (e *pointsEngine) Calculate(receipt domain.ReceiptData) (award domain.PointsAward) {
	receipt = receipt.Normalize()

	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("points calculation panicked, using fallback",
				zap.Any("panic", r),
				zap.String("merchant", receipt.Merchant),
			)
			award = e.fallback(receipt)
		}
	}()

	result, err := e.calculate(receipt)
	if err != nil {
		zap.L().Error("points calculation failed, using fallback",
			zap.Error(err),
			zap.String("merchant", receipt.Merchant),
		)
		return e.fallback(receipt)
	}
	return result
}

func (e *pointsEngine) calculate(receipt domain.ReceiptData) (domain.PointsAward, error) {
	if err := e.rules.Validate(); err != nil {
		return domain.PointsAward{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	low, high := e.rules.BaseRange()
	base := low + e.rnd.Intn(high-low+1)

	bonus := 0
	reasons := make([]string, 0, 3)

	if total, ok := ParseTotal(receipt.Total.String()); ok {
		switch {
		case total.GreaterThan(decimal.NewFromFloat(e.rules.LargePurchaseThreshold)):
			bonus += e.rules.LargePurchaseBonus
			reasons = append(reasons, fmt.Sprintf("Large purchase bonus (+%d)", e.rules.LargePurchaseBonus))
		case total.GreaterThan(decimal.NewFromFloat(e.rules.MediumPurchaseThreshold)):
			bonus += e.rules.MediumPurchaseBonus
			reasons = append(reasons, fmt.Sprintf("Medium purchase bonus (+%d)", e.rules.MediumPurchaseBonus))
		}
	}

	if e.isGrocery(receipt.Merchant) {
		bonus += e.rules.GroceryBonusPoints
		reasons = append(reasons, fmt.Sprintf("Grocery shopping bonus (+%d)", e.rules.GroceryBonusPoints))
	}

	if e.rules.StreakBonusEnabled && e.rnd.Float64() < e.rules.StreakBonusChance {
		streak := e.rules.MinStreakBonus + e.rnd.Intn(e.rules.MaxStreakBonus-e.rules.MinStreakBonus+1)
		if bonus > 0 {
			streak = int(float64(bonus) * e.rules.BonusMultiplier)
		}
		bonus += streak
		reasons = append(reasons, fmt.Sprintf("Streak bonus (+%d)", streak))
	}

	return domain.PointsAward{
		BasePoints:   base,
		BonusPoints:  bonus,
		TotalPoints:  base + bonus,
		BonusReasons: reasons,
		CalculationDetails: domain.CalculationDetails{
			ReceiptTotal:      receipt.Total.String(),
			Merchant:          receipt.Merchant,
			MultiplierApplied: e.rules.BonusMultiplier,
		},
	}, nil
}

func (e *pointsEngine) isGrocery(merchant string) bool {
	merchant = strings.ToLower(merchant)
	for _, keyword := range e.rules.GroceryKeywords {
		keyword = strings.ToLower(strings.TrimSpace(keyword))
		if keyword != "" && strings.Contains(merchant, keyword) {
			return true
		}
	}
	return false
}

func (e *pointsEngine) fallback(receipt domain.ReceiptData) domain.PointsAward {
	return domain.PointsAward{
		BasePoints:   e.rules.FallbackPoints,
		BonusPoints:  0,
		TotalPoints:  e.rules.FallbackPoints,
		BonusReasons: []string{},
		CalculationDetails: domain.CalculationDetails{
			ReceiptTotal: receipt.Total.String(),
			Merchant:     receipt.Merchant,
		},
		Fallback: true,
	}
}

// ParseTotal reads a receipt total such as "$1,234.50". The second result is false when it is not a number.
func ParseTotal(raw string) (decimal.Decimal, bool) {
	cleaned := strings.NewReplacer("$", "", ",", "").Replace(strings.TrimSpace(raw))
	if cleaned == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
