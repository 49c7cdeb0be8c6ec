package utils

import (
	"stash-backend/domain"
)

// LoadPointsRules builds the points engine rules from configuration, falling back to defaults per key.
func LoadPointsRules() domain.PointsRules {
	def := domain.DefaultPointsRules()
	return domain.PointsRules{
		PointsPerReceipt:        GetConfigInt("POINTS_PER_RECEIPT", def.PointsPerReceipt),
		BonusMultiplier:         GetConfigFloat("BONUS_POINTS_MULTIPLIER", def.BonusMultiplier),
		LargePurchaseThreshold:  GetConfigFloat("LARGE_PURCHASE_THRESHOLD", def.LargePurchaseThreshold),
		MediumPurchaseThreshold: GetConfigFloat("MEDIUM_PURCHASE_THRESHOLD", def.MediumPurchaseThreshold),
		LargePurchaseBonus:      GetConfigInt("LARGE_PURCHASE_BONUS", def.LargePurchaseBonus),
		MediumPurchaseBonus:     GetConfigInt("MEDIUM_PURCHASE_BONUS", def.MediumPurchaseBonus),
		GroceryBonusPoints:      GetConfigInt("GROCERY_BONUS_POINTS", def.GroceryBonusPoints),
		GroceryKeywords:         GetConfigList("GROCERY_KEYWORDS", def.GroceryKeywords),
		StreakBonusEnabled:      GetConfigBool("STREAK_BONUS_ENABLED", def.StreakBonusEnabled),
		StreakBonusChance:       GetConfigFloat("STREAK_BONUS_CHANCE", def.StreakBonusChance),
		MinStreakBonus:          GetConfigInt("MIN_STREAK_BONUS", def.MinStreakBonus),
		MaxStreakBonus:          GetConfigInt("MAX_STREAK_BONUS", def.MaxStreakBonus),
		FallbackPoints:          GetConfigInt("FALLBACK_POINTS", def.FallbackPoints),
	}
}
