package game

import (
	"fmt"
	"strings"

	"stash-backend/domain"
)

type milestone struct {
	threshold   int
	name        string
	description string
}

var (
	receiptMilestones = []milestone{
		{1, domain.AchievementFirstReceipt, "Uploaded your first receipt"},
		{10, domain.AchievementReceiptCollector, "Uploaded 10 receipts"},
		{50, domain.AchievementReceiptMaster, "Uploaded 50 receipts"},
	}

	pointMilestones = []milestone{
		{domain.CenturyClubPoints, domain.AchievementCenturyClub, "Earned 100 points"},
		{domain.PointCollectorPoints, domain.AchievementPointCollector, "Earned 500 points"},
	}

	// Only receipt-count goals are tracked as next achievements.
	nextReceiptGoals = []milestone{
		{10, domain.AchievementReceiptCollector, "Upload 10 receipts"},
		{50, domain.AchievementReceiptMaster, "Upload 50 receipts"},
	}
)

// EvaluateAchievements derives unlocked and next achievements from a receipt count and point balance.
func EvaluateAchievements(receiptCount, points int) domain.AchievementsResponse {
	achievements := make([]domain.Achievement, 0, len(receiptMilestones)+len(pointMilestones))
	for _, m := range receiptMilestones {
		if receiptCount >= m.threshold {
			achievements = append(achievements, domain.Achievement{Name: m.name, Description: m.description, Unlocked: true})
		}
	}
	for _, m := range pointMilestones {
		if points >= m.threshold {
			achievements = append(achievements, domain.Achievement{Name: m.name, Description: m.description, Unlocked: true})
		}
	}

	next := make([]domain.NextAchievement, 0, 1)
	for _, goal := range nextReceiptGoals {
		if receiptCount < goal.threshold {
			next = append(next, domain.NextAchievement{
				Name:        goal.name,
				Description: goal.description,
				Progress:    receiptCount,
				Target:      goal.threshold,
			})
			break
		}
	}

	return domain.AchievementsResponse{
		Achievements:     achievements,
		NextAchievements: next,
		Stats: domain.AchievementStats{
			TotalReceipts:        receiptCount,
			TotalPoints:          points,
			AchievementsUnlocked: len(achievements),
		},
	}
}

func progressMessage(resp domain.AchievementsResponse) string {
	parts := []string{
		"Your Stash Journey:",
		fmt.Sprintf("%d receipts uploaded", resp.Stats.TotalReceipts),
		fmt.Sprintf("%d points earned", resp.Stats.TotalPoints),
		fmt.Sprintf("%d achievements unlocked", resp.Stats.AchievementsUnlocked),
	}
	if len(resp.NextAchievements) > 0 {
		parts = append(parts, "Next Goals:")
		for _, next := range resp.NextAchievements {
			percentage := next.Progress * 100 / next.Target
			parts = append(parts, fmt.Sprintf("  - %s: %d/%d (%d%%)", next.Name, next.Progress, next.Target, percentage))
		}
	}
	return strings.Join(parts, "\n")
}
