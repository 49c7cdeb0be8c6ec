package game

import (
	"context"
	"fmt"
	"strings"

	"stash-backend/domain"
	"stash-backend/pkg/points"

	"go.uber.org/zap"
)

type (
	// Ledger is the part of the wallet the game awards through.
	Ledger interface {
		Award(ctx context.Context, userID string, points int, reason string) (int, error)
		GetBalance(ctx context.Context, userID string) (int, error)
	}

	ReceiptCounter interface {
		CountReceipts(ctx context.Context, userID string) (int, error)
	}

	GameService interface {
		AwardReceiptPoints(ctx context.Context, userID string, receipt domain.ReceiptData) (domain.AwardPointsResponse, error)
		GetAchievements(ctx context.Context, userID string) (domain.AchievementsResponse, error)
	}

	gameService struct {
		engine   points.PointsEngine
		ledger   Ledger
		receipts ReceiptCounter
	}
)

func NewGameService(engine points.PointsEngine, ledger Ledger, receipts ReceiptCounter) GameService {
	return &gameService{
		engine:   engine,
		ledger:   ledger,
		receipts: receipts,
	}
}

// AwardReceiptPoints scores the receipt, credits the points and reports achievements.
// An achievements failure does not undo the award.
func (s *gameService) AwardReceiptPoints(ctx context.Context, userID string, receipt domain.ReceiptData) (domain.AwardPointsResponse, error) {
	if userID == "" {
		return domain.AwardPointsResponse{}, domain.ErrUserIDRequired
	}
	receipt = receipt.Normalize()

	award := s.engine.Calculate(receipt)

	newBalance, err := s.ledger.Award(ctx, userID, award.TotalPoints, fmt.Sprintf("Receipt upload from %s", receipt.Merchant))
	if err != nil {
		return domain.AwardPointsResponse{}, fmt.Errorf("%w: %v", domain.ErrAwardFailed, err)
	}

	achievements, err := s.GetAchievements(ctx, userID)
	achievementsOK := err == nil
	if err != nil {
		zap.L().Warn("achievement evaluation failed after award",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		achievements = domain.AchievementsResponse{Achievements: []domain.Achievement{}}
	}

	return domain.AwardPointsResponse{
		Status:       domain.StatusSuccess,
		Points:       award.TotalPoints,
		NewBalance:   newBalance,
		Breakdown:    award,
		Achievements: achievements.Achievements,
		Message:      awardMessage(award, newBalance, len(achievements.Achievements), achievementsOK),
	}, nil
}

func (s *gameService) GetAchievements(ctx context.Context, userID string) (domain.AchievementsResponse, error) {
	if userID == "" {
		return domain.AchievementsResponse{}, domain.ErrUserIDRequired
	}

	count, err := s.receipts.CountReceipts(ctx, userID)
	if err != nil {
		return domain.AchievementsResponse{}, fmt.Errorf("count receipts: %w", err)
	}
	balance, err := s.ledger.GetBalance(ctx, userID)
	if err != nil {
		return domain.AchievementsResponse{}, fmt.Errorf("get balance: %w", err)
	}

	resp := EvaluateAchievements(count, balance)
	resp.UserID = userID
	resp.Encouragement = progressMessage(resp)
	return resp, nil
}

func awardMessage(award domain.PointsAward, newBalance, unlocked int, achievementsOK bool) string {
	parts := []string{fmt.Sprintf("Great job! You earned %d base points", award.BasePoints)}

	if award.BonusPoints > 0 {
		parts = append(parts, fmt.Sprintf("Plus %d bonus points!", award.BonusPoints))
		for _, reason := range award.BonusReasons {
			parts = append(parts, "  - "+reason)
		}
	}

	parts = append(parts, fmt.Sprintf("Your total balance is now %d points!", newBalance))

	if achievementsOK && unlocked > 0 {
		parts = append(parts, fmt.Sprintf("You've unlocked %d achievements!", unlocked))
	}

	switch {
	case newBalance < domain.CenturyClubPoints:
		parts = append(parts, fmt.Sprintf("Keep it up! Only %d points until you reach the Century Club!", domain.CenturyClubPoints-newBalance))
	case newBalance < domain.PointCollectorPoints:
		parts = append(parts, fmt.Sprintf("Awesome progress! %d more points to become a Point Collector!", domain.PointCollectorPoints-newBalance))
	}

	return strings.Join(parts, "\n")
}
