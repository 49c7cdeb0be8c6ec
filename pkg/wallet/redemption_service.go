package wallet

import (
	"context"
	"fmt"

	"stash-backend/domain"
	"stash-backend/entities"

	"go.uber.org/zap"
)

func (s *walletService) GetRewards(ctx context.Context) domain.RewardsResponse {
	catalog := make([]domain.Reward, len(s.catalog))
	copy(catalog, s.catalog)
	return domain.RewardsResponse{
		Catalog:    catalog,
		Categories: domain.RewardCategories,
	}
}

func (s *walletService) findReward(rewardID string) (domain.Reward, error) {
	for _, reward := range s.catalog {
		if reward.ID == rewardID {
			if !reward.Available {
				return domain.Reward{}, domain.ErrRewardUnavailable
			}
			return reward, nil
		}
	}
	return domain.Reward{}, domain.ErrRewardNotFound
}

// Redeem debits the reward cost and records a pending redemption in the same database transaction.
func (s *walletService) Redeem(ctx context.Context, req domain.RedeemRequest) (domain.RedeemResponse, error) {
	if req.UserID == "" {
		return domain.RedeemResponse{}, domain.ErrUserIDRequired
	}

	reward, err := s.findReward(req.RewardID)
	if err != nil {
		return domain.RedeemResponse{}, err
	}

	var (
		newBalance int
		redemption *entities.Redemption
	)
	err = s.walletRepository.Transaction(ctx, func(repo WalletRepository) error {
		balance, txID, err := s.spend(ctx, repo, req.UserID, reward.Cost, "Redeemed: "+reward.Name)
		if err != nil {
			return err
		}

		redemption = &entities.Redemption{
			UserID:        req.UserID,
			RewardID:      reward.ID,
			RewardName:    reward.Name,
			PointsCost:    reward.Cost,
			TransactionID: txID,
			Status:        entities.RedemptionPendingFulfillment,
			CreatedAt:     s.now(),
		}
		if err := repo.CreateRedemption(ctx, redemption); err != nil {
			return err
		}

		newBalance = balance
		return nil
	})
	if err != nil {
		return domain.RedeemResponse{}, err
	}

	resp := domain.RedeemResponse{
		Status:            domain.StatusSuccess,
		RedemptionID:      redemption.ID.String(),
		RewardID:          reward.ID,
		RewardName:        reward.Name,
		PointsSpent:       reward.Cost,
		NewBalance:        newBalance,
		FulfillmentStatus: "pending",
		Confirmation: fmt.Sprintf("Successfully redeemed %s!\nPoints spent: %d\nNew balance: %d points\nFulfillment status: pending",
			reward.Name, reward.Cost, newBalance),
	}

	zap.L().Info("reward redeemed",
		zap.String("user_id", req.UserID),
		zap.String("reward_id", reward.ID),
		zap.Int("new_balance", newBalance),
	)

	s.notifier.NotifyRedemption(req.UserID, resp)
	return resp, nil
}

func (s *walletService) GetRedemptions(ctx context.Context, userID string, limit int) (domain.RedemptionsResponse, error) {
	if userID == "" {
		return domain.RedemptionsResponse{}, domain.ErrUserIDRequired
	}
	if limit < 1 || limit > domain.MaxHistoryLen {
		limit = domain.DefaultHistoryLen
	}

	rows, err := s.walletRepository.GetRedemptions(ctx, userID, limit)
	if err != nil {
		return domain.RedemptionsResponse{}, err
	}

	redemptions := make([]domain.Redemption, 0, len(rows))
	for _, r := range rows {
		redemptions = append(redemptions, domain.Redemption{
			ID:         r.ID.String(),
			RewardID:   r.RewardID,
			RewardName: r.RewardName,
			PointsCost: r.PointsCost,
			Status:     r.Status,
			Timestamp:  r.CreatedAt,
		})
	}

	return domain.RedemptionsResponse{
		UserID:      userID,
		Redemptions: redemptions,
	}, nil
}
