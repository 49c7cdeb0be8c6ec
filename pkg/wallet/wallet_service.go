package wallet

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"stash-backend/domain"
	"stash-backend/entities"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type (
	WalletService interface {
		Award(ctx context.Context, userID string, points int, reason string) (int, error)
		Spend(ctx context.Context, userID string, points int, reason string) (int, error)
		GetBalance(ctx context.Context, userID string) (int, error)
		GetBalanceSummary(ctx context.Context, userID string) (domain.BalanceResponse, error)
		GetHistory(ctx context.Context, userID string, limit int) (domain.TransactionsResponse, error)
		Reconcile(ctx context.Context, userID string) (domain.ReconcileResponse, error)

		GetRewards(ctx context.Context) domain.RewardsResponse
		Redeem(ctx context.Context, req domain.RedeemRequest) (domain.RedeemResponse, error)
		GetRedemptions(ctx context.Context, userID string, limit int) (domain.RedemptionsResponse, error)
	}

	walletService struct {
		walletRepository WalletRepository
		notifier         RedemptionNotifier
		catalog          []domain.Reward
		now              func() time.Time
	}
)

func NewWalletService(walletRepository WalletRepository, notifier RedemptionNotifier) WalletService {
	if notifier == nil {
		notifier = NewNopNotifier()
	}
	return &walletService{
		walletRepository: walletRepository,
		notifier:         notifier,
		catalog:          domain.RewardCatalog,
		now:              time.Now,
	}
}

// Award credits points and appends an earned transaction in one database transaction.
// The account is created on first award.
func (s *walletService) Award(ctx context.Context, userID string, points int, reason string) (int, error) {
	if userID == "" {
		return 0, domain.ErrUserIDRequired
	}
	if points < 0 {
		return 0, domain.ErrInvalidPoints
	}
	if points == 0 {
		return s.GetBalance(ctx, userID)
	}

	var newBalance int
	err := s.walletRepository.Transaction(ctx, func(repo WalletRepository) error {
		if err := repo.EnsureUser(ctx, userID); err != nil {
			return err
		}

		balance, err := repo.IncrementBalance(ctx, userID, points)
		if err != nil {
			return err
		}

		if err := repo.CreatePointTransaction(ctx, &entities.PointTransaction{
			UserID:       userID,
			Points:       points,
			Reason:       reason,
			Type:         entities.PointTransactionEarned,
			BalanceAfter: balance,
			CreatedAt:    s.now(),
		}); err != nil {
			return err
		}

		newBalance = balance
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("award points: %w", err)
	}

	zap.L().Info("points awarded",
		zap.String("user_id", userID),
		zap.Int("points", points),
		zap.Int("new_balance", newBalance),
	)
	return newBalance, nil
}

// Spend debits points, failing with *domain.InsufficientBalanceError without writing anything
// when the balance does not cover them.
func (s *walletService) Spend(ctx context.Context, userID string, points int, reason string) (int, error) {
	if userID == "" {
		return 0, domain.ErrUserIDRequired
	}
	if points <= 0 {
		return 0, domain.ErrInvalidPoints
	}

	var newBalance int
	err := s.walletRepository.Transaction(ctx, func(repo WalletRepository) error {
		balance, _, err := s.spend(ctx, repo, userID, points, reason)
		newBalance = balance
		return err
	})
	if err != nil {
		return 0, err
	}
	return newBalance, nil
}

func (s *walletService) spend(ctx context.Context, repo WalletRepository, userID string, points int, reason string) (int, uuid.UUID, error) {
	balance, ok, err := repo.DecrementBalanceIfSufficient(ctx, userID, points)
	if err != nil {
		return 0, uuid.Nil, fmt.Errorf("spend points: %w", err)
	}
	if !ok {
		return 0, uuid.Nil, &domain.InsufficientBalanceError{Current: balance, Required: points}
	}

	tx := &entities.PointTransaction{
		ID:           uuid.New(),
		UserID:       userID,
		Points:       -points,
		Reason:       reason,
		Type:         entities.PointTransactionSpent,
		BalanceAfter: balance,
		CreatedAt:    s.now(),
	}
	if err := repo.CreatePointTransaction(ctx, tx); err != nil {
		return 0, uuid.Nil, fmt.Errorf("spend points: %w", err)
	}
	return balance, tx.ID, nil
}

// GetBalance returns the stored balance, materializing an empty account for unknown users.
func (s *walletService) GetBalance(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, domain.ErrUserIDRequired
	}
	if err := s.walletRepository.EnsureUser(ctx, userID); err != nil {
		return 0, err
	}
	user, err := s.walletRepository.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return user.PointsBalance, nil
}

func (s *walletService) GetBalanceSummary(ctx context.Context, userID string) (domain.BalanceResponse, error) {
	balance, err := s.GetBalance(ctx, userID)
	if err != nil {
		return domain.BalanceResponse{}, err
	}

	recent, err := s.walletRepository.GetPointTransactions(ctx, userID, 5)
	if err != nil {
		return domain.BalanceResponse{}, err
	}
	transactions := toTransactions(recent)

	return domain.BalanceResponse{
		UserID:             userID,
		Balance:            balance,
		Currency:           domain.PointsCurrency,
		RecentTransactions: transactions,
		Summary:            balanceSummary(balance, transactions),
	}, nil
}

func (s *walletService) GetHistory(ctx context.Context, userID string, limit int) (domain.TransactionsResponse, error) {
	if userID == "" {
		return domain.TransactionsResponse{}, domain.ErrUserIDRequired
	}
	if limit < 1 {
		limit = domain.DefaultHistoryLen
	}
	if limit > domain.MaxHistoryLen {
		limit = domain.MaxHistoryLen
	}

	rows, err := s.walletRepository.GetPointTransactions(ctx, userID, limit)
	if err != nil {
		return domain.TransactionsResponse{}, err
	}
	transactions := toTransactions(rows)

	summary := domain.TransactionSummary{TotalTransactions: len(transactions)}
	for _, t := range transactions {
		switch t.Type {
		case entities.PointTransactionEarned:
			summary.TotalEarned += t.Points
		case entities.PointTransactionSpent:
			summary.TotalSpent += -t.Points
		}
	}
	summary.NetPoints = summary.TotalEarned - summary.TotalSpent

	return domain.TransactionsResponse{
		UserID:       userID,
		Transactions: transactions,
		Summary:      summary,
	}, nil
}

// Reconcile rewrites the stored balance from the transaction log when the two disagree.
func (s *walletService) Reconcile(ctx context.Context, userID string) (domain.ReconcileResponse, error) {
	if userID == "" {
		return domain.ReconcileResponse{}, domain.ErrUserIDRequired
	}

	resp := domain.ReconcileResponse{UserID: userID}
	err := s.walletRepository.Transaction(ctx, func(repo WalletRepository) error {
		if err := repo.EnsureUser(ctx, userID); err != nil {
			return err
		}
		user, err := repo.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		sum, err := repo.SumPointTransactions(ctx, userID)
		if err != nil {
			return err
		}

		resp.StoredBalance = user.PointsBalance
		resp.LedgerBalance = sum
		if sum == user.PointsBalance {
			return nil
		}

		resp.Repaired = true
		return repo.SetBalance(ctx, userID, sum)
	})
	if err != nil {
		return domain.ReconcileResponse{}, fmt.Errorf("reconcile balance: %w", err)
	}

	if resp.Repaired {
		zap.L().Warn("balance drift repaired",
			zap.String("user_id", userID),
			zap.Int("stored_balance", resp.StoredBalance),
			zap.Int("ledger_balance", resp.LedgerBalance),
		)
	}
	return resp, nil
}

func toTransactions(rows []*entities.PointTransaction) []domain.PointTransaction {
	result := make([]domain.PointTransaction, 0, len(rows))
	for _, tx := range rows {
		result = append(result, domain.PointTransaction{
			ID:           tx.ID.String(),
			Points:       tx.Points,
			Reason:       tx.Reason,
			Type:         tx.Type,
			BalanceAfter: tx.BalanceAfter,
			Timestamp:    tx.CreatedAt,
		})
	}
	return result
}

func balanceSummary(balance int, recent []domain.PointTransaction) string {
	parts := []string{fmt.Sprintf("Your current balance: %d points", balance)}

	switch {
	case balance == 0:
		parts = append(parts, "Start uploading receipts to earn your first points!")
	case balance < domain.CenturyClubPoints:
		remaining := domain.CenturyClubPoints - balance
		parts = append(parts, fmt.Sprintf("Upload %d more receipts to reach 100 points!", remaining/10+1))
	case balance >= 1000:
		parts = append(parts, "You have enough points for gift card redemptions!")
	}

	if len(recent) > 0 {
		last := recent[0]
		points := last.Points
		if points < 0 {
			points = -points
		}
		switch last.Type {
		case entities.PointTransactionEarned:
			parts = append(parts, fmt.Sprintf("Last earned: +%d points", points))
		case entities.PointTransactionSpent:
			parts = append(parts, fmt.Sprintf("Last spent: -%d points", points))
		}
	}

	return strings.Join(parts, "\n")
}
