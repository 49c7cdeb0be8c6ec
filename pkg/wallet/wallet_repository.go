package wallet

import (
	"context"
	"errors"
	"time"

	"stash-backend/entities"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type (
	WalletRepository interface {
		// Transaction runs fn against a repository bound to a single database transaction.
		Transaction(ctx context.Context, fn func(repo WalletRepository) error) error

		// Accounts
		EnsureUser(ctx context.Context, userID string) error
		GetUser(ctx context.Context, userID string) (*entities.User, error)
		IncrementBalance(ctx context.Context, userID string, points int) (int, error)
		DecrementBalanceIfSufficient(ctx context.Context, userID string, points int) (int, bool, error)
		SetBalance(ctx context.Context, userID string, balance int) error

		// Ledger
		CreatePointTransaction(ctx context.Context, tx *entities.PointTransaction) error
		GetPointTransactions(ctx context.Context, userID string, limit int) ([]*entities.PointTransaction, error)
		SumPointTransactions(ctx context.Context, userID string) (int, error)

		// Redemptions
		CreateRedemption(ctx context.Context, redemption *entities.Redemption) error
		GetRedemptions(ctx context.Context, userID string, limit int) ([]*entities.Redemption, error)
	}

	walletRepository struct {
		db *gorm.DB
	}
)

func NewWalletRepository(db *gorm.DB) WalletRepository {
	return &walletRepository{
		db: db,
	}
}

func (r *walletRepository) Transaction(ctx context.Context, fn func(repo WalletRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&walletRepository{db: tx})
	})
}

func (r *walletRepository) EnsureUser(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entities.User{UserID: userID}).Error
}

func (r *walletRepository) GetUser(ctx context.Context, userID string) (*entities.User, error) {
	var user entities.User
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Take(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// IncrementBalance adds points in a single UPDATE and returns the resulting balance.
func (r *walletRepository) IncrementBalance(ctx context.Context, userID string, points int) (int, error) {
	res := r.db.WithContext(ctx).
		Model(&entities.User{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"points_balance": gorm.Expr("points_balance + ?", points),
			"updated_at":     time.Now(),
		})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return r.balance(ctx, userID)
}

// DecrementBalanceIfSufficient subtracts points only when the stored balance covers them.
// When it does not, the current balance is returned with ok=false and nothing is written.
func (r *walletRepository) DecrementBalanceIfSufficient(ctx context.Context, userID string, points int) (int, bool, error) {
	res := r.db.WithContext(ctx).
		Model(&entities.User{}).
		Where("user_id = ? AND points_balance >= ?", userID, points).
		Updates(map[string]interface{}{
			"points_balance": gorm.Expr("points_balance - ?", points),
			"updated_at":     time.Now(),
		})
	if res.Error != nil {
		return 0, false, res.Error
	}

	balance, err := r.balance(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return balance, res.RowsAffected > 0, nil
}

func (r *walletRepository) SetBalance(ctx context.Context, userID string, balance int) error {
	return r.db.WithContext(ctx).
		Model(&entities.User{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"points_balance": balance,
			"updated_at":     time.Now(),
		}).Error
}

func (r *walletRepository) balance(ctx context.Context, userID string) (int, error) {
	var user entities.User
	if err := r.db.WithContext(ctx).
		Select("points_balance").
		Where("user_id = ?", userID).
		Take(&user).Error; err != nil {
		return 0, err
	}
	return user.PointsBalance, nil
}

func (r *walletRepository) CreatePointTransaction(ctx context.Context, tx *entities.PointTransaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

func (r *walletRepository) GetPointTransactions(ctx context.Context, userID string, limit int) ([]*entities.PointTransaction, error) {
	var transactions []*entities.PointTransaction
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&transactions).Error; err != nil {
		return nil, err
	}
	return transactions, nil
}

func (r *walletRepository) SumPointTransactions(ctx context.Context, userID string) (int, error) {
	var total int
	if err := r.db.WithContext(ctx).
		Model(&entities.PointTransaction{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(points), 0) as total").
		Row().Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *walletRepository) CreateRedemption(ctx context.Context, redemption *entities.Redemption) error {
	return r.db.WithContext(ctx).Create(redemption).Error
}

func (r *walletRepository) GetRedemptions(ctx context.Context, userID string, limit int) ([]*entities.Redemption, error) {
	var redemptions []*entities.Redemption
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&redemptions).Error; err != nil {
		return nil, err
	}
	return redemptions, nil
}
