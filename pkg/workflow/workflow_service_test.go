package workflow

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"stash-backend/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type fakeReceipts struct {
	processFn func(ctx context.Context, req domain.ProcessReceiptRequest) (domain.ProcessReceiptResponse, error)
}

func (f *fakeReceipts) ProcessReceipt(ctx context.Context, req domain.ProcessReceiptRequest) (domain.ProcessReceiptResponse, error) {
	return f.processFn(ctx, req)
}

type fakeGame struct {
	awardFn        func(ctx context.Context, userID string, receipt domain.ReceiptData) (domain.AwardPointsResponse, error)
	achievementsFn func(ctx context.Context, userID string) (domain.AchievementsResponse, error)
}

func (f *fakeGame) AwardReceiptPoints(ctx context.Context, userID string, receipt domain.ReceiptData) (domain.AwardPointsResponse, error) {
	return f.awardFn(ctx, userID, receipt)
}

func (f *fakeGame) GetAchievements(ctx context.Context, userID string) (domain.AchievementsResponse, error) {
	return f.achievementsFn(ctx, userID)
}

type fakeWallet struct {
	balanceFn func(ctx context.Context, userID string) (int, error)
}

func (f *fakeWallet) GetBalance(ctx context.Context, userID string) (int, error) {
	return f.balanceFn(ctx, userID)
}

type fakeAnalytics struct {
	summaryFn func(ctx context.Context, userID string) (domain.SpendingSummary, error)
}

func (f *fakeAnalytics) GetSpendingSummary(ctx context.Context, userID string) (domain.SpendingSummary, error) {
	return f.summaryFn(ctx, userID)
}

var processed = domain.ProcessReceiptResponse{
	Status:    domain.WorkflowStatusProcessed,
	ReceiptID: "receipt-1",
	Data: domain.ReceiptData{
		Merchant: "City Grocery",
		Items:    []domain.ReceiptItem{{Name: "Milk", Price: "3.50"}, {Name: "Bread", Price: "2.25"}},
		Total:    "$120.00",
	},
}

func newFakes() (*fakeReceipts, *fakeGame, *fakeWallet, *fakeAnalytics) {
	receipts := &fakeReceipts{processFn: func(ctx context.Context, req domain.ProcessReceiptRequest) (domain.ProcessReceiptResponse, error) {
		return processed, nil
	}}
	game := &fakeGame{
		awardFn: func(ctx context.Context, userID string, receipt domain.ReceiptData) (domain.AwardPointsResponse, error) {
			return domain.AwardPointsResponse{Status: domain.StatusSuccess, Points: 25, NewBalance: 25, Message: "Great job!"}, nil
		},
		achievementsFn: func(ctx context.Context, userID string) (domain.AchievementsResponse, error) {
			return domain.AchievementsResponse{
				Achievements: []domain.Achievement{{Name: domain.AchievementFirstReceipt, Unlocked: true}},
				Stats:        domain.AchievementStats{TotalReceipts: 1, TotalPoints: 25, AchievementsUnlocked: 1},
			}, nil
		},
	}
	wallet := &fakeWallet{balanceFn: func(ctx context.Context, userID string) (int, error) {
		return 25, nil
	}}
	analytics := &fakeAnalytics{summaryFn: func(ctx context.Context, userID string) (domain.SpendingSummary, error) {
		return domain.SpendingSummary{TotalReceipts: 1, TotalSpending: 120, AverageTransaction: 120}, nil
	}}
	return receipts, game, wallet, analytics
}

func TestRunReceiptWorkflow(t *testing.T) {
	receipts, game, wallet, analytics := newFakes()
	var awardedFor domain.ReceiptData
	game.awardFn = func(ctx context.Context, userID string, receipt domain.ReceiptData) (domain.AwardPointsResponse, error) {
		awardedFor = receipt
		return domain.AwardPointsResponse{Status: domain.StatusSuccess, Points: 25, NewBalance: 25, Message: "Great job!"}, nil
	}
	svc := NewWorkflowService(receipts, game, wallet, analytics, Config{Features: AllFeatures()})

	result, err := svc.RunReceiptWorkflow(context.Background(), domain.ProcessReceiptRequest{ImageURL: "https://img/1.png", UserID: "user-1"})
	require.NoError(t, err)

	assert.Equal(t, processed.Data, awardedFor)
	assert.Equal(t, domain.WorkflowStatusProcessed, result.Status)
	assert.True(t, result.WorkflowComplete)
	assert.Equal(t, "receipt-1", result.ReceiptID)
	assert.Equal(t, 25, result.PointsAwarded)
	assert.Equal(t, 25, result.NewBalance)
	assert.Empty(t, result.FailedStep)
	assert.Equal(t, strings.Join([]string{
		"Receipt Successfully Processed!",
		"Merchant: City Grocery",
		"Total: $120.00",
		"Items processed: 2",
		"Points earned: 25",
		"New balance: 25 points",
		"Great job!",
	}, "\n"), result.Summary)
}

func TestRunReceiptWorkflow_IngestionFailureAborts(t *testing.T) {
	receipts, game, wallet, analytics := newFakes()
	receipts.processFn = func(ctx context.Context, req domain.ProcessReceiptRequest) (domain.ProcessReceiptResponse, error) {
		return domain.ProcessReceiptResponse{}, domain.ErrNoTextExtracted
	}
	game.awardFn = func(ctx context.Context, userID string, receipt domain.ReceiptData) (domain.AwardPointsResponse, error) {
		t.Fatal("points must not be awarded when ingestion fails")
		return domain.AwardPointsResponse{}, nil
	}
	svc := NewWorkflowService(receipts, game, wallet, analytics, Config{})

	result, err := svc.RunReceiptWorkflow(context.Background(), domain.ProcessReceiptRequest{ImageURL: "x", UserID: "user-1"})

	var stepErr *domain.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, domain.StepReceiptProcessing, stepErr.Step)
	assert.ErrorIs(t, err, domain.ErrNoTextExtracted)
	assert.Equal(t, domain.WorkflowStatusFailed, result.Status)
	assert.Equal(t, domain.StepReceiptProcessing, result.FailedStep)
	assert.False(t, result.WorkflowComplete)
}

func TestRunReceiptWorkflow_AwardFailureIsSurfaced(t *testing.T) {
	receipts, game, wallet, analytics := newFakes()
	game.awardFn = func(ctx context.Context, userID string, receipt domain.ReceiptData) (domain.AwardPointsResponse, error) {
		return domain.AwardPointsResponse{}, domain.ErrAwardFailed
	}
	wallet.balanceFn = func(ctx context.Context, userID string) (int, error) {
		return 40, nil
	}
	svc := NewWorkflowService(receipts, game, wallet, analytics, Config{})

	result, err := svc.RunReceiptWorkflow(context.Background(), domain.ProcessReceiptRequest{ImageURL: "x", UserID: "user-1"})
	require.NoError(t, err)

	assert.Equal(t, domain.WorkflowStatusProcessed, result.Status)
	assert.Equal(t, "receipt-1", result.ReceiptID)
	assert.False(t, result.WorkflowComplete)
	assert.Equal(t, domain.StepPointsAward, result.FailedStep)
	assert.Equal(t, domain.ErrAwardFailed.Error(), result.PointsError)
	assert.Equal(t, 0, result.PointsAwarded)
	assert.Equal(t, 40, result.NewBalance)
	assert.NotContains(t, result.Summary, "Points earned")
}

func TestRunReceiptWorkflow_BalanceCheckFailure(t *testing.T) {
	receipts, game, wallet, analytics := newFakes()
	wallet.balanceFn = func(ctx context.Context, userID string) (int, error) {
		return 0, errors.New("db unavailable")
	}
	svc := NewWorkflowService(receipts, game, wallet, analytics, Config{})

	result, err := svc.RunReceiptWorkflow(context.Background(), domain.ProcessReceiptRequest{ImageURL: "x", UserID: "user-1"})
	require.NoError(t, err)

	assert.False(t, result.WorkflowComplete)
	assert.Equal(t, domain.StepBalanceCheck, result.FailedStep)
	assert.Equal(t, 25, result.NewBalance)
	assert.Equal(t, "db unavailable", result.Error)
}

func TestGetDashboard(t *testing.T) {
	receipts, game, wallet, analytics := newFakes()
	svc := NewWorkflowService(receipts, game, wallet, analytics, Config{Features: AllFeatures()})

	resp, err := svc.GetDashboard(context.Background(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, "user-1", resp.UserID)
	assert.Equal(t, domain.WalletView{Balance: 25, Status: domain.StatusSuccess}, resp.Wallet)
	require.NotNil(t, resp.Analytics.Summary)
	assert.Equal(t, 120.0, resp.Analytics.Summary.TotalSpending)
	assert.Equal(t, domain.StatusSuccess, resp.Analytics.Status)
	assert.Equal(t, domain.StatusSuccess, resp.Gamification.Status)
	assert.Len(t, resp.Gamification.Achievements, 1)
	assert.Equal(t, 1, resp.Gamification.Stats.AchievementsUnlocked)
	assert.False(t, resp.GeneratedAt.IsZero())
}

func TestGetDashboard_BranchFailuresAreIsolated(t *testing.T) {
	receipts, game, wallet, analytics := newFakes()
	wallet.balanceFn = func(ctx context.Context, userID string) (int, error) {
		return 0, errors.New("wallet down")
	}
	game.achievementsFn = func(ctx context.Context, userID string) (domain.AchievementsResponse, error) {
		panic("nil map")
	}
	svc := NewWorkflowService(receipts, game, wallet, analytics, Config{Features: AllFeatures()})

	resp, err := svc.GetDashboard(context.Background(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, domain.StatusError, resp.Wallet.Status)
	assert.Equal(t, "wallet down", resp.Wallet.Error)
	assert.Equal(t, domain.StatusError, resp.Gamification.Status)
	assert.Contains(t, resp.Gamification.Error, "panicked")
	assert.NotNil(t, resp.Gamification.Achievements)
	assert.Equal(t, domain.StatusSuccess, resp.Analytics.Status)
}

func TestGetDashboard_BranchTimeout(t *testing.T) {
	receipts, game, wallet, analytics := newFakes()
	analytics.summaryFn = func(ctx context.Context, userID string) (domain.SpendingSummary, error) {
		<-ctx.Done()
		return domain.SpendingSummary{}, ctx.Err()
	}
	svc := NewWorkflowService(receipts, game, wallet, analytics, Config{
		BranchTimeout: 20 * time.Millisecond,
		Features:      AllFeatures(),
	})

	start := time.Now()
	resp, err := svc.GetDashboard(context.Background(), "user-1")
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, domain.StatusError, resp.Analytics.Status)
	assert.Contains(t, resp.Analytics.Error, context.DeadlineExceeded.Error())
	assert.Equal(t, domain.StatusSuccess, resp.Wallet.Status)
	assert.Equal(t, domain.StatusSuccess, resp.Gamification.Status)
}

func TestGetDashboard_NoReceipts(t *testing.T) {
	receipts, game, wallet, analytics := newFakes()
	analytics.summaryFn = func(ctx context.Context, userID string) (domain.SpendingSummary, error) {
		return domain.SpendingSummary{}, domain.ErrNoReceipts
	}
	svc := NewWorkflowService(receipts, game, wallet, analytics, Config{Features: AllFeatures()})

	resp, err := svc.GetDashboard(context.Background(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, domain.StatusSuccess, resp.Analytics.Status)
	assert.Nil(t, resp.Analytics.Summary)
	assert.Equal(t, domain.MessageNoReceipts, resp.Analytics.Message)
}

func TestGetDashboard_DisabledBranches(t *testing.T) {
	receipts, game, wallet, analytics := newFakes()
	analytics.summaryFn = func(ctx context.Context, userID string) (domain.SpendingSummary, error) {
		t.Fatal("disabled branch must not run")
		return domain.SpendingSummary{}, nil
	}
	svc := NewWorkflowService(receipts, game, wallet, analytics, Config{
		Features: Features{Wallet: true, Analytics: false, Gamification: false},
	})

	resp, err := svc.GetDashboard(context.Background(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, domain.StatusSuccess, resp.Wallet.Status)
	assert.Equal(t, domain.StatusDisabled, resp.Analytics.Status)
	assert.Equal(t, domain.StatusDisabled, resp.Gamification.Status)
}

func TestGetDashboard_RequiresUser(t *testing.T) {
	receipts, game, wallet, analytics := newFakes()
	svc := NewWorkflowService(receipts, game, wallet, analytics, Config{})

	_, err := svc.GetDashboard(context.Background(), "")
	require.ErrorIs(t, err, domain.ErrUserIDRequired)
}
