package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"stash-backend/domain"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultBranchTimeout = 10 * time.Second

type (
	ReceiptProcessor interface {
		ProcessReceipt(ctx context.Context, req domain.ProcessReceiptRequest) (domain.ProcessReceiptResponse, error)
	}

	PointsAwarder interface {
		AwardReceiptPoints(ctx context.Context, userID string, receipt domain.ReceiptData) (domain.AwardPointsResponse, error)
		GetAchievements(ctx context.Context, userID string) (domain.AchievementsResponse, error)
	}

	BalanceReader interface {
		GetBalance(ctx context.Context, userID string) (int, error)
	}

	SpendingSummarizer interface {
		GetSpendingSummary(ctx context.Context, userID string) (domain.SpendingSummary, error)
	}

	// Features switches dashboard branches on or off.
	Features struct {
		Wallet       bool
		Analytics    bool
		Gamification bool
	}

	Config struct {
		BranchTimeout time.Duration
		Features      Features
	}

	WorkflowService interface {
		RunReceiptWorkflow(ctx context.Context, req domain.ProcessReceiptRequest) (domain.ReceiptWorkflowResult, error)
		GetDashboard(ctx context.Context, userID string) (domain.DashboardResponse, error)
	}

	workflowService struct {
		receipts  ReceiptProcessor
		game      PointsAwarder
		wallet    BalanceReader
		analytics SpendingSummarizer
		config    Config
		now       func() time.Time
	}
)

func AllFeatures() Features {
	return Features{Wallet: true, Analytics: true, Gamification: true}
}

func NewWorkflowService(
	receipts ReceiptProcessor,
	game PointsAwarder,
	wallet BalanceReader,
	analytics SpendingSummarizer,
	config Config,
) WorkflowService {
	if config.BranchTimeout <= 0 {
		config.BranchTimeout = defaultBranchTimeout
	}
	return &workflowService{
		receipts:  receipts,
		game:      game,
		wallet:    wallet,
		analytics: analytics,
		config:    config,
		now:       time.Now,
	}
}

// RunReceiptWorkflow ingests a receipt, awards points for it and reports the final balance.
// Only an ingestion failure aborts the run. A stored receipt is never rolled back.
func (s *workflowService) RunReceiptWorkflow(ctx context.Context, req domain.ProcessReceiptRequest) (domain.ReceiptWorkflowResult, error) {
	log := zap.L().With(zap.String("user_id", req.UserID))

	processed, err := s.receipts.ProcessReceipt(ctx, req)
	if err != nil {
		stepErr := &domain.StepError{Step: domain.StepReceiptProcessing, Err: err}
		log.Warn("receipt workflow aborted", zap.Error(stepErr))
		return domain.ReceiptWorkflowResult{
			Status:     domain.WorkflowStatusFailed,
			FailedStep: domain.StepReceiptProcessing,
			Error:      fmt.Sprintf("Receipt processing failed: %v", err),
		}, stepErr
	}

	data := processed.Data
	result := domain.ReceiptWorkflowResult{
		Status:           domain.WorkflowStatusProcessed,
		WorkflowComplete: true,
		ReceiptID:        processed.ReceiptID,
		ReceiptData:      &data,
	}

	award, err := s.game.AwardReceiptPoints(ctx, req.UserID, data)
	awarded := err == nil
	if err != nil {
		log.Error("points award failed after receipt was stored",
			zap.String("receipt_id", processed.ReceiptID),
			zap.Error(err),
		)
		result.WorkflowComplete = false
		result.FailedStep = domain.StepPointsAward
		result.PointsError = err.Error()
	} else {
		result.PointsAwarded = award.Points
		result.NewBalance = award.NewBalance
	}

	balance, err := s.wallet.GetBalance(ctx, req.UserID)
	if err != nil {
		log.Warn("balance check failed", zap.Error(err))
		result.WorkflowComplete = false
		if result.FailedStep == "" {
			result.FailedStep = domain.StepBalanceCheck
		}
		result.Error = err.Error()
	} else {
		result.NewBalance = balance
	}

	var awardMessage string
	if awarded {
		awardMessage = award.Message
	}
	result.Summary = workflowSummary(data, awarded, result.PointsAwarded, result.NewBalance, awardMessage)
	return result, nil
}

func workflowSummary(data domain.ReceiptData, awarded bool, points, balance int, message string) string {
	parts := []string{
		"Receipt Successfully Processed!",
		fmt.Sprintf("Merchant: %s", data.Merchant),
		fmt.Sprintf("Total: %s", data.Total),
		fmt.Sprintf("Items processed: %d", len(data.Items)),
	}
	if awarded {
		parts = append(parts,
			fmt.Sprintf("Points earned: %d", points),
			fmt.Sprintf("New balance: %d points", balance),
		)
		if message != "" {
			parts = append(parts, message)
		}
	}
	return strings.Join(parts, "\n")
}

// GetDashboard reads wallet, analytics and achievements concurrently.
// Each branch has its own deadline and reports its own failure.
func (s *workflowService) GetDashboard(ctx context.Context, userID string) (domain.DashboardResponse, error) {
	if userID == "" {
		return domain.DashboardResponse{}, domain.ErrUserIDRequired
	}

	resp := domain.DashboardResponse{
		UserID:       userID,
		Wallet:       domain.WalletView{Status: domain.StatusDisabled},
		Analytics:    domain.AnalyticsView{Status: domain.StatusDisabled},
		Gamification: domain.GamificationView{Status: domain.StatusDisabled, Achievements: []domain.Achievement{}},
	}

	// Branches never return an error so one failure cannot cancel the others.
	var g errgroup.Group

	if s.config.Features.Wallet {
		g.Go(func() error {
			resp.Wallet = s.walletBranch(ctx, userID)
			return nil
		})
	}
	if s.config.Features.Analytics {
		g.Go(func() error {
			resp.Analytics = s.analyticsBranch(ctx, userID)
			return nil
		})
	}
	if s.config.Features.Gamification {
		g.Go(func() error {
			resp.Gamification = s.gamificationBranch(ctx, userID)
			return nil
		})
	}

	_ = g.Wait()
	resp.GeneratedAt = s.now().UTC()
	return resp, nil
}

func (s *workflowService) walletBranch(ctx context.Context, userID string) domain.WalletView {
	balance, err := runBranch(ctx, s.config.BranchTimeout, "wallet", userID, func(ctx context.Context) (int, error) {
		return s.wallet.GetBalance(ctx, userID)
	})
	if err != nil {
		return domain.WalletView{Status: domain.StatusError, Error: err.Error()}
	}
	return domain.WalletView{Balance: balance, Status: domain.StatusSuccess}
}

func (s *workflowService) analyticsBranch(ctx context.Context, userID string) domain.AnalyticsView {
	summary, err := runBranch(ctx, s.config.BranchTimeout, "analytics", userID, func(ctx context.Context) (domain.SpendingSummary, error) {
		return s.analytics.GetSpendingSummary(ctx, userID)
	})
	switch {
	case errors.Is(err, domain.ErrNoReceipts):
		return domain.AnalyticsView{Status: domain.StatusSuccess, Message: domain.MessageNoReceipts}
	case err != nil:
		return domain.AnalyticsView{Status: domain.StatusError, Error: err.Error()}
	}
	return domain.AnalyticsView{Summary: &summary, Status: domain.StatusSuccess}
}

func (s *workflowService) gamificationBranch(ctx context.Context, userID string) domain.GamificationView {
	progress, err := runBranch(ctx, s.config.BranchTimeout, "gamification", userID, func(ctx context.Context) (domain.AchievementsResponse, error) {
		return s.game.GetAchievements(ctx, userID)
	})
	if err != nil {
		return domain.GamificationView{Status: domain.StatusError, Error: err.Error(), Achievements: []domain.Achievement{}}
	}
	return domain.GamificationView{
		Achievements: progress.Achievements,
		Stats:        progress.Stats,
		Status:       domain.StatusSuccess,
	}
}

type branchResult[T any] struct {
	value T
	err   error
}

// runBranch bounds fn by timeout and turns a panic into an error.
func runBranch[T any](ctx context.Context, timeout time.Duration, branch, userID string, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan branchResult[T], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- branchResult[T]{err: fmt.Errorf("%s branch panicked: %v", branch, r)}
			}
		}()
		value, err := fn(ctx)
		done <- branchResult[T]{value: value, err: err}
	}()

	var result branchResult[T]
	select {
	case result = <-done:
	case <-ctx.Done():
		result.err = fmt.Errorf("%s branch: %w", branch, ctx.Err())
	}

	if result.err != nil && !errors.Is(result.err, domain.ErrNoReceipts) {
		zap.L().Warn("dashboard branch failed",
			zap.String("branch", branch),
			zap.String("user_id", userID),
			zap.Error(result.err),
		)
	}
	return result.value, result.err
}
