package domain

import (
	"fmt"
	"time"
)

var (
	MessageFailedWorkflow  = "receipt workflow failed"
	MessageFailedDashboard = "failed to build dashboard"
)

const (
	StepReceiptProcessing = "receipt_processing"
	StepPointsAward       = "points_award"
	StepBalanceCheck      = "balance_check"

	WorkflowStatusProcessed = "receipt processed"
	WorkflowStatusFailed    = "failed"
)

// StepError tags a workflow failure with the step that produced it.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

type (
	ReceiptWorkflowResult struct {
		Status           string       `json:"status"`
		WorkflowComplete bool         `json:"workflow_complete"`
		ReceiptID        string       `json:"receipt_id,omitempty"`
		ReceiptData      *ReceiptData `json:"receipt_data,omitempty"`
		PointsAwarded    int          `json:"points_awarded"`
		NewBalance       int          `json:"new_balance"`
		Summary          string       `json:"summary,omitempty"`
		PointsError      string       `json:"points_error,omitempty"`
		FailedStep       string       `json:"failed_step,omitempty"`
		Error            string       `json:"error,omitempty"`
	}

	WalletView struct {
		Balance int    `json:"balance"`
		Status  string `json:"status"`
		Error   string `json:"error,omitempty"`
	}

	AnalyticsView struct {
		Summary *SpendingSummary `json:"summary"`
		Message string           `json:"message,omitempty"`
		Status  string           `json:"status"`
		Error   string           `json:"error,omitempty"`
	}

	GamificationView struct {
		Achievements []Achievement    `json:"achievements"`
		Stats        AchievementStats `json:"stats"`
		Status       string           `json:"status"`
		Error        string           `json:"error,omitempty"`
	}

	DashboardResponse struct {
		UserID       string           `json:"user_id"`
		Wallet       WalletView       `json:"wallet"`
		Analytics    AnalyticsView    `json:"analytics"`
		Gamification GamificationView `json:"gamification"`
		GeneratedAt  time.Time        `json:"generated_at"`
	}

	HealthResponse struct {
		Status    string    `json:"status"`
		Service   string    `json:"service"`
		Timestamp time.Time `json:"timestamp"`
	}
)
