package domain

import (
	"errors"
	"time"
)

var (
	MessageSuccessSpendingReport = "spending report generated successfully"
	MessageSuccessBudgetForecast = "budget forecast generated successfully"
	MessageNoReceipts            = "No receipts found for this user."

	MessageFailedSpendingReport = "failed to generate spending report"
	MessageFailedBudgetForecast = "failed to generate budget forecast"

	ErrNoReceipts    = errors.New("no receipts found for this user")
	ErrInvalidPeriod = errors.New("invalid forecast period")
)

const (
	ReportReceiptLimit = 50
	TopMerchantsLimit  = 5

	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
	PeriodYearly  = "yearly"
)

// PeriodDays maps a forecast period to its length in days.
var PeriodDays = map[string]int{
	PeriodWeekly:  7,
	PeriodMonthly: 30,
	PeriodYearly:  365,
}

type (
	MerchantSpend struct {
		Merchant string  `json:"merchant"`
		Total    float64 `json:"total"`
		Visits   int     `json:"visits"`
	}

	SpendingSummary struct {
		TotalReceipts      int             `json:"total_receipts"`
		TotalSpending      float64         `json:"total_spending"`
		TopMerchants       []MerchantSpend `json:"top_merchants"`
		AverageTransaction float64         `json:"average_transaction"`
	}

	SpendingReport struct {
		Status      string          `json:"status"`
		UserID      string          `json:"user_id"`
		Summary     SpendingSummary `json:"summary"`
		Insights    string          `json:"insights,omitempty"`
		GeneratedAt time.Time       `json:"generated_at"`
	}

	NoReceiptsResponse struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}

	BudgetForecast struct {
		Status            string  `json:"status"`
		UserID            string  `json:"user_id"`
		Period            string  `json:"period"`
		ReceiptsAnalyzed  int     `json:"receipts_analyzed"`
		HistoricalSpend   float64 `json:"historical_spending"`
		DailyAverage      float64 `json:"daily_average"`
		AverageReceipt    float64 `json:"average_receipt"`
		ProjectedSpending float64 `json:"projected_spending"`
		Advice            string  `json:"advice,omitempty"`
	}
)
