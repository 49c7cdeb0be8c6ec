package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"stash-backend/domain"
	"stash-backend/entities"
	"stash-backend/internal/utils/genai"
	"stash-backend/pkg/points"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type (
	ReceiptSource interface {
		GetUserReceipts(ctx context.Context, userID string, limit int) ([]*entities.Receipt, error)
	}

	AnalyticsService interface {
		GetSpendingSummary(ctx context.Context, userID string) (domain.SpendingSummary, error)
		GetSpendingReport(ctx context.Context, userID string) (domain.SpendingReport, error)
		GetBudgetForecast(ctx context.Context, userID, period string) (domain.BudgetForecast, error)
	}

	analyticsService struct {
		receipts  ReceiptSource
		generator genai.TextGenerator
		now       func() time.Time
	}
)

func NewAnalyticsService(receipts ReceiptSource, generator genai.TextGenerator) AnalyticsService {
	return &analyticsService{
		receipts:  receipts,
		generator: generator,
		now:       time.Now,
	}
}

type spending struct {
	receipts  []*entities.Receipt
	total     decimal.Decimal
	merchants []domain.MerchantSpend
}

func (s *analyticsService) load(ctx context.Context, userID string) (spending, error) {
	if userID == "" {
		return spending{}, domain.ErrUserIDRequired
	}

	receipts, err := s.receipts.GetUserReceipts(ctx, userID, domain.ReportReceiptLimit)
	if err != nil {
		return spending{}, fmt.Errorf("get user receipts: %w", err)
	}
	if len(receipts) == 0 {
		return spending{}, domain.ErrNoReceipts
	}

	total := decimal.Zero
	byMerchant := map[string]*struct {
		total  decimal.Decimal
		visits int
	}{}
	order := []string{}
	for _, r := range receipts {
		amount, _ := points.ParseTotal(r.Total)
		total = total.Add(amount)

		merchant := r.Merchant
		if strings.TrimSpace(merchant) == "" {
			merchant = domain.DefaultMerchant
		}
		m, ok := byMerchant[merchant]
		if !ok {
			m = &struct {
				total  decimal.Decimal
				visits int
			}{total: decimal.Zero}
			byMerchant[merchant] = m
			order = append(order, merchant)
		}
		m.total = m.total.Add(amount)
		m.visits++
	}

	merchants := make([]domain.MerchantSpend, 0, len(order))
	for _, name := range order {
		m := byMerchant[name]
		merchants = append(merchants, domain.MerchantSpend{
			Merchant: name,
			Total:    m.total.Round(2).InexactFloat64(),
			Visits:   m.visits,
		})
	}
	sort.SliceStable(merchants, func(i, j int) bool {
		return merchants[i].Total > merchants[j].Total
	})

	return spending{receipts: receipts, total: total, merchants: merchants}, nil
}

func (sp spending) summary() domain.SpendingSummary {
	count := len(sp.receipts)
	top := sp.merchants
	if len(top) > domain.TopMerchantsLimit {
		top = top[:domain.TopMerchantsLimit]
	}
	average := decimal.Zero
	if count > 0 {
		average = sp.total.Div(decimal.NewFromInt(int64(count)))
	}
	return domain.SpendingSummary{
		TotalReceipts:      count,
		TotalSpending:      sp.total.Round(2).InexactFloat64(),
		TopMerchants:       top,
		AverageTransaction: average.Round(2).InexactFloat64(),
	}
}

func (s *analyticsService) GetSpendingSummary(ctx context.Context, userID string) (domain.SpendingSummary, error) {
	sp, err := s.load(ctx, userID)
	if err != nil {
		return domain.SpendingSummary{}, err
	}
	return sp.summary(), nil
}

// GetSpendingReport summarises the most recent receipts. Insight generation is best effort.
func (s *analyticsService) GetSpendingReport(ctx context.Context, userID string) (domain.SpendingReport, error) {
	sp, err := s.load(ctx, userID)
	if err != nil {
		return domain.SpendingReport{}, err
	}
	summary := sp.summary()

	report := domain.SpendingReport{
		Status:      domain.StatusSuccess,
		UserID:      userID,
		Summary:     summary,
		GeneratedAt: s.now().UTC(),
	}

	insights, err := s.generate(ctx, spendingPrompt(sp, summary))
	if err != nil {
		zap.L().Warn("spending insights unavailable",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return report, nil
	}
	report.Insights = insights
	return report, nil
}

// GetBudgetForecast projects spending for the period from the daily rate over the analysed receipts.
func (s *analyticsService) GetBudgetForecast(ctx context.Context, userID, period string) (domain.BudgetForecast, error) {
	if period == "" {
		period = domain.PeriodMonthly
	}
	days, ok := domain.PeriodDays[period]
	if !ok {
		return domain.BudgetForecast{}, fmt.Errorf("%w: %s", domain.ErrInvalidPeriod, period)
	}

	sp, err := s.load(ctx, userID)
	if err != nil {
		return domain.BudgetForecast{}, err
	}

	count := decimal.NewFromInt(int64(len(sp.receipts)))
	span := observedDays(sp.receipts)
	daily := sp.total.Div(decimal.NewFromInt(int64(span)))
	projected := daily.Mul(decimal.NewFromInt(int64(days)))

	forecast := domain.BudgetForecast{
		Status:            domain.StatusSuccess,
		UserID:            userID,
		Period:            period,
		ReceiptsAnalyzed:  len(sp.receipts),
		HistoricalSpend:   sp.total.Round(2).InexactFloat64(),
		DailyAverage:      daily.Round(2).InexactFloat64(),
		AverageReceipt:    sp.total.Div(count).Round(2).InexactFloat64(),
		ProjectedSpending: projected.Round(2).InexactFloat64(),
	}

	advice, err := s.generate(ctx, forecastPrompt(sp, period, projected))
	if err != nil {
		zap.L().Warn("budget advice unavailable",
			zap.String("user_id", userID),
			zap.String("period", period),
			zap.Error(err),
		)
		return forecast, nil
	}
	forecast.Advice = advice
	return forecast, nil
}

func (s *analyticsService) generate(ctx context.Context, prompt string) (string, error) {
	if s.generator == nil {
		return "", genai.ErrNotConfigured
	}
	text, err := s.generator.GenerateText(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// observedDays is the number of calendar days covered by the receipts, at least one.
func observedDays(receipts []*entities.Receipt) int {
	var first, last time.Time
	for _, r := range receipts {
		if first.IsZero() || r.CreatedAt.Before(first) {
			first = r.CreatedAt
		}
		if r.CreatedAt.After(last) {
			last = r.CreatedAt
		}
	}
	days := int(last.Sub(first).Hours()/24) + 1
	if days < 1 {
		return 1
	}
	return days
}

func spendingPrompt(sp spending, summary domain.SpendingSummary) string {
	type recent struct {
		Merchant string `json:"merchant"`
		Total    string `json:"total"`
		Date     string `json:"date"`
	}
	transactions := make([]recent, 0, 10)
	for i, r := range sp.receipts {
		if i == 10 {
			break
		}
		transactions = append(transactions, recent{Merchant: r.Merchant, Total: r.Total, Date: r.CreatedAt.Format(time.RFC3339)})
	}
	merchants, _ := json.MarshalIndent(sp.merchants, "", "  ")
	recentJSON, _ := json.MarshalIndent(transactions, "", "  ")

	return fmt.Sprintf(`Analyze the following spending data and provide insights:

Total Receipts: %d
Total Spending: $%s

Spending by Merchant:
%s

Recent Transactions:
%s

Provide analysis including:
1. Spending trends
2. Top categories/merchants
3. Budget recommendations
4. Potential savings opportunities

Format as a structured analysis with clear sections.`,
		summary.TotalReceipts, sp.total.StringFixed(2), merchants, recentJSON)
}

func forecastPrompt(sp spending, period string, projected decimal.Decimal) string {
	return fmt.Sprintf(`Based on the spending data of $%s across %d transactions,
the projected %s spending is $%s. Generate a %s budget forecast.

Include:
1. Budget allocation recommendations by category
2. Savings goals and targets
3. Spending limit suggestions
4. Financial health assessment

Provide practical, actionable advice for better financial management.`,
		sp.total.StringFixed(2), len(sp.receipts), period, projected.StringFixed(2), period)
}
