// Package advisor builds financial snapshots, asks an external model for
// advice or a trend analysis and normalizes what comes back.
package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"caisse/internal/core"
	"caisse/internal/log"
	"caisse/internal/metrics"
)

const (
	adviceTransactions = 5
	trendTransactions  = 20
	defaultConfidence  = 0.5
)

// Figures is the analytics surface the advisor reads.
type Figures interface {
	FinancialSummary(ctx context.Context, userID int64, p *core.Period) (core.FinancialSummary, error)
	LowStockItems(ctx context.Context, userID int64) ([]core.InventoryItem, error)
	ExpensesByCategory(ctx context.Context, userID int64) (map[string]float64, error)
	RecentTransactions(ctx context.Context, userID int64, n int) ([]core.Transaction, error)
}

// SnapshotTransaction is the reduced view of a ledger entry sent to the model.
type SnapshotTransaction struct {
	Type        string  `json:"type"`
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}

// Snapshot is the financial data attached to an advice request.
type Snapshot struct {
	Revenue            float64               `json:"revenue"`
	Expenses           float64               `json:"expenses"`
	Profit             float64               `json:"profit"`
	PendingInvoices    int                   `json:"pendingInvoices"`
	LowStockItems      int                   `json:"lowStockItems"`
	RecentTransactions []SnapshotTransaction `json:"recentTransactions"`
}

// TrendSnapshot is the data sent for a trend analysis.
type TrendSnapshot struct {
	FinancialSummary   core.FinancialSummary `json:"financialSummary"`
	ExpensesByCategory map[string]float64    `json:"expensesByCategory"`
	TransactionTrends  []core.Transaction    `json:"transactionTrends"`
}

type Advisor struct {
	gen     Generator
	figures Figures
	timeout time.Duration
	logger  *log.Logger
}

func New(gen Generator, figures Figures, timeout time.Duration, logger *log.Logger) *Advisor {
	if logger == nil {
		logger = log.Default()
	}
	return &Advisor{
		gen:     gen,
		figures: figures,
		timeout: timeout,
		logger:  logger.WithComponent(log.ComponentAdvisor),
	}
}

// Advice answers the user's question, optionally with their current figures.
func (a *Advisor) Advice(ctx context.Context, user core.User, req core.AdviceRequest) (core.Advice, error) {
	var snap *Snapshot
	if req.IncludeFinancialData {
		s, err := a.AdviceSnapshot(ctx, user.ID)
		if err != nil {
			return core.Advice{}, err
		}
		snap = &s
	}

	raw, err := a.generate(ctx, "advice", Prompt{
		System:      adviceSystemPrompt,
		User:        adviceUserPrompt(req.Question, snap, businessContext(user)),
		Temperature: 0.7,
		MaxTokens:   1000,
	})
	if err != nil {
		return core.Advice{}, err
	}

	advice, err := parseAdvice(raw)
	if err != nil {
		a.logger.ErrorContext(ctx, "Unparseable advice reply", log.FieldError, err, log.FieldUserID, user.ID)
		return core.Advice{}, fmt.Errorf("%w: %v", core.ErrAdviceUnavailable, err)
	}
	return advice, nil
}

// AnalyzeTrends asks for trends, recommendations and risk factors.
func (a *Advisor) AnalyzeTrends(ctx context.Context, userID int64) (core.TrendAnalysis, error) {
	snap, err := a.TrendSnapshot(ctx, userID)
	if err != nil {
		return core.TrendAnalysis{}, err
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return core.TrendAnalysis{}, fmt.Errorf("encode trend snapshot: %w", err)
	}

	raw, err := a.generate(ctx, "trends", Prompt{
		User:        fmt.Sprintf(trendsPromptTemplate, data),
		Temperature: 0.6,
		MaxTokens:   800,
	})
	if err != nil {
		return core.TrendAnalysis{}, err
	}

	analysis, err := parseTrends(raw)
	if err != nil {
		a.logger.ErrorContext(ctx, "Unparseable trends reply", log.FieldError, err, log.FieldUserID, userID)
		return core.TrendAnalysis{}, fmt.Errorf("%w: %v", core.ErrAdviceUnavailable, err)
	}
	return analysis, nil
}

// AdviceSnapshot gathers the current month's figures and the last five transactions.
func (a *Advisor) AdviceSnapshot(ctx context.Context, userID int64) (Snapshot, error) {
	summary, err := a.figures.FinancialSummary(ctx, userID, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("financial summary: %w", err)
	}
	low, err := a.figures.LowStockItems(ctx, userID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("low stock items: %w", err)
	}
	recent, err := a.figures.RecentTransactions(ctx, userID, adviceTransactions)
	if err != nil {
		return Snapshot{}, fmt.Errorf("recent transactions: %w", err)
	}

	txs := make([]SnapshotTransaction, 0, len(recent))
	for _, t := range recent {
		txs = append(txs, SnapshotTransaction{
			Type:        string(t.Type),
			Category:    t.Category,
			Amount:      core.ToFloat(t.Amount),
			Description: t.Description,
		})
	}
	return Snapshot{
		Revenue:            summary.TotalRevenue,
		Expenses:           summary.TotalExpenses,
		Profit:             summary.NetProfit,
		PendingInvoices:    summary.PendingInvoices,
		LowStockItems:      len(low),
		RecentTransactions: txs,
	}, nil
}

// TrendSnapshot gathers the current summary, all-time expense categories and
// the last twenty transactions.
func (a *Advisor) TrendSnapshot(ctx context.Context, userID int64) (TrendSnapshot, error) {
	summary, err := a.figures.FinancialSummary(ctx, userID, nil)
	if err != nil {
		return TrendSnapshot{}, fmt.Errorf("financial summary: %w", err)
	}
	byCategory, err := a.figures.ExpensesByCategory(ctx, userID)
	if err != nil {
		return TrendSnapshot{}, fmt.Errorf("expenses by category: %w", err)
	}
	recent, err := a.figures.RecentTransactions(ctx, userID, trendTransactions)
	if err != nil {
		return TrendSnapshot{}, fmt.Errorf("recent transactions: %w", err)
	}
	return TrendSnapshot{
		FinancialSummary:   summary,
		ExpensesByCategory: byCategory,
		TransactionTrends:  recent,
	}, nil
}

// generate runs the generator under the advice timeout. Any failure is
// reported as unavailable, except an expired deadline which has its own kind.
func (a *Advisor) generate(ctx context.Context, kind string, p Prompt) (string, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := a.gen.Generate(ctx, p)
	elapsed := time.Since(start)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			metrics.ObserveAdvice(kind, "timeout", elapsed)
			a.logger.WarnContext(ctx, "Advice generation timed out",
				log.FieldOperation, kind, "timeout", a.timeout, log.FieldErrorType, log.ErrorTypeTimeout)
			return "", fmt.Errorf("%w after %s", core.ErrAdviceTimeout, a.timeout)
		}
		metrics.ObserveAdvice(kind, "error", elapsed)
		a.logger.ErrorContext(ctx, "Advice generation failed",
			log.FieldOperation, kind, log.FieldError, err, log.FieldErrorType, log.ErrorTypeUpstream)
		return "", fmt.Errorf("%w: %v", core.ErrAdviceUnavailable, err)
	}
	metrics.ObserveAdvice(kind, "ok", elapsed)
	return raw, nil
}

type adviceReply struct {
	Advice      string   `json:"advice"`
	ActionItems []string `json:"actionItems"`
	Insights    []string `json:"insights"`
	Confidence  *float64 `json:"confidence"`
}

type trendsReply struct {
	Trends          []string `json:"trends"`
	Recommendations []string `json:"recommendations"`
	RiskFactors     []string `json:"riskFactors"`
}

// replyJSON strips code fences; a blank reply reads as an empty object.
func replyJSON(raw string) []byte {
	body := stripFences(raw)
	if body == "" {
		return []byte("{}")
	}
	return []byte(body)
}

func parseAdvice(raw string) (core.Advice, error) {
	var r adviceReply
	if err := json.Unmarshal(replyJSON(raw), &r); err != nil {
		return core.Advice{}, err
	}
	advice := core.Advice{
		Advice:      r.Advice,
		ActionItems: orEmpty(r.ActionItems),
		Insights:    orEmpty(r.Insights),
		Confidence:  defaultConfidence,
	}
	if advice.Advice == "" {
		advice.Advice = fallbackAdvice
	}
	if r.Confidence != nil {
		advice.Confidence = clampConfidence(*r.Confidence)
	}
	return advice, nil
}

func parseTrends(raw string) (core.TrendAnalysis, error) {
	var r trendsReply
	if err := json.Unmarshal(replyJSON(raw), &r); err != nil {
		return core.TrendAnalysis{}, err
	}
	return core.TrendAnalysis{
		Trends:          orEmpty(r.Trends),
		Recommendations: orEmpty(r.Recommendations),
		RiskFactors:     orEmpty(r.RiskFactors),
	}, nil
}

func clampConfidence(c float64) float64 {
	if math.IsNaN(c) {
		return defaultConfidence
	}
	return math.Max(0, math.Min(1, c))
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
