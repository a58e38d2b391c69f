package core

// FinancialSummary is the money view of one period. Pending invoice figures
// are not period-scoped: they always describe the invoices pending right now.
type FinancialSummary struct {
	TotalRevenue    float64 `json:"totalRevenue"`
	TotalExpenses   float64 `json:"totalExpenses"`
	NetProfit       float64 `json:"netProfit"`
	PendingInvoices int     `json:"pendingInvoices"`
	PendingAmount   float64 `json:"pendingAmount"`
}

// DashboardSummary is the payload of the dashboard header.
type DashboardSummary struct {
	FinancialSummary
	LowStockCount      int           `json:"lowStockCount"`
	RecentTransactions []Transaction `json:"recentTransactions"`
}

// MonthlyPoint is one bar of the revenue chart.
type MonthlyPoint struct {
	Month    string  `json:"month"`
	Revenue  float64 `json:"revenue"`
	Expenses float64 `json:"expenses"`
	Profit   float64 `json:"profit"`
}

// ChartData pairs the trailing monthly series with the all-time expense breakdown.
type ChartData struct {
	MonthlyData        []MonthlyPoint     `json:"monthlyData"`
	ExpensesByCategory map[string]float64 `json:"expensesByCategory"`
}

// Advice is the normalized reply of the advice generator.
type Advice struct {
	Advice      string   `json:"advice"`
	ActionItems []string `json:"actionItems"`
	Insights    []string `json:"insights"`
	Confidence  float64  `json:"confidence"`
}

// TrendAnalysis is the normalized reply of a trend analysis.
type TrendAnalysis struct {
	Trends          []string `json:"trends"`
	Recommendations []string `json:"recommendations"`
	RiskFactors     []string `json:"riskFactors"`
}
