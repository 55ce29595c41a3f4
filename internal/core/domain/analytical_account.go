package domain

// AnalyticalAccount is a cost center used to attribute income and expense.
type AnalyticalAccount struct {
	AnalyticalAccountID string `json:"analyticalAccountID"`
	Code                string `json:"code"`
	Name                string `json:"name"`
	IsActive            bool   `json:"isActive"`
}
