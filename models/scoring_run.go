package models

import "time"

// Run statuses.
const (
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

// ScoringRun is the history record kept for each upload. The table itself is
// never stored.
type ScoringRun struct {
	ID                string    `json:"id"`
	FileName          string    `json:"file_name"`
	Rows              int       `json:"rows"`
	Status            string    `json:"status"`
	FailedStage       string    `json:"failed_stage,omitempty"`
	ErrorKind         string    `json:"error_kind,omitempty"`
	Message           string    `json:"message,omitempty"`
	MeanRisk          float64   `json:"mean_risk"`
	HighRiskRows      int       `json:"high_risk_rows"`
	TotalEconomicLoss float64   `json:"total_economic_loss"`
	ModelVersion      string    `json:"model_version"`
	CreatedAt         time.Time `json:"created_at"`
}
