package response

import "github.com/NeuralTrust/IPGuard/pkg/domain/risk"

type AnalyzeIPOutput struct {
	risk.Decision
	EnforcementError string `json:"enforcement_error,omitempty"`
}
