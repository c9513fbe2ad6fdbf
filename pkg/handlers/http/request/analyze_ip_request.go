package request

import "github.com/NeuralTrust/IPGuard/pkg/domain/risk"

// AnalyzeIPRequest is the free-form context object. Known keys are mapped
// onto risk.Context and the rest is kept as hints.
type AnalyzeIPRequest map[string]interface{}

func (r AnalyzeIPRequest) RiskContext() (risk.Context, error) {
	return risk.ContextFromMap(r)
}
