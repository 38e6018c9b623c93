package reasoning

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pbudner/frictionminer/model"
)

// ErrUnknownProvider is returned for an enrichment mode without a provider
var ErrUnknownProvider = errors.New("unknown enrichment provider")

// Provider attaches a root cause and a recommendation to an anomaly. It
// returns a new anomaly and may fail for single items.
type Provider interface {
	Enrich(anomaly model.Anomaly) (model.Anomaly, error)
}

type ProviderFunc func(model.Anomaly) (model.Anomaly, error)

func (f ProviderFunc) Enrich(anomaly model.Anomaly) (model.Anomaly, error) {
	return f(anomaly)
}

type explanation struct {
	rootCause      string
	recommendation string
}

var fallbackExplanation = explanation{
	rootCause:      "Unknown cause",
	recommendation: "Investigate manually",
}

// RuleProvider explains anomalies from a fixed lookup table per anomaly type.
type RuleProvider struct {
	rules map[model.AnomalyType]explanation
}

func NewRuleProvider() *RuleProvider {
	return &RuleProvider{
		rules: map[model.AnomalyType]explanation{
			model.TimeGap: {
				rootCause:      "Potential manual data entry delay or system integration latency.",
				recommendation: "Review specific transaction logs between these activities to identify the bottleneck.",
			},
			model.Loop: {
				rootCause:      "Ambiguous process requirements or user error causing rework.",
				recommendation: "Standardize the operating procedure for this step to reduce ambiguity.",
			},
			model.HumanDependency: {
				rootCause:      "Process step requires significant manual intervention.",
				recommendation: "Evaluate potential for RPA (Robotic Process Automation) or partial automation.",
			},
		},
	}
}

func (p *RuleProvider) Enrich(anomaly model.Anomaly) (model.Anomaly, error) {
	e, ok := p.rules[anomaly.Type]
	if !ok {
		e = fallbackExplanation
	}
	return anomaly.WithEnrichment(e.rootCause, e.recommendation), nil
}

// NewProvider returns the provider for an enrichment mode. Only the
// deterministic rule provider ("mock" or "rules") is available.
func NewProvider(mode string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "mock", "rules":
		return NewRuleProvider(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, mode)
	}
}
