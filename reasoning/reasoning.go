package reasoning

import (
	"errors"
	"fmt"

	"github.com/pbudner/frictionminer/model"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// ErrIdentityChanged is returned when a provider alters the anomaly id
var ErrIdentityChanged = errors.New("provider changed the anomaly id")

// EnrichmentError concerns a single anomaly and never aborts a run.
type EnrichmentError struct {
	AnomalyID string
	Err       error
}

func (e *EnrichmentError) Error() string {
	return fmt.Sprintf("enrichment of anomaly %s failed: %v", e.AnomalyID, e.Err)
}

func (e *EnrichmentError) Unwrap() error {
	return e.Err
}

// Result is the outcome for one anomaly. When Err is set, Anomaly is the
// original, unenriched anomaly.
type Result struct {
	Anomaly model.Anomaly
	Err     *EnrichmentError
}

func (r Result) Failed() bool {
	return r.Err != nil
}

var (
	enrichedAnomalies = prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: "frictionminer_reasoning",
		Name:      "enriched_total",
		Help:      "Total number of enriched anomalies.",
	})

	enrichmentFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: "frictionminer_reasoning",
		Name:      "failures_total",
		Help:      "Total number of anomalies left unenriched after a provider failure.",
	})
)

func init() {
	prometheus.MustRegister(enrichedAnomalies, enrichmentFailures)
}

type Engine struct {
	provider Provider
	log      *zap.SugaredLogger
}

func NewEngine(provider Provider) *Engine {
	return &Engine{
		provider: provider,
		log:      zap.L().Sugar().With("service", "reasoning"),
	}
}

// Analyze enriches every anomaly. The results have the same length and
// order as the input; failed items carry the original anomaly.
func (e *Engine) Analyze(anomalies []model.Anomaly) []Result {
	results := make([]Result, len(anomalies))
	for i, a := range anomalies {
		enriched, err := e.enrich(a)
		if err != nil {
			enrichmentFailures.Inc()
			e.log.Warnw("enrichment failed, keeping original anomaly", "anomaly", a.ID, "error", err)
			results[i] = Result{Anomaly: a, Err: &EnrichmentError{AnomalyID: a.ID, Err: err}}
			continue
		}
		enrichedAnomalies.Inc()
		results[i] = Result{Anomaly: enriched}
	}
	return results
}

func (e *Engine) enrich(a model.Anomaly) (enriched model.Anomaly, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	enriched, err = e.provider.Enrich(a)
	if err != nil {
		return model.Anomaly{}, err
	}
	if enriched.ID != a.ID {
		return model.Anomaly{}, ErrIdentityChanged
	}
	return enriched, nil
}

// Anomalies extracts the final anomaly list from results.
func Anomalies(results []Result) []model.Anomaly {
	out := make([]model.Anomaly, len(results))
	for i, r := range results {
		out[i] = r.Anomaly
	}
	return out
}

// Failures returns the errors of all failed results.
func Failures(results []Result) []*EnrichmentError {
	out := make([]*EnrichmentError, 0)
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r.Err)
		}
	}
	return out
}
