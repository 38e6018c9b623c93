package pipeline

import (
	"fmt"
	"time"

	"github.com/pbudner/frictionminer/config"
	"github.com/pbudner/frictionminer/engine"
	"github.com/pbudner/frictionminer/model"
	"github.com/pbudner/frictionminer/normalizer"
	"github.com/pbudner/frictionminer/parsers"
	"github.com/pbudner/frictionminer/reasoning"
	"go.uber.org/zap"
)

// Pipeline wires ingestion, normalization, detection and enrichment for a
// single batch.
type Pipeline struct {
	parserConfig parsers.Config
	normalizer   *normalizer.Normalizer
	engine       *engine.Engine
	reasoning    *reasoning.Engine
	log          *zap.SugaredLogger
}

// Result holds everything produced by one run.
type Result struct {
	RunID              string
	Source             string
	Fingerprint        uint64
	StartedAt          time.Time
	Elapsed            time.Duration
	Traces             []model.Trace
	Anomalies          []model.Anomaly
	EnrichmentFailures []*reasoning.EnrichmentError
}

func New(parserConfig parsers.Config, n *normalizer.Normalizer, e *engine.Engine, r *reasoning.Engine) *Pipeline {
	return &Pipeline{
		parserConfig: parserConfig,
		normalizer:   n,
		engine:       e,
		reasoning:    r,
		log:          zap.L().Sugar().With("service", "pipeline"),
	}
}

func NewFromConfig(cfg *config.Config) (*Pipeline, error) {
	n, err := normalizer.NewFromConfig(cfg.Normalizer)
	if err != nil {
		return nil, err
	}

	e, err := engine.NewFromConfig(cfg.Engine)
	if err != nil {
		return nil, err
	}

	provider, err := reasoning.NewProvider(cfg.Enrichment.Mode)
	if err != nil {
		return nil, err
	}

	return New(cfg.Parser, n, e, reasoning.NewEngine(provider)), nil
}

func (p *Pipeline) Engine() *engine.Engine {
	return p.engine
}

func (p *Pipeline) RunFile(path string) (*Result, error) {
	batch, err := parsers.LoadFile(path, p.parserConfig)
	if err != nil {
		return nil, err
	}
	return p.RunBatch(batch)
}

func (p *Pipeline) RunBytes(name string, format parsers.Format, data []byte) (*Result, error) {
	batch, err := parsers.Decode(name, format, data, p.parserConfig)
	if err != nil {
		return nil, err
	}
	return p.RunBatch(batch)
}

// RunBatch normalizes the batch, runs all detectors and enriches the
// findings. Ingestion, schema and detector errors are returned as is;
// enrichment failures are collected in the result.
func (p *Pipeline) RunBatch(batch *parsers.Batch) (*Result, error) {
	start := time.Now()
	runID, err := defaultRunIDGenerator().New(start)
	if err != nil {
		return nil, fmt.Errorf("failed to create run id: %w", err)
	}
	log := p.log.With("run", runID.String(), "source", batch.Name)

	traces, err := p.normalizer.Normalize(batch.Records)
	if err != nil {
		return nil, err
	}

	anomalies, err := p.engine.RunAnalysis(traces)
	if err != nil {
		return nil, err
	}

	results := p.reasoning.Analyze(anomalies)
	result := &Result{
		RunID:              runID.String(),
		Source:             batch.Name,
		Fingerprint:        batch.Fingerprint,
		StartedAt:          start.UTC(),
		Elapsed:            time.Since(start),
		Traces:             traces,
		Anomalies:          reasoning.Anomalies(results),
		EnrichmentFailures: reasoning.Failures(results),
	}
	log.Infow("analysis completed", "traces", len(traces), "anomalies", len(result.Anomalies),
		"enrichment_failures", len(result.EnrichmentFailures), "elapsed", result.Elapsed)
	return result, nil
}

// Trace looks up the trace of a case.
func (r *Result) Trace(caseID string) (model.Trace, bool) {
	for _, t := range r.Traces {
		if t.CaseID() == caseID {
			return t, true
		}
	}
	return model.Trace{}, false
}

func (r *Result) AnomaliesForCase(caseID string) []model.Anomaly {
	out := make([]model.Anomaly, 0)
	for _, a := range r.Anomalies {
		if a.CaseID == caseID {
			out = append(out, a)
		}
	}
	return out
}

func (r *Result) EventCount() int {
	n := 0
	for _, t := range r.Traces {
		n += t.Len()
	}
	return n
}

// AverageDurationSeconds is zero for a result without traces.
func (r *Result) AverageDurationSeconds() float64 {
	if len(r.Traces) == 0 {
		return 0
	}
	total := 0.0
	for _, t := range r.Traces {
		total += t.DurationSeconds()
	}
	return total / float64(len(r.Traces))
}

// Summary is the wire representation of a result.
type Summary struct {
	RunID              string          `json:"run_id" msgpack:"run_id"`
	Source             string          `json:"source" msgpack:"source"`
	Fingerprint        string          `json:"fingerprint" msgpack:"fingerprint"`
	Cases              int             `json:"cases" msgpack:"cases"`
	Events             int             `json:"events" msgpack:"events"`
	Anomalies          []model.Anomaly `json:"anomalies" msgpack:"anomalies"`
	EnrichmentFailures []string        `json:"enrichment_failures" msgpack:"enrichment_failures"`
}

func (r *Result) Summary() Summary {
	failures := make([]string, len(r.EnrichmentFailures))
	for i, f := range r.EnrichmentFailures {
		failures[i] = f.Error()
	}
	anomalies := r.Anomalies
	if anomalies == nil {
		anomalies = []model.Anomaly{}
	}
	return Summary{
		RunID:              r.RunID,
		Source:             r.Source,
		Fingerprint:        fmt.Sprintf("%016x", r.Fingerprint),
		Cases:              len(r.Traces),
		Events:             r.EventCount(),
		Anomalies:          anomalies,
		EnrichmentFailures: failures,
	}
}
