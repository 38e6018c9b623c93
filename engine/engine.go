package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/pbudner/frictionminer/algorithms"
	"github.com/pbudner/frictionminer/config"
	"github.com/pbudner/frictionminer/model"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	detectedAnomalies = prometheus.NewCounterVec(prometheus.CounterOpts{
		Subsystem: "frictionminer_engine",
		Name:      "anomalies_total",
		Help:      "Total number of detected anomalies.",
	}, []string{"detector", "type"})

	detectorFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Subsystem: "frictionminer_engine",
		Name:      "detector_failures_total",
		Help:      "Total number of failed detector runs.",
	}, []string{"detector"})

	detectorDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Subsystem: "frictionminer_engine",
		Name:      "detector_duration_seconds",
		Help:      "Time spent in a single detector run.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
	}, []string{"detector"})
)

// ErrNoDetectors is returned when a configuration disables every detector
var ErrNoDetectors = errors.New("no detectors configured")

func init() {
	prometheus.MustRegister(detectedAnomalies, detectorFailures, detectorDuration)
}

// Engine runs an ordered list of detectors over one trace collection.
type Engine struct {
	detectors []algorithms.Detector
	parallel  bool
	log       *zap.SugaredLogger
}

type Option func(*Engine)

func WithDetectors(detectors ...algorithms.Detector) Option {
	return func(e *Engine) {
		e.detectors = append([]algorithms.Detector(nil), detectors...)
	}
}

// WithParallel runs the detectors concurrently. The output order does not
// change.
func WithParallel(parallel bool) Option {
	return func(e *Engine) {
		e.parallel = parallel
	}
}

// DefaultDetectors returns time gap, loop and human dependency detectors
// with default thresholds, in that order.
func DefaultDetectors() []algorithms.Detector {
	timeGap, _ := algorithms.NewTimeGapDetector(algorithms.DefaultTimeGapConfig())
	loop, _ := algorithms.NewLoopDetector(algorithms.DefaultLoopConfig())
	human, _ := algorithms.NewHumanDependencyDetector(algorithms.DefaultHumanDependencyConfig())
	return []algorithms.Detector{timeGap, loop, human}
}

func New(opts ...Option) *Engine {
	e := &Engine{
		detectors: DefaultDetectors(),
		log:       zap.L().Sugar().With("service", "engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewFromConfig builds the detectors listed in cfg through the registry.
// An empty list means the default detectors.
func NewFromConfig(cfg config.EngineConfig) (*Engine, error) {
	opts := []Option{WithParallel(cfg.Parallel)}
	if len(cfg.Detectors) > 0 {
		detectors := make([]algorithms.Detector, 0, len(cfg.Detectors))
		for _, dc := range cfg.Detectors {
			if dc.Disabled {
				continue
			}
			d, err := algorithms.InstantiateDetector(dc.Name, dc.Params)
			if err != nil {
				return nil, err
			}
			detectors = append(detectors, d)
		}
		if len(detectors) == 0 {
			return nil, ErrNoDetectors
		}
		opts = append(opts, WithDetectors(detectors...))
	}
	return New(opts...), nil
}

func (e *Engine) Detectors() []string {
	names := make([]string, len(e.detectors))
	for i, d := range e.detectors {
		names[i] = d.Name()
	}
	return names
}

// RunAnalysis passes the traces to every detector and concatenates their
// results in detector order. The first failing detector aborts the run and
// no anomalies are returned.
func (e *Engine) RunAnalysis(traces []model.Trace) ([]model.Anomaly, error) {
	if len(traces) == 0 {
		return []model.Anomaly{}, nil
	}

	results := make([][]model.Anomaly, len(e.detectors))

	if e.parallel {
		var g errgroup.Group
		for i := range e.detectors {
			i := i
			g.Go(func() error {
				anomalies, err := e.runDetector(i, traces)
				results[i] = anomalies
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i := range e.detectors {
			anomalies, err := e.runDetector(i, traces)
			if err != nil {
				return nil, err
			}
			results[i] = anomalies
		}
	}

	total := 0
	for _, r := range results {
		total += len(r)
	}
	merged := make([]model.Anomaly, 0, total)
	for _, r := range results {
		merged = append(merged, r...)
	}

	e.log.Debugw("analysis finished", "traces", len(traces), "detectors", len(e.detectors), "anomalies", len(merged))
	return merged, nil
}

func (e *Engine) runDetector(index int, traces []model.Trace) (anomalies []model.Anomaly, err error) {
	d := e.detectors[index]
	name := d.Name()
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			anomalies = nil
			err = &DetectorError{Detector: name, Index: index, Err: fmt.Errorf("panic: %v", r)}
		}
		detectorDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		if err != nil {
			detectorFailures.WithLabelValues(name).Inc()
			e.log.Errorw("detector failed", "detector", name, "error", err)
		}
	}()

	anomalies, err = d.Detect(traces)
	if err != nil {
		return nil, &DetectorError{Detector: name, Index: index, Err: err}
	}

	for _, a := range anomalies {
		detectedAnomalies.WithLabelValues(name, string(a.Type)).Inc()
	}
	return anomalies, nil
}
