package algorithms

import (
	"errors"
	"fmt"

	"github.com/pbudner/frictionminer/model"
)

const LoopName = "loop"

type LoopConfig struct {
	// an activity is flagged when it occurs more than Threshold times
	Threshold int `yaml:"threshold"`
}

func DefaultLoopConfig() LoopConfig {
	return LoopConfig{Threshold: 2}
}

func (c LoopConfig) Validate() error {
	if c.Threshold < 1 {
		return errors.New("threshold must be at least 1")
	}
	return nil
}

func init() {
	RegisterDetector(LoopName, func() interface{} {
		cfg := DefaultLoopConfig()
		return &cfg
	}, func(cfg interface{}) (Detector, error) {
		return NewLoopDetector(*cfg.(*LoopConfig))
	})
}

// LoopDetector flags activities repeated within a single trace.
type LoopDetector struct {
	config LoopConfig
}

func NewLoopDetector(cfg LoopConfig) (*LoopDetector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &LoopDetector{config: cfg}, nil
}

func (d *LoopDetector) Config() LoopConfig {
	return d.config
}

func (d *LoopDetector) Name() string {
	return LoopName
}

func (d *LoopDetector) Detect(traces []model.Trace) ([]model.Anomaly, error) {
	anomalies := make([]model.Anomaly, 0)
	for _, trace := range traces {
		order := make([]string, 0)
		eventIDs := make(map[string][]string)
		for i := 0; i < trace.Len(); i++ {
			evt := trace.EventAt(i)
			if _, ok := eventIDs[evt.Activity]; !ok {
				order = append(order, evt.Activity)
			}
			eventIDs[evt.Activity] = append(eventIDs[evt.Activity], evt.EventID)
		}

		for _, activity := range order {
			count := len(eventIDs[activity])
			if count <= d.config.Threshold {
				continue
			}

			severity := model.SeverityMedium
			if count > 5 {
				severity = model.SeverityHigh
			}
			anomalies = append(anomalies, model.NewAnomaly(
				fmt.Sprintf("LOOP_%s_%s", trace.CaseID(), activity),
				trace.CaseID(),
				model.Loop,
				fmt.Sprintf("Activity '%s' was repeated %d times (threshold: %d). Potential rework/loop.",
					activity, count, d.config.Threshold),
				severity,
				eventIDs[activity],
			))
		}
	}
	return anomalies, nil
}
