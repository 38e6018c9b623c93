package algorithms

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/pbudner/frictionminer/model"
)

const HumanDependencyName = "human_dependency"

type HumanDependencyConfig struct {
	RatioThreshold float64 `yaml:"ratio-threshold"`
}

func DefaultHumanDependencyConfig() HumanDependencyConfig {
	return HumanDependencyConfig{RatioThreshold: 0.5}
}

func (c HumanDependencyConfig) Validate() error {
	if c.RatioThreshold < 0 || c.RatioThreshold > 1 {
		return errors.New("ratio-threshold must be between 0 and 1")
	}
	return nil
}

func init() {
	RegisterDetector(HumanDependencyName, func() interface{} {
		cfg := DefaultHumanDependencyConfig()
		return &cfg
	}, func(cfg interface{}) (Detector, error) {
		return NewHumanDependencyDetector(*cfg.(*HumanDependencyConfig))
	})
}

// HumanDependencyDetector flags traces where the time following human steps
// makes up most of the case duration. A step's duration is the gap to the
// next event, so a trailing human event adds nothing.
type HumanDependencyDetector struct {
	config HumanDependencyConfig
}

func NewHumanDependencyDetector(cfg HumanDependencyConfig) (*HumanDependencyDetector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &HumanDependencyDetector{config: cfg}, nil
}

func (d *HumanDependencyDetector) Config() HumanDependencyConfig {
	return d.config
}

func (d *HumanDependencyDetector) Name() string {
	return HumanDependencyName
}

func (d *HumanDependencyDetector) Detect(traces []model.Trace) ([]model.Anomaly, error) {
	anomalies := make([]model.Anomaly, 0)
	for _, trace := range traces {
		if trace.DurationSeconds() <= 0 {
			continue
		}

		humanDuration := 0.0
		actors := make(map[string]bool)
		for i := 0; i < trace.Len()-1; i++ {
			evt := trace.EventAt(i)
			if !evt.IsHuman() {
				continue
			}
			humanDuration += trace.GapSeconds(i)
			if evt.Actor != "" {
				actors[evt.Actor] = true
			}
		}

		ratio := humanDuration / trace.DurationSeconds()
		if ratio <= d.config.RatioThreshold {
			continue
		}

		description := fmt.Sprintf("Human-driven delays account for %.1f%% of total case duration (%.0fs / %.0fs).",
			ratio*100, humanDuration, trace.DurationSeconds())
		if len(actors) > 0 {
			names := make([]string, 0, len(actors))
			for name := range actors {
				names = append(names, name)
			}
			sort.Strings(names)
			description += fmt.Sprintf(" Human actors: %s.", strings.Join(names, ", "))
		}

		severity := model.SeverityLow
		if ratio >= 0.8 {
			severity = model.SeverityMedium
		}
		anomalies = append(anomalies, model.NewAnomaly(
			fmt.Sprintf("HUMAN_DEP_%s", trace.CaseID()),
			trace.CaseID(),
			model.HumanDependency,
			description,
			severity,
			nil,
		))
	}
	return anomalies, nil
}
