package algorithms

import (
	"errors"
	"fmt"

	"github.com/pbudner/frictionminer/model"
	"gonum.org/v1/gonum/stat"
)

const TimeGapName = "time_gap"

// transitions with fewer occurrences are never scored
const minTransitionOccurrences = 3

type TimeGapConfig struct {
	ZThreshold    float64 `yaml:"z-threshold"`
	MinGapSeconds float64 `yaml:"min-gap-seconds"`
}

func DefaultTimeGapConfig() TimeGapConfig {
	return TimeGapConfig{
		ZThreshold:    3.0,
		MinGapSeconds: 60,
	}
}

func (c TimeGapConfig) Validate() error {
	if c.ZThreshold < 0 {
		return errors.New("z-threshold must not be negative")
	}
	if c.MinGapSeconds < 0 {
		return errors.New("min-gap-seconds must not be negative")
	}
	return nil
}

func init() {
	RegisterDetector(TimeGapName, func() interface{} {
		cfg := DefaultTimeGapConfig()
		return &cfg
	}, func(cfg interface{}) (Detector, error) {
		return NewTimeGapDetector(*cfg.(*TimeGapConfig))
	})
}

type transition struct {
	from string
	to   string
}

type gapOccurrence struct {
	duration float64
	caseID   string
	eventID  string
}

// TimeGapDetector flags transitions whose duration is a statistical outlier
// among all occurrences of the same activity pair across every trace.
type TimeGapDetector struct {
	config TimeGapConfig
}

func NewTimeGapDetector(cfg TimeGapConfig) (*TimeGapDetector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &TimeGapDetector{config: cfg}, nil
}

func (d *TimeGapDetector) Config() TimeGapConfig {
	return d.config
}

func (d *TimeGapDetector) Name() string {
	return TimeGapName
}

func (d *TimeGapDetector) Detect(traces []model.Trace) ([]model.Anomaly, error) {
	order := make([]transition, 0)
	occurrences := make(map[transition][]gapOccurrence)
	for _, trace := range traces {
		for i := 0; i < trace.Len()-1; i++ {
			from, to := trace.EventAt(i), trace.EventAt(i+1)
			key := transition{from: from.Activity, to: to.Activity}
			if _, ok := occurrences[key]; !ok {
				order = append(order, key)
			}
			occurrences[key] = append(occurrences[key], gapOccurrence{
				duration: trace.GapSeconds(i),
				caseID:   trace.CaseID(),
				eventID:  to.EventID,
			})
		}
	}

	anomalies := make([]model.Anomaly, 0)
	for _, key := range order {
		occ := occurrences[key]
		if len(occ) < minTransitionOccurrences {
			continue
		}

		durations := make([]float64, len(occ))
		for i, o := range occ {
			durations[i] = o.duration
		}
		mean, std := stat.PopMeanStdDev(durations, nil)
		if std == 0 {
			continue
		}

		for _, o := range occ {
			z := (o.duration - mean) / std
			if o.duration < d.config.MinGapSeconds || z <= d.config.ZThreshold {
				continue
			}

			severity := model.SeverityMedium
			if z >= 5 {
				severity = model.SeverityHigh
			}
			anomalies = append(anomalies, model.NewAnomaly(
				fmt.Sprintf("TIME_GAP_%s_%s_%s_%s", o.caseID, key.from, key.to, o.eventID),
				o.caseID,
				model.TimeGap,
				fmt.Sprintf("Significant delay of %.0fs detected between '%s' and '%s'. Average is %.0fs (Z-Score: %.1f).",
					o.duration, key.from, key.to, mean, z),
				severity,
				[]string{o.eventID},
			))
		}
	}

	return anomalies, nil
}
