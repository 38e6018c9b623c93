package model

import (
	"github.com/vmihailenco/msgpack/v5"
)

type AnomalyType string

const (
	TimeGap         AnomalyType = "TIME_GAP"
	Loop            AnomalyType = "LOOP"
	HumanDependency AnomalyType = "HUMAN_DEPENDENCY"
)

type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// Anomaly is a single friction point found by a detector. RootCause and
// Recommendation stay nil until the anomaly has been enriched.
type Anomaly struct {
	ID             string      `json:"anomaly_id" msgpack:"anomaly_id"`
	CaseID         string      `json:"case_id" msgpack:"case_id"`
	Type           AnomalyType `json:"anomaly_type" msgpack:"anomaly_type"`
	Description    string      `json:"description" msgpack:"description"`
	Severity       Severity    `json:"severity" msgpack:"severity"`
	InvolvedEvents []string    `json:"involved_events" msgpack:"involved_events"`
	RootCause      *string     `json:"root_cause" msgpack:"root_cause"`
	Recommendation *string     `json:"recommendation" msgpack:"recommendation"`
}

func NewAnomaly(id string, caseID string, anomalyType AnomalyType, description string, severity Severity, involvedEvents []string) Anomaly {
	return Anomaly{
		ID:             id,
		CaseID:         caseID,
		Type:           anomalyType,
		Description:    description,
		Severity:       severity,
		InvolvedEvents: cloneStrings(involvedEvents),
	}
}

// WithEnrichment returns a copy of the anomaly carrying a root cause and a
// recommendation. The receiver is left untouched.
func (a Anomaly) WithEnrichment(rootCause string, recommendation string) Anomaly {
	enriched := a
	enriched.InvolvedEvents = cloneStrings(a.InvolvedEvents)
	enriched.RootCause = &rootCause
	enriched.Recommendation = &recommendation
	return enriched
}

func (a Anomaly) IsEnriched() bool {
	return a.RootCause != nil && a.Recommendation != nil
}

func MarshalAnomalies(anomalies []Anomaly) ([]byte, error) {
	return msgpack.Marshal(&anomalies)
}

func UnmarshalAnomalies(b []byte) ([]Anomaly, error) {
	var anomalies []Anomaly
	if err := msgpack.Unmarshal(b, &anomalies); err != nil {
		return nil, err
	}
	return anomalies, nil
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
