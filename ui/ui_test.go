package ui

import (
	"testing"
	"time"

	"github.com/pbudner/frictionminer/model"
	"github.com/stretchr/testify/require"
)

func sampleTrace(t *testing.T) model.Trace {
	t0 := time.Date(2023, 1, 1, 8, 0, 0, 0, time.UTC)
	trace, err := model.NewTrace("42", []model.Event{
		model.NewEvent("42_0", "42", "Create Order", t0),
		model.NewEvent("42_1", "42", "Approve", t0.Add(90*time.Second), model.WithActor("alice", model.ActorHuman)),
	}, nil)
	require.NoError(t, err)
	return trace
}

func TestTimeline(t *testing.T) {
	out := Timeline(sampleTrace(t))
	require.Contains(t, out, "Case 42")
	require.Contains(t, out, "2 events, 90s total")
	require.Contains(t, out, "Create Order")
	require.Contains(t, out, "alice")
	require.Contains(t, out, "HUMAN")
	require.Contains(t, out, "90s")
}

func TestExplain(t *testing.T) {
	trace := sampleTrace(t)
	out := Explain(trace, nil)
	require.Contains(t, out, "No friction detected")

	a := model.NewAnomaly("HUMAN_DEP_42", "42", model.HumanDependency, "Humans are slow", model.SeverityMedium, nil).
		WithEnrichment("Manual step", "Automate")
	out = Explain(trace, []model.Anomaly{a})
	require.NotContains(t, out, "No friction detected")
	require.Contains(t, out, "HUMAN_DEPENDENCY")
	require.Contains(t, out, "Humans are slow")
	require.Contains(t, out, "Automate")
}
