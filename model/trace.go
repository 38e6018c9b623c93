package model

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrEmptyTrace is returned when a trace would contain no events
	ErrEmptyTrace = errors.New("a trace needs at least one event")
	// ErrUnorderedEvents is returned when events are not sorted by timestamp
	ErrUnorderedEvents = errors.New("trace events are not in non-decreasing timestamp order")
)

// Trace is the time-ordered execution of a single case. The computed fields
// are populated once by NewTrace and never recomputed.
type Trace struct {
	caseID          string
	events          []Event
	startTime       time.Time
	endTime         time.Time
	durationSeconds float64
	attributes      map[string]string
}

// NewTrace validates that events are in non-decreasing timestamp order and
// derives start, end and duration from the first and last event.
func NewTrace(caseID string, events []Event, attributes map[string]string) (Trace, error) {
	if len(events) == 0 {
		return Trace{}, fmt.Errorf("case %s: %w", caseID, ErrEmptyTrace)
	}

	for i := 1; i < len(events); i++ {
		if events[i].Timestamp.Before(events[i-1].Timestamp) {
			return Trace{}, fmt.Errorf("case %s, event %s: %w", caseID, events[i].EventID, ErrUnorderedEvents)
		}
	}

	owned := make([]Event, len(events))
	copy(owned, events)

	attrs := make(map[string]string, len(attributes))
	for k, v := range attributes {
		attrs[k] = v
	}

	start := owned[0].Timestamp
	end := owned[len(owned)-1].Timestamp
	return Trace{
		caseID:          caseID,
		events:          owned,
		startTime:       start,
		endTime:         end,
		durationSeconds: end.Sub(start).Seconds(),
		attributes:      attrs,
	}, nil
}

func (t Trace) CaseID() string { return t.caseID }

func (t Trace) StartTime() time.Time { return t.startTime }

func (t Trace) EndTime() time.Time { return t.endTime }

func (t Trace) DurationSeconds() float64 { return t.durationSeconds }

func (t Trace) Len() int { return len(t.events) }

// EventAt returns the i-th event in timestamp order.
func (t Trace) EventAt(i int) Event { return t.events[i] }

// Events returns a copy of the ordered events.
func (t Trace) Events() []Event {
	out := make([]Event, len(t.events))
	copy(out, t.events)
	return out
}

func (t Trace) Attributes() map[string]string {
	out := make(map[string]string, len(t.attributes))
	for k, v := range t.attributes {
		out[k] = v
	}
	return out
}

// GapSeconds returns the time between event i and event i+1.
func (t Trace) GapSeconds(i int) float64 {
	return t.events[i+1].Timestamp.Sub(t.events[i].Timestamp).Seconds()
}
