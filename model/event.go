package model

import (
	"strings"
	"time"
)

type ActorType string

const (
	ActorHuman  ActorType = "HUMAN"
	ActorSystem ActorType = "SYSTEM"
)

// DefaultStatus is the lifecycle tag of an event without an explicit status.
const DefaultStatus = "complete"

// ParseActorType maps a raw actor-type marker to an ActorType. Only "human"
// (any case) yields ActorHuman, everything else is a system actor.
func ParseActorType(raw string) ActorType {
	if strings.EqualFold(strings.TrimSpace(raw), "human") {
		return ActorHuman
	}
	return ActorSystem
}

// Event is one workflow step. Events are values and must not be modified
// once they are part of a Trace.
type Event struct {
	EventID   string            `json:"event_id" msgpack:"event_id"`
	CaseID    string            `json:"case_id" msgpack:"case_id"`
	Activity  string            `json:"activity" msgpack:"activity"`
	Timestamp time.Time         `json:"timestamp" msgpack:"timestamp"`
	Actor     string            `json:"actor,omitempty" msgpack:"actor,omitempty"`
	ActorType ActorType         `json:"actor_type" msgpack:"actor_type"`
	Status    string            `json:"status" msgpack:"status"`
	Metadata  map[string]string `json:"metadata" msgpack:"metadata"`
}

type EventOption func(*Event)

func WithActor(actor string, actorType ActorType) EventOption {
	return func(e *Event) {
		e.Actor = actor
		e.ActorType = actorType
	}
}

func WithStatus(status string) EventOption {
	return func(e *Event) {
		if status != "" {
			e.Status = status
		}
	}
}

func WithMetadata(metadata map[string]string) EventOption {
	return func(e *Event) {
		for k, v := range metadata {
			e.Metadata[k] = v
		}
	}
}

func NewEvent(eventID string, caseID string, activity string, timestamp time.Time, opts ...EventOption) Event {
	evt := Event{
		EventID:   eventID,
		CaseID:    caseID,
		Activity:  activity,
		Timestamp: timestamp.UTC(),
		ActorType: ActorSystem,
		Status:    DefaultStatus,
		Metadata:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(&evt)
	}
	if evt.ActorType == "" {
		evt.ActorType = ActorSystem
	}
	return evt
}

func (e Event) IsHuman() bool {
	return e.ActorType == ActorHuman
}
