package normalizer

import (
	"fmt"
	"strings"

	"github.com/pbudner/frictionminer/config"
)

const (
	FieldCaseID    = "case_id"
	FieldActivity  = "activity"
	FieldTimestamp = "timestamp"
	FieldActor     = "actor"
	FieldActorType = "actor_type"
	FieldStatus    = "status"
)

var requiredFields = []string{FieldCaseID, FieldActivity, FieldTimestamp}

// Field lists the accepted header names of one canonical field. The first
// synonym present in the input wins.
type Field struct {
	Canonical string
	Synonyms  []string
}

// SynonymTable is resolved in order, so an earlier field claims a header
// before a later one can.
type SynonymTable []Field

var DefaultSynonyms = SynonymTable{
	{Canonical: FieldCaseID, Synonyms: []string{"case_id", "case", "trace_id", "order_id", "id"}},
	{Canonical: FieldActivity, Synonyms: []string{"activity", "event", "task", "status", "step"}},
	{Canonical: FieldTimestamp, Synonyms: []string{"timestamp", "time", "date", "created_at", "ts"}},
	{Canonical: FieldActor, Synonyms: []string{"actor", "resource", "user", "agent", "assignee"}},
}

// optional columns that are picked up after the table has been resolved
var optionalFields = SynonymTable{
	{Canonical: FieldActorType, Synonyms: []string{"actor_type", "actortype", "actor type"}},
	{Canonical: FieldStatus, Synonyms: []string{"status"}},
}

func (t SynonymTable) clone() SynonymTable {
	out := make(SynonymTable, len(t))
	for i, f := range t {
		out[i] = Field{Canonical: f.Canonical, Synonyms: append([]string(nil), f.Synonyms...)}
	}
	return out
}

// WithOverrides returns a copy of the table where the synonyms of every
// configured field are replaced. Fields unknown to the table are appended.
func (t SynonymTable) WithOverrides(overrides []config.SynonymConfig) (SynonymTable, error) {
	out := t.clone()
	for _, o := range overrides {
		canonical := canonicalHeader(o.Field)
		if canonical == "" {
			return nil, fmt.Errorf("synonym override without a field name")
		}
		if len(o.Synonyms) == 0 {
			return nil, fmt.Errorf("synonym override for %s has no synonyms", canonical)
		}

		synonyms := make([]string, 0, len(o.Synonyms))
		for _, s := range o.Synonyms {
			synonyms = append(synonyms, canonicalHeader(s))
		}

		replaced := false
		for i := range out {
			if out[i].Canonical == canonical {
				out[i].Synonyms = synonyms
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, Field{Canonical: canonical, Synonyms: synonyms})
		}
	}
	return out, nil
}

// resolve binds canonical fields to canonical headers. A header is bound to
// at most one field.
func (t SynonymTable) resolve(headers map[string]bool) map[string]string {
	bindings := make(map[string]string)
	claimed := make(map[string]bool)
	for _, table := range []SynonymTable{t, optionalFields} {
		for _, field := range table {
			if _, ok := bindings[field.Canonical]; ok {
				continue
			}
			for _, synonym := range field.Synonyms {
				if headers[synonym] && !claimed[synonym] {
					bindings[field.Canonical] = synonym
					claimed[synonym] = true
					break
				}
			}
		}
	}
	return bindings
}

func canonicalHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}
