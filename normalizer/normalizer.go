package normalizer

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pbudner/frictionminer/config"
	"github.com/pbudner/frictionminer/model"
	"github.com/pbudner/frictionminer/parsers"
	"github.com/pbudner/frictionminer/parsers/utils"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

var (
	normalizedEvents = prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: "frictionminer_normalizer",
		Name:      "events_total",
		Help:      "Total number of normalized events.",
	})

	normalizedTraces = prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: "frictionminer_normalizer",
		Name:      "traces_total",
		Help:      "Total number of normalized traces.",
	})

	schemaErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: "frictionminer_normalizer",
		Name:      "schema_errors_total",
		Help:      "Total number of rejected normalization calls.",
	})
)

func init() {
	prometheus.MustRegister(normalizedEvents, normalizedTraces, schemaErrors)
}

// Normalizer turns raw records into time-ordered traces. It holds no state
// between calls.
type Normalizer struct {
	synonyms        SynonymTable
	timestampParser *utils.TimestampParser
	log             *zap.SugaredLogger
}

type Option func(*Normalizer)

func WithSynonyms(table SynonymTable) Option {
	return func(n *Normalizer) {
		n.synonyms = table.clone()
	}
}

func WithTimestampParser(p *utils.TimestampParser) Option {
	return func(n *Normalizer) {
		n.timestampParser = p
	}
}

func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		synonyms: DefaultSynonyms.clone(),
		log:      zap.L().Sugar().With("service", "normalizer"),
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.timestampParser == nil {
		n.timestampParser, _ = utils.NewTimestampParser("", "")
	}
	return n
}

func NewFromConfig(cfg config.NormalizerConfig) (*Normalizer, error) {
	parser, err := utils.NewTimestampParser(cfg.TimestampFormat, cfg.TimestampTzIanakey)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp settings: %w", err)
	}

	table, err := DefaultSynonyms.WithOverrides(cfg.Synonyms)
	if err != nil {
		return nil, err
	}

	return New(WithSynonyms(table), WithTimestampParser(parser)), nil
}

type indexedEvent struct {
	row   int
	event model.Event
}

// Normalize resolves the headers of records, validates every row and groups
// the rows into traces sorted by case id. Any invalid row fails the call.
func (n *Normalizer) Normalize(records []parsers.Record) ([]model.Trace, error) {
	if len(records) == 0 {
		return []model.Trace{}, nil
	}

	rows := make([]map[string]interface{}, len(records))
	headers := make(map[string]bool)
	for i, record := range records {
		rows[i] = canonicalRecord(record)
		for h := range rows[i] {
			headers[h] = true
		}
	}

	bindings := n.synonyms.resolve(headers)
	missing := make([]string, 0)
	for _, field := range requiredFields {
		if _, ok := bindings[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		schemaErrors.Inc()
		return nil, missingColumnsError(missing, sortedKeys(headers))
	}

	claimed := make(map[string]bool, len(bindings))
	for _, h := range bindings {
		claimed[h] = true
	}

	groups := make(map[string][]indexedEvent)
	for i, row := range rows {
		evt, err := n.buildEvent(i, row, bindings, claimed)
		if err != nil {
			schemaErrors.Inc()
			return nil, err
		}
		groups[evt.CaseID] = append(groups[evt.CaseID], indexedEvent{row: i, event: evt})
	}

	caseIDs := make([]string, 0, len(groups))
	for caseID := range groups {
		caseIDs = append(caseIDs, caseID)
	}
	sort.Strings(caseIDs)

	traces := make([]model.Trace, 0, len(caseIDs))
	for _, caseID := range caseIDs {
		group := groups[caseID]
		if len(group) == 0 {
			continue
		}

		sort.SliceStable(group, func(i, j int) bool {
			return group[i].event.Timestamp.Before(group[j].event.Timestamp)
		})

		events := make([]model.Event, len(group))
		for i, ie := range group {
			events[i] = ie.event
		}

		trace, err := model.NewTrace(caseID, events, nil)
		if err != nil {
			return nil, err
		}
		traces = append(traces, trace)
	}

	normalizedEvents.Add(float64(len(rows)))
	normalizedTraces.Add(float64(len(traces)))
	n.log.Debugw("normalized records", "records", len(rows), "traces", len(traces), "bindings", bindings)
	return traces, nil
}

func (n *Normalizer) buildEvent(row int, values map[string]interface{}, bindings map[string]string, claimed map[string]bool) (model.Event, error) {
	caseID := stringify(values[bindings[FieldCaseID]])
	if caseID == "" {
		return model.Event{}, rowError(row, FieldCaseID, "", ErrMissingValue)
	}

	activity := stringify(values[bindings[FieldActivity]])
	if activity == "" {
		return model.Event{}, rowError(row, FieldActivity, "", ErrMissingValue)
	}

	rawTimestamp := values[bindings[FieldTimestamp]]
	ts, err := n.timestampParser.Parse(rawTimestamp)
	if err != nil {
		return model.Event{}, rowError(row, FieldTimestamp, stringify(rawTimestamp), fmt.Errorf("%w: %w", ErrInvalidTimestamp, err))
	}

	opts := make([]model.EventOption, 0, 3)
	actorType := model.ActorSystem
	if h, ok := bindings[FieldActorType]; ok {
		actorType = model.ParseActorType(stringify(values[h]))
	}
	if h, ok := bindings[FieldActor]; ok {
		opts = append(opts, model.WithActor(stringify(values[h]), actorType))
	} else {
		opts = append(opts, model.WithActor("", actorType))
	}
	if h, ok := bindings[FieldStatus]; ok {
		opts = append(opts, model.WithStatus(stringify(values[h])))
	}

	metadata := make(map[string]string)
	for h, v := range values {
		if claimed[h] {
			continue
		}
		if s := stringify(v); s != "" {
			metadata[h] = s
		}
	}
	opts = append(opts, model.WithMetadata(metadata))

	return model.NewEvent(fmt.Sprintf("%s_%d", caseID, row), caseID, activity, ts, opts...), nil
}

// canonicalRecord keys a record by canonical header. When two headers
// collapse to the same name, the first non-empty value in header order wins.
func canonicalRecord(record parsers.Record) map[string]interface{} {
	keys := make([]string, 0, len(record))
	for k := range record {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]interface{}, len(record))
	for _, k := range keys {
		h := canonicalHeader(k)
		if h == "" {
			continue
		}
		if existing, ok := out[h]; ok && stringify(existing) != "" {
			continue
		}
		out[h] = record[k]
	}
	return out
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	case fmt.Stringer:
		return strings.TrimSpace(t.String())
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
