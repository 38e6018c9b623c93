package normalizer

import (
	"testing"
	"time"

	"github.com/pbudner/frictionminer/config"
	"github.com/pbudner/frictionminer/model"
	"github.com/pbudner/frictionminer/parsers"
	"github.com/pbudner/frictionminer/parsers/utils"
	"github.com/stretchr/testify/require"
)

func sampleRecords() []parsers.Record {
	return []parsers.Record{
		{"Case": "B", "Activity": "Create", "Timestamp": "2023-01-01 10:00:00", "Resource": "system"},
		{"Case": "A", "Activity": "Approve", "Timestamp": "2023-01-01 12:00:00", "Resource": "alice", "Actor_Type": "Human"},
		{"Case": "A", "Activity": "Create", "Timestamp": "2023-01-01 10:00:00", "Resource": "system", "Priority": "high"},
		{"Case": "B", "Activity": "Ship", "Timestamp": "2023-01-01 11:00:00"},
		{"Case": "A", "Activity": "Ship", "Timestamp": "2023-01-01 12:00:00"},
	}
}

func TestNormalize(t *testing.T) {
	traces, err := New().Normalize(sampleRecords())
	require.NoError(t, err)
	require.Len(t, traces, 2)

	a := traces[0]
	require.Equal(t, "A", a.CaseID())
	require.Equal(t, 3, a.Len())
	require.Equal(t, "A_2", a.EventAt(0).EventID)
	require.Equal(t, "Create", a.EventAt(0).Activity)
	require.Equal(t, "high", a.EventAt(0).Metadata["priority"])
	// equal timestamps keep input order
	require.Equal(t, "A_1", a.EventAt(1).EventID)
	require.Equal(t, "A_4", a.EventAt(2).EventID)
	require.Equal(t, model.ActorHuman, a.EventAt(1).ActorType)
	require.Equal(t, "alice", a.EventAt(1).Actor)
	require.Equal(t, model.ActorSystem, a.EventAt(0).ActorType)
	require.Equal(t, model.DefaultStatus, a.EventAt(0).Status)
	require.Equal(t, float64(7200), a.DurationSeconds())

	b := traces[1]
	require.Equal(t, "B", b.CaseID())
	require.Equal(t, "", b.EventAt(1).Actor)
	require.Equal(t, time.Date(2023, 1, 1, 10, 0, 0, 0, time.UTC), b.StartTime())
}

func TestNormalizeTraceInvariants(t *testing.T) {
	traces, err := New().Normalize(sampleRecords())
	require.NoError(t, err)
	for _, trace := range traces {
		for i := 1; i < trace.Len(); i++ {
			require.False(t, trace.EventAt(i).Timestamp.Before(trace.EventAt(i-1).Timestamp))
		}
		require.GreaterOrEqual(t, trace.DurationSeconds(), 0.0)
		require.Equal(t, trace.EndTime().Sub(trace.StartTime()).Seconds(), trace.DurationSeconds())
	}
}

func TestNormalizeIsDeterministic(t *testing.T) {
	n := New()
	first, err := n.Normalize(sampleRecords())
	require.NoError(t, err)
	second, err := n.Normalize(sampleRecords())
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestNormalizeEmpty(t *testing.T) {
	traces, err := New().Normalize(nil)
	require.NoError(t, err)
	require.NotNil(t, traces)
	require.Empty(t, traces)
}

func TestNormalizeMissingColumns(t *testing.T) {
	_, err := New().Normalize([]parsers.Record{{"order": "1", "step": "x"}})
	var schemaErr *SchemaValidationError
	require.ErrorAs(t, err, &schemaErr)
	require.ErrorIs(t, err, ErrMissingColumns)
	require.Equal(t, []string{FieldCaseID, FieldTimestamp}, schemaErr.Missing)
	require.Equal(t, []string{"order", "step"}, schemaErr.Available)
	require.Equal(t, -1, schemaErr.Row)
}

func TestNormalizeInvalidTimestampFailsWholeBatch(t *testing.T) {
	records := []parsers.Record{
		{"case_id": "A", "activity": "x", "timestamp": "2023-01-01"},
		{"case_id": "A", "activity": "y", "timestamp": "not a date"},
	}
	_, err := New().Normalize(records)
	var schemaErr *SchemaValidationError
	require.ErrorAs(t, err, &schemaErr)
	require.ErrorIs(t, err, ErrInvalidTimestamp)
	require.ErrorIs(t, err, utils.ErrUnparsableTimestamp)
	require.Equal(t, 1, schemaErr.Row)
	require.Equal(t, "not a date", schemaErr.Value)

	records[1]["timestamp"] = nil
	_, err = New().Normalize(records)
	require.ErrorIs(t, err, utils.ErrEmptyTimestamp)
}

func TestNormalizeMissingCaseID(t *testing.T) {
	records := []parsers.Record{
		{"case_id": "", "activity": "x", "timestamp": "2023-01-01"},
	}
	_, err := New().Normalize(records)
	require.ErrorIs(t, err, ErrMissingValue)
}

func TestNormalizeHeaderIsClaimedOnce(t *testing.T) {
	records := []parsers.Record{
		{"id": "1", "status": "open", "date": "2023-01-01", "activity": "Start"},
		{"id": "1", "status": "closed", "date": "2023-01-02", "activity": "End"},
	}
	traces, err := New().Normalize(records)
	require.NoError(t, err)
	require.Equal(t, "Start", traces[0].EventAt(0).Activity)
	require.Equal(t, "open", traces[0].EventAt(0).Status)

	// status becomes the activity and can not double as the status column
	records = []parsers.Record{{"id": "1", "status": "open", "date": "2023-01-01"}}
	traces, err = New().Normalize(records)
	require.NoError(t, err)
	require.Equal(t, "open", traces[0].EventAt(0).Activity)
	require.Equal(t, model.DefaultStatus, traces[0].EventAt(0).Status)
}

func TestNormalizeNumericValues(t *testing.T) {
	records := []parsers.Record{
		{"order_id": float64(1001), "task": "Pay", "ts": float64(1672567200)},
		{"order_id": float64(1001), "task": "Ship", "ts": float64(1672570800)},
	}
	traces, err := New().Normalize(records)
	require.NoError(t, err)
	require.Equal(t, "1001", traces[0].CaseID())
	require.Equal(t, "1001_0", traces[0].EventAt(0).EventID)
	require.Equal(t, float64(3600), traces[0].DurationSeconds())
}

func TestSwappableSynonymTable(t *testing.T) {
	table := SynonymTable{
		{Canonical: FieldCaseID, Synonyms: []string{"vorgang"}},
		{Canonical: FieldActivity, Synonyms: []string{"schritt"}},
		{Canonical: FieldTimestamp, Synonyms: []string{"zeit"}},
	}
	records := []parsers.Record{{"Vorgang": "X", "Schritt": "Anlage", "Zeit": "2023-01-01"}}
	traces, err := New(WithSynonyms(table)).Normalize(records)
	require.NoError(t, err)
	require.Equal(t, "X", traces[0].CaseID())

	_, err = New().Normalize(records)
	require.ErrorIs(t, err, ErrMissingColumns)
}

func TestNewFromConfig(t *testing.T) {
	n, err := NewFromConfig(config.NormalizerConfig{
		TimestampFormat:    "02.01.2006 15:04",
		TimestampTzIanakey: "Europe/Berlin",
		Synonyms:           []config.SynonymConfig{{Field: "Case_ID", Synonyms: []string{" Vorgang "}}},
	})
	require.NoError(t, err)

	traces, err := n.Normalize([]parsers.Record{{"vorgang": "X", "activity": "a", "time": "01.07.2023 12:00"}})
	require.NoError(t, err)
	require.Equal(t, time.Date(2023, 7, 1, 10, 0, 0, 0, time.UTC), traces[0].StartTime())

	_, err = NewFromConfig(config.NormalizerConfig{TimestampTzIanakey: "Mars/Olympus"})
	require.Error(t, err)

	_, err = NewFromConfig(config.NormalizerConfig{Synonyms: []config.SynonymConfig{{Field: "actor"}}})
	require.Error(t, err)
}

func TestNormalizeKeepsLargeJsonCaseIds(t *testing.T) {
	input := `[
		{"order_id": 9007199254740993, "activity": "A", "timestamp": "2023-01-01T10:00:00Z"},
		{"order_id": 9007199254740992, "activity": "B", "timestamp": "2023-01-01T11:00:00Z"}
	]`
	batch, err := parsers.Decode("orders.json", parsers.FormatJSON, []byte(input), parsers.Config{})
	require.NoError(t, err)

	traces, err := New().Normalize(batch.Records)
	require.NoError(t, err)
	require.Len(t, traces, 2)
	require.Equal(t, "9007199254740992", traces[0].CaseID())
	require.Equal(t, "B", traces[0].EventAt(0).Activity)
	require.Equal(t, "9007199254740993", traces[1].CaseID())
	require.Equal(t, "A", traces[1].EventAt(0).Activity)
	require.Equal(t, "9007199254740993_0", traces[1].EventAt(0).EventID)
}
