package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pbudner/frictionminer/config"
	"github.com/pbudner/frictionminer/pipeline"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

const eventLog = `case,activity,timestamp
1,Check,2023-01-01 08:00:00
1,Check,2023-01-01 08:01:00
1,Check,2023-01-01 08:02:00
`

func newServer(t *testing.T) *echo.Echo {
	p, err := pipeline.NewFromConfig(config.Default())
	require.NoError(t, err)
	e := echo.New()
	RegisterApiHandlers(e.Group("/api"), "1.0.0", "abcdef123456", p)
	return e
}

func do(e *echo.Echo, method, target, contentType, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestIndex(t *testing.T) {
	rec := do(newServer(t), http.MethodGet, "/api/v1/", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "1.0.0", body["version"])
	require.Equal(t, "abcdef", body["build"])
}

func TestDetectors(t *testing.T) {
	rec := do(newServer(t), http.MethodGet, "/api/v1/detectors", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"active":["time_gap","loop","human_dependency"]`)
}

func TestAnalyze(t *testing.T) {
	rec := do(newServer(t), http.MethodPost, "/api/v1/analyze?name=log.csv", "text/csv", eventLog)
	require.Equal(t, http.StatusOK, rec.Code)

	var summary pipeline.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	require.Equal(t, "log.csv", summary.Source)
	require.Equal(t, 1, summary.Cases)
	require.Equal(t, 3, summary.Events)
	require.Len(t, summary.Anomalies, 1)
	require.Equal(t, "LOOP_1_Check", summary.Anomalies[0].ID)
	require.NotNil(t, summary.Anomalies[0].RootCause)
	require.NotEmpty(t, summary.RunID)
}

func TestAnalyzeJson(t *testing.T) {
	body := `[{"case":"1","activity":"a","timestamp":"2023-01-01T08:00:00Z"},{"case":"1","activity":"b","timestamp":"2023-01-01T09:00:00Z"}]`
	rec := do(newServer(t), http.MethodPost, "/api/v1/analyze", echo.MIMEApplicationJSON, body)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"anomalies":[]`)
}

func TestAnalyzeMsgpack(t *testing.T) {
	rec := do(newServer(t), http.MethodPost, "/api/v1/analyze?format=csv", "", eventLog, echo.HeaderAccept, MIMEApplicationMsgpack)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, MIMEApplicationMsgpack, rec.Header().Get(echo.HeaderContentType))

	var summary pipeline.Summary
	require.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &summary))
	require.Len(t, summary.Anomalies, 1)
}

func TestAnalyzeErrors(t *testing.T) {
	e := newServer(t)

	rec := do(e, http.MethodPost, "/api/v1/analyze", "text/csv", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodPost, "/api/v1/analyze", "text/csv", "foo,bar\n1,2\n")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), "case_id")

	rec = do(e, http.MethodPost, "/api/v1/analyze?format=parquet", "", eventLog)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
