package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pbudner/frictionminer/config"
	"github.com/pbudner/frictionminer/model"
	"github.com/pbudner/frictionminer/pipeline"
	"github.com/stretchr/testify/require"
)

const eventLog = `Case_ID,Activity,Timestamp,Resource,Actor Type
1,Create,2023-01-01 08:00:00,bot,system
1,Check,2023-01-01 08:01:00,bot,system
1,Check,2023-01-01 08:02:00,bot,system
1,Check,2023-01-01 08:03:00,bot,system
2,Create,2023-01-01 09:00:00,bot,system
2,Review,2023-01-01 09:00:10,alice,human
2,Close,2023-01-01 09:01:40,bot,system
`

func writeLog(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "events.csv")
	require.NoError(t, os.WriteFile(path, []byte(eventLog), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	cmd := newRootCmd()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(append([]string{"--log-level=error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestAnalyze(t *testing.T) {
	out, err := execute(t, "analyze", writeLog(t))
	require.NoError(t, err)

	var anomalies []model.Anomaly
	require.NoError(t, json.Unmarshal([]byte(out), &anomalies))
	require.Len(t, anomalies, 2)
	require.Equal(t, "LOOP_1_Check", anomalies[0].ID)
	require.Equal(t, "HUMAN_DEP_2", anomalies[1].ID)
	require.NotNil(t, anomalies[1].Recommendation)
}

func TestAnalyzeToFile(t *testing.T) {
	input := writeLog(t)
	output := filepath.Join(t.TempDir(), "anomalies.msgpack")

	out, err := execute(t, "analyze", input, "--format", "msgpack", "-o", output, "--parallel")
	require.NoError(t, err)
	require.Contains(t, out, "Saved 2 friction points from 2 cases")

	b, err := os.ReadFile(output)
	require.NoError(t, err)
	anomalies, err := model.UnmarshalAnomalies(b)
	require.NoError(t, err)
	require.Len(t, anomalies, 2)
}

func TestAnalyzeWithConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("engine:\n  detectors:\n    - name: loop\n      threshold: 5\n"), 0o600))

	out, err := execute(t, "analyze", writeLog(t), "--config", cfgPath)
	require.NoError(t, err)
	require.Equal(t, "[]\n", out)
}

func TestAnalyzeErrors(t *testing.T) {
	_, err := execute(t, "analyze", filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)

	_, err = execute(t, "analyze", writeLog(t), "--format", "xml")
	require.Error(t, err)

	_, err = execute(t, "analyze", writeLog(t), "--log-level", "loud")
	require.Error(t, err)

	_, err = execute(t, "analyze")
	require.Error(t, err)
}

func TestExplain(t *testing.T) {
	out, err := execute(t, "explain", writeLog(t), "--case-id", "2")
	require.NoError(t, err)
	require.Contains(t, out, "Case 2")
	require.Contains(t, out, "alice")
	require.Contains(t, out, "HUMAN_DEPENDENCY")

	_, err = execute(t, "explain", writeLog(t), "--case-id", "99")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")

	_, err = execute(t, "explain", writeLog(t))
	require.Error(t, err)
}

func TestReport(t *testing.T) {
	output := filepath.Join(t.TempDir(), "report.md")
	out, err := execute(t, "report", writeLog(t), "-o", output)
	require.NoError(t, err)
	require.Contains(t, out, "Report generated")

	b, err := os.ReadFile(output)
	require.NoError(t, err)
	md := string(b)
	require.True(t, strings.HasPrefix(md, "# Business Friction Analysis Report"))
	require.Contains(t, md, "- **Total Cases Analyzed:** 2")
	require.Contains(t, md, "| LOOP | 1 |")
}

func TestServerRoutes(t *testing.T) {
	cfg := config.Default()
	cfg.BaseURL = "/friction"
	p, err := pipeline.NewFromConfig(cfg)
	require.NoError(t, err)
	e := newServer(cfg, p)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/friction/api/v1/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/friction/api/v1/analyze?format=csv", strings.NewReader(eventLog)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "HUMAN_DEP_2")

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "frictionminer_engine_anomalies_total")

	// a second server reuses the registered http metrics
	require.NotNil(t, newServer(cfg, p))
}
