package integration

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/deskd/internal/department"
	deskdhttp "github.com/fyrsmithlabs/deskd/internal/http"
	"github.com/fyrsmithlabs/deskd/internal/ingest"
	"github.com/fyrsmithlabs/deskd/internal/knowledge"
	"github.com/fyrsmithlabs/deskd/internal/pipeline"
)

// employeeHandbook is a minimal numbered handbook whose sections tag
// deterministically: leave wording lands in HR, invoice wording in Finance,
// and the support desk section in Support. Engineering and Sales stay empty
// so the broadcast path exercises the unavailable sentinel.
const employeeHandbook = `COMPANY POLICY HANDBOOK

1. Leave Policy
Employees accrue two days of paid leave per month. Unused leave carries over up to ten days into the next calendar year.

2. Invoice Terms
Invoices are payable within 30 days of issue. Late payments attract a 2% monthly surcharge on the outstanding balance.

3. Password Resets
Laptop and VPN password resets are handled by the support desk within one business day of a ticket being raised.`

// TestE2E_HelpDeskWorkflow validates the complete employee help desk flow:
// 1. Ingest a policy handbook into the knowledge store
// 2. Ask a question that routes to a single department
// 3. Ask a question that spans two departments and merges their answers
// 4. Ask an unroutable question that broadcasts to every department
func TestE2E_HelpDeskWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping E2E test in short mode")
	}

	ctx := context.Background()

	store, cleanup := getTestStoreProvider(t)
	defer cleanup()

	model := &countingModel{inner: scriptedModel{}}
	ts := newTestServer(t, store, model)

	// ═══════════════════════════════════════════════════════════════
	// Phase 1: Ingest the policy handbook
	// ═══════════════════════════════════════════════════════════════

	report := ingestHandbook(t, store)
	assert.Equal(t, 3, report.Sections)
	assert.Equal(t, 1, report.PerDepartment[department.HR])
	assert.Equal(t, 1, report.PerDepartment[department.Finance])
	assert.Equal(t, 1, report.PerDepartment[department.Support])

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	t.Logf("✅ Phase 1: Indexed %d handbook sections", report.Sections)

	// ═══════════════════════════════════════════════════════════════
	// Phase 2: Single-department question answers from its policy
	// ═══════════════════════════════════════════════════════════════

	resp := postQuery(t, ts.URL, "Why was my invoice rejected?")
	assert.Equal(t, []string{"finance"}, resp.Departments)
	assert.False(t, resp.Fallback)
	assert.Contains(t, resp.Answer, "payable within 30 days")

	// Route plus one department answer. A single answer skips the merge.
	assert.Equal(t, 2, model.count())

	t.Logf("✅ Phase 2: Finance answered alone - %q", resp.Departments)

	// ═══════════════════════════════════════════════════════════════
	// Phase 3: Two-department question merges answers
	// ═══════════════════════════════════════════════════════════════

	calls := model.count()
	resp = postQuery(t, ts.URL, "How do I reset my laptop password?")
	assert.Equal(t, []string{"support", "engineering"}, resp.Departments)
	assert.False(t, resp.Fallback)
	assert.Contains(t, resp.Answer, "Combined:")
	assert.Contains(t, resp.Answer, "support desk")

	// Engineering has no handbook entries, so its answer is the sentinel
	// and no model call is spent on it: route + support + merge.
	assert.Contains(t, resp.Answer, pipeline.UnavailableAnswer)
	assert.Equal(t, 3, model.count()-calls)

	t.Logf("✅ Phase 3: Merged %d department answers", len(resp.Departments))

	// ═══════════════════════════════════════════════════════════════
	// Phase 4: Unroutable question broadcasts to every department
	// ═══════════════════════════════════════════════════════════════

	calls = model.count()
	resp = postQuery(t, ts.URL, "What is the name of the office dog?")
	assert.True(t, resp.Fallback)
	assert.Equal(t, department.Keys(department.All()), resp.Departments)
	assert.Contains(t, resp.Answer, "Combined:")
	assert.Contains(t, resp.Answer, "paid leave")

	// Route + HR + Finance + Support + merge. Engineering and Sales
	// answer with the sentinel without reaching the model.
	assert.Equal(t, 5, model.count()-calls)

	t.Logf("✅ Phase 4: Broadcast consulted all %d departments", len(resp.Departments))

	t.Logf("✅ E2E Workflow Complete: Ingest → Route → Answer → Merge → Fallback")
}

// TestE2E_OperatorSurface validates the operator-facing endpoints:
// 1. Health before any ingest reports an empty knowledge base
// 2. Health after ingest reports the entry count
// 3. Route-only probes spend exactly one model call
// 4. Bad requests are rejected without reaching the pipeline
func TestE2E_OperatorSurface(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping E2E test in short mode")
	}

	store, cleanup := createTestKnowledgeStore(t)
	defer cleanup()

	model := &countingModel{inner: scriptedModel{}}
	ts := newTestServer(t, store, model)

	// ═══════════════════════════════════════════════════════════════
	// Phase 1: Health before ingest
	// ═══════════════════════════════════════════════════════════════

	health := getHealth(t, ts.URL)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "deskd", health.Service)
	assert.Equal(t, "e2e", health.Version)
	assert.Equal(t, 0, health.KnowledgeEntries)

	t.Logf("✅ Phase 1: Healthy with empty knowledge base")

	// ═══════════════════════════════════════════════════════════════
	// Phase 2: Health reflects the ingested handbook
	// ═══════════════════════════════════════════════════════════════

	report := ingestHandbook(t, store)
	health = getHealth(t, ts.URL)
	assert.Equal(t, report.Sections, health.KnowledgeEntries)

	t.Logf("✅ Phase 2: Health reports %d knowledge entries", health.KnowledgeEntries)

	// ═══════════════════════════════════════════════════════════════
	// Phase 3: Route-only probes spend one model call each
	// ═══════════════════════════════════════════════════════════════

	body, status := postJSON(t, ts.URL+"/api/v1/route", `{"query": "How many leave days do I get?"}`)
	require.Equal(t, http.StatusOK, status)

	var route deskdhttp.RouteResponse
	require.NoError(t, json.Unmarshal(body, &route))
	assert.Equal(t, []string{"hr"}, route.Departments)
	assert.False(t, route.Fallback)
	assert.NotContains(t, string(body), `"answer"`)
	assert.Equal(t, 1, model.count())

	// An ambiguous probe reports the broadcast set without executing it.
	body, status = postJSON(t, ts.URL+"/api/v1/route", `{"query": "Where is the cafeteria menu?"}`)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &route))
	assert.Equal(t, department.Keys(department.All()), route.Departments)
	assert.True(t, route.Fallback)
	assert.Equal(t, 2, model.count())

	t.Logf("✅ Phase 3: Route-only stayed at %d model calls", model.count())

	// ═══════════════════════════════════════════════════════════════
	// Phase 4: Bad requests never reach the pipeline
	// ═══════════════════════════════════════════════════════════════

	body, status = postJSON(t, ts.URL+"/api/v1/query", `{"query": ""}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(body), "Query cannot be empty.")

	body, status = postJSON(t, ts.URL+"/api/v1/query", `{invalid`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(body), "invalid request body")

	assert.Equal(t, 2, model.count())

	t.Logf("✅ Phase 4: Rejected bad requests with no model calls")
}

// newTestServer wires the full pipeline over the given store and model,
// served the same way cmd/deskd serves it.
func newTestServer(t *testing.T, store knowledge.Store, model pipeline.LanguageModel) *httptest.Server {
	t.Helper()
	logger := zap.NewNop()

	router, err := pipeline.NewRouter(model, logger)
	require.NoError(t, err)

	executor, err := pipeline.NewExecutor(store, model, pipeline.ExecutorConfig{}, logger)
	require.NoError(t, err)

	merger, err := pipeline.NewMerger(model, logger)
	require.NoError(t, err)

	svc, err := pipeline.NewService(router, executor, merger, logger)
	require.NoError(t, err)

	server, err := deskdhttp.NewServer(svc, store, nil, logger, &deskdhttp.Config{Version: "e2e"})
	require.NoError(t, err)

	ts := httptest.NewServer(server.Echo())
	t.Cleanup(ts.Close)
	return ts
}

// ingestHandbook writes the handbook to a temp file and indexes it.
func ingestHandbook(t *testing.T, store knowledge.Store) *ingest.Report {
	t.Helper()

	source := filepath.Join(t.TempDir(), "handbook.txt")
	require.NoError(t, os.WriteFile(source, []byte(employeeHandbook), 0o644))

	builder, err := ingest.NewBuilder(store, nil, zap.NewNop())
	require.NoError(t, err)

	report, err := builder.Build(context.Background(), source)
	require.NoError(t, err)
	return report
}

// postQuery sends a question to POST /api/v1/query and decodes the response.
func postQuery(t *testing.T, baseURL, query string) deskdhttp.QueryResponse {
	t.Helper()

	payload, err := json.Marshal(map[string]string{"query": query})
	require.NoError(t, err)

	body, status := postJSON(t, baseURL+"/api/v1/query", string(payload))
	require.Equal(t, http.StatusOK, status, "query failed: %s", body)

	var resp deskdhttp.QueryResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp
}

// postJSON posts a raw JSON payload and returns the response body and status.
func postJSON(t *testing.T, url, payload string) ([]byte, int) {
	t.Helper()

	resp, err := http.Post(url, "application/json", strings.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return body, resp.StatusCode
}

// getHealth fetches GET /health and decodes the response.
func getHealth(t *testing.T, baseURL string) deskdhttp.HealthResponse {
	t.Helper()

	resp, err := http.Get(baseURL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var health deskdhttp.HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	return health
}
