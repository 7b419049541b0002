// Package http provides the HTTP API for deskd.
package http

// QueryRequest is the request body for POST /api/v1/query and
// POST /api/v1/route.
type QueryRequest struct {
	Query string `json:"query"`
}

// QueryResponse is the response body for POST /api/v1/query.
//
// Departments holds the lowercase department keys the query was executed
// against, after broadcast fallback was applied. Fallback reports whether
// that fallback happened.
type QueryResponse struct {
	Query       string   `json:"query"`
	Departments []string `json:"departments"`
	Fallback    bool     `json:"fallback"`
	Answer      string   `json:"answer"`
}

// RouteResponse is the response body for POST /api/v1/route.
type RouteResponse struct {
	Query       string   `json:"query"`
	Departments []string `json:"departments"`
	Fallback    bool     `json:"fallback"`
}

// HealthResponse is the response body for GET /health.
//
// KnowledgeEntries is -1 when the knowledge base count is unavailable.
type HealthResponse struct {
	Status           string `json:"status"`
	Service          string `json:"service"`
	Version          string `json:"version,omitempty"`
	KnowledgeEntries int    `json:"knowledge_entries"`
}
