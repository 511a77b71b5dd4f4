// Package testutil provides testing utilities for the Search Console client.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"

	"github.com/Sternrassler/gsc-client/pkg/searchanalytics"
)

// queryRequest mirrors the searchAnalytics/query wire request.
type queryRequest struct {
	StartDate  string   `json:"startDate"`
	EndDate    string   `json:"endDate"`
	Dimensions []string `json:"dimensions"`
	SearchType string   `json:"searchType"`
	RowLimit   int64    `json:"rowLimit"`
	StartRow   int64    `json:"startRow"`
}

// queryResponse mirrors the searchAnalytics/query wire response.
type queryResponse struct {
	Rows                    []searchanalytics.Row `json:"rows,omitempty"`
	ResponseAggregationType string                `json:"responseAggregationType,omitempty"`
}

// MockSearchConsole is a configurable mock of the Search Console REST API
// for testing: the query endpoint serves offset-based pages from a fixed
// per-property row set, and failures can be injected per endpoint.
type MockSearchConsole struct {
	server *httptest.Server
	mu     sync.RWMutex

	rows  map[string][]searchanalytics.Row
	sites []searchanalytics.Site

	queryFailStatus    int
	queryFailRemaining int

	// Tracking
	RequestCount int
	QueryCount   int
	LastQuery    queryRequest
}

// NewMockSearchConsole creates and starts a mock server.
func NewMockSearchConsole() *MockSearchConsole {
	mock := &MockSearchConsole{
		rows: make(map[string][]searchanalytics.Row),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.mu.Unlock()

		switch {
		case strings.HasSuffix(r.URL.Path, "/searchAnalytics/query"):
			mock.handleQuery(w, r)
		case strings.HasSuffix(r.URL.Path, "/webmasters/v3/sites"):
			mock.handleSites(w)
		case strings.HasSuffix(r.URL.Path, "/urlInspection/index:inspect"):
			mock.handleInspect(w, r)
		default:
			http.NotFound(w, r)
		}
	}))

	return mock
}

// URL returns the mock server base URL (suitable as a client endpoint
// override).
func (m *MockSearchConsole) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockSearchConsole) Close() {
	m.server.Close()
}

// Reset clears tracking counters and injected failures.
func (m *MockSearchConsole) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.QueryCount = 0
	m.LastQuery = queryRequest{}
	m.queryFailRemaining = 0
}

// SetRows fixes the full result set served for a property. Pages are cut
// from it by startRow/rowLimit on each query.
func (m *MockSearchConsole) SetRows(property string, rows []searchanalytics.Row) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[property] = rows
}

// SetSites fixes the site listing response.
func (m *MockSearchConsole) SetSites(sites []searchanalytics.Site) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sites = sites
}

// FailQueries makes the next n query requests fail with the given status.
func (m *MockSearchConsole) FailQueries(status, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryFailStatus = status
	m.queryFailRemaining = n
}

// GetQueryCount returns the number of query requests served.
func (m *MockSearchConsole) GetQueryCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.QueryCount
}

// GetLastQuery returns the body of the most recent query request.
func (m *MockSearchConsole) GetLastQuery() (startRow, rowLimit int64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastQuery.StartRow, m.LastQuery.RowLimit
}

func (m *MockSearchConsole) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	m.mu.Lock()
	m.QueryCount++
	m.LastQuery = req
	if m.queryFailRemaining > 0 {
		m.queryFailRemaining--
		status := m.queryFailStatus
		m.mu.Unlock()
		writeError(w, status, "injected failure")
		return
	}
	// EscapedPath keeps %2F intact so URL-prefix properties survive.
	property := extractProperty(r.URL.EscapedPath())
	all := m.rows[property]
	m.mu.Unlock()

	start := req.StartRow
	if start < 0 {
		start = 0
	}
	limit := req.RowLimit
	if limit <= 0 {
		limit = int64(searchanalytics.MaxPageSize)
	}

	var page []searchanalytics.Row
	if start < int64(len(all)) {
		end := start + limit
		if end > int64(len(all)) {
			end = int64(len(all))
		}
		page = all[start:end]
	}

	writeJSON(w, queryResponse{
		Rows:                    page,
		ResponseAggregationType: "byProperty",
	})
}

func (m *MockSearchConsole) handleSites(w http.ResponseWriter) {
	m.mu.RLock()
	sites := m.sites
	m.mu.RUnlock()

	entries := make([]map[string]string, 0, len(sites))
	for _, s := range sites {
		entries = append(entries, map[string]string{
			"siteUrl":         s.SiteURL,
			"permissionLevel": s.PermissionLevel,
		})
	}
	writeJSON(w, map[string]any{"siteEntry": entries})
}

func (m *MockSearchConsole) handleInspect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		InspectionURL string `json:"inspectionUrl"`
		SiteURL       string `json:"siteUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	writeJSON(w, map[string]any{
		"inspectionResult": map[string]any{
			"inspectionResultLink": "https://search.google.com/search-console/inspect?resource_id=" + url.QueryEscape(req.SiteURL),
			"indexStatusResult": map[string]any{
				"verdict":        "PASS",
				"coverageState":  "Submitted and indexed",
				"robotsTxtState": "ALLOWED",
				"indexingState":  "INDEXING_ALLOWED",
				"pageFetchState": "SUCCESSFUL",
				"lastCrawlTime":  "2024-03-01T12:00:00Z",
			},
		},
	})
}

// extractProperty recovers the property identifier from a query path of
// the form /webmasters/v3/sites/{escaped property}/searchAnalytics/query.
func extractProperty(path string) string {
	path = strings.TrimSuffix(path, "/searchAnalytics/query")
	idx := strings.LastIndex(path, "/sites/")
	if idx < 0 {
		return ""
	}
	escaped := path[idx+len("/sites/"):]
	property, err := url.PathUnescape(escaped)
	if err != nil {
		return escaped
	}
	return property
}

func writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":    status,
			"message": message,
		},
	})
}

// MakeRows generates n sequential page rows for pagination tests.
func MakeRows(n int) []searchanalytics.Row {
	rows := make([]searchanalytics.Row, n)
	for i := range rows {
		rows[i] = searchanalytics.Row{
			Keys:        []string{fmt.Sprintf("/page-%04d", i)},
			Clicks:      float64(n - i),
			Impressions: float64((n - i) * 10),
			CTR:         0.1,
			Position:    float64(i%20) + 1,
		}
	}
	return rows
}
