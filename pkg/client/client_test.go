package client

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/api/googleapi"

	"github.com/Sternrassler/gsc-client/internal/testutil"
	"github.com/Sternrassler/gsc-client/pkg/searchanalytics"
)

// newTestClient creates a client pointed at a fresh mock server.
func newTestClient(t *testing.T) (*Client, *testutil.MockSearchConsole) {
	t.Helper()

	mock := testutil.NewMockSearchConsole()
	t.Cleanup(mock.Close)

	cfg := DefaultConfig("gsc-client-test/1.0.0")
	cfg.Endpoint = mock.URL()
	cfg.QPS = 1000 // keep tests fast
	cfg.Burst = 1000

	c, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c, mock
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		expectError bool
		errorMsg    string
	}{
		{
			name: "valid config with endpoint override",
			config: Config{
				UserAgent: "TestApp/1.0.0",
				Endpoint:  "http://localhost:1",
			},
			expectError: false,
		},
		{
			name: "endpoint override takes precedence over credentials",
			config: Config{
				UserAgent:       "TestApp/1.0.0",
				CredentialsFile: "/does/not/matter/here",
				Endpoint:        "http://localhost:1",
			},
			expectError: false,
		},
		{
			name: "empty user agent",
			config: Config{
				Endpoint: "http://localhost:1",
			},
			expectError: true,
			errorMsg:    "user-agent is required",
		},
		{
			name: "no credentials and no endpoint",
			config: Config{
				UserAgent: "TestApp/1.0.0",
			},
			expectError: true,
			errorMsg:    "credentials are required (or an endpoint override for tests)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(context.Background(), tt.config)

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got nil")
					return
				}
				if tt.errorMsg != "" && err.Error() != tt.errorMsg {
					t.Errorf("Error message = %q, want %q", err.Error(), tt.errorMsg)
				}
			} else {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
					return
				}
				if c == nil {
					t.Error("Client is nil")
				}
			}
		})
	}
}

func TestQueryPage(t *testing.T) {
	c, mock := newTestClient(t)

	property := "sc-domain:example.com"
	mock.SetRows(property, testutil.MakeRows(5))

	rows, err := c.QueryPage(context.Background(), property, searchanalytics.Request{
		StartDate:  "2024-03-01",
		EndDate:    "2024-03-10",
		Dimensions: []string{"page"},
		RowLimit:   2,
		StartRow:   2,
	})
	if err != nil {
		t.Fatalf("QueryPage() error = %v", err)
	}

	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if rows[0].Keys[0] != "/page-0002" {
		t.Errorf("rows[0].Keys[0] = %q, want %q (offset honored)", rows[0].Keys[0], "/page-0002")
	}
	if rows[0].Clicks != 3 {
		t.Errorf("rows[0].Clicks = %v, want 3", rows[0].Clicks)
	}
	if rows[0].CTR != 0.1 {
		t.Errorf("rows[0].CTR = %v, want 0.1", rows[0].CTR)
	}
}

func TestQueryPage_InvalidPropertyFailsBeforeNetwork(t *testing.T) {
	c, mock := newTestClient(t)

	_, err := c.QueryPage(context.Background(), "example.com", searchanalytics.Request{})
	if err == nil {
		t.Fatal("QueryPage() error = nil, want validation error")
	}
	if mock.RequestCount != 0 {
		t.Errorf("RequestCount = %d, want 0", mock.RequestCount)
	}
}

func TestFetchAll_ThroughTransport(t *testing.T) {
	c, mock := newTestClient(t)

	property := "sc-domain:example.com"
	mock.SetRows(property, testutil.MakeRows(250))

	rows, err := searchanalytics.FetchAll(context.Background(), c, property, searchanalytics.Request{
		StartDate:  "2024-03-01",
		EndDate:    "2024-03-10",
		Dimensions: []string{"page"},
	}, searchanalytics.FetchOptions{TargetLimit: 1000, PageSize: 100})
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}

	if len(rows) != 250 {
		t.Errorf("len(rows) = %d, want 250", len(rows))
	}
	if got := mock.GetQueryCount(); got != 3 {
		t.Errorf("query requests = %d, want 3", got)
	}
}

func TestQueryPage_ClientErrorNotRetried(t *testing.T) {
	c, mock := newTestClient(t)

	property := "sc-domain:example.com"
	mock.FailQueries(404, 10)

	_, err := c.QueryPage(context.Background(), property, searchanalytics.Request{})
	if err == nil {
		t.Fatal("QueryPage() error = nil, want error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error %v is not an *APIError", err)
	}
	if apiErr.ErrorClass != ErrorClassClient {
		t.Errorf("ErrorClass = %q, want %q", apiErr.ErrorClass, ErrorClassClient)
	}
	if apiErr.StatusCode != 404 {
		t.Errorf("StatusCode = %d, want 404", apiErr.StatusCode)
	}

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		t.Error("underlying googleapi.Error should be preserved in the chain")
	}

	if got := mock.GetQueryCount(); got != 1 {
		t.Errorf("query requests = %d, want 1 (client errors are not retried)", got)
	}
}

func TestQueryPage_ServerErrorRetried(t *testing.T) {
	c, mock := newTestClient(t)

	property := "sc-domain:example.com"
	mock.SetRows(property, testutil.MakeRows(3))
	mock.FailQueries(500, 1)

	rows, err := c.QueryPage(context.Background(), property, searchanalytics.Request{RowLimit: 100})
	if err != nil {
		t.Fatalf("QueryPage() error = %v, want success after retry", err)
	}
	if len(rows) != 3 {
		t.Errorf("len(rows) = %d, want 3", len(rows))
	}
	if got := mock.GetQueryCount(); got != 2 {
		t.Errorf("query requests = %d, want 2 (one failure, one retry)", got)
	}
}

func TestListSites(t *testing.T) {
	c, mock := newTestClient(t)

	mock.SetSites([]searchanalytics.Site{
		{SiteURL: "https://example.com/", PermissionLevel: "siteOwner"},
		{SiteURL: "sc-domain:example.org", PermissionLevel: "siteFullUser"},
	})

	sites, err := c.ListSites(context.Background())
	if err != nil {
		t.Fatalf("ListSites() error = %v", err)
	}

	if len(sites) != 2 {
		t.Fatalf("len(sites) = %d, want 2", len(sites))
	}
	if sites[0].SiteURL != "https://example.com/" {
		t.Errorf("sites[0].SiteURL = %q", sites[0].SiteURL)
	}
	if sites[1].PermissionLevel != "siteFullUser" {
		t.Errorf("sites[1].PermissionLevel = %q", sites[1].PermissionLevel)
	}
}

func TestInspectURL(t *testing.T) {
	c, _ := newTestClient(t)

	result, err := c.InspectURL(context.Background(), "sc-domain:example.com", "https://example.com/pricing", "")
	if err != nil {
		t.Fatalf("InspectURL() error = %v", err)
	}

	if result.Verdict != "PASS" {
		t.Errorf("Verdict = %q, want PASS", result.Verdict)
	}
	if result.CoverageState == "" {
		t.Error("CoverageState is empty")
	}
}

func TestInspectURL_Validation(t *testing.T) {
	c, mock := newTestClient(t)

	if _, err := c.InspectURL(context.Background(), "not-a-property", "https://example.com/", ""); err == nil {
		t.Error("expected property validation error")
	}
	if _, err := c.InspectURL(context.Background(), "sc-domain:example.com", "", ""); err == nil {
		t.Error("expected inspection url validation error")
	}
	if mock.RequestCount != 0 {
		t.Errorf("RequestCount = %d, want 0", mock.RequestCount)
	}
}
