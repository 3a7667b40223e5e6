package handlers

import (
	"io"
	"net/http"
	"strings"
	"testing"

	testutil "github.com/agentboard/api/internal/testing"
)

func TestRouter_Health(t *testing.T) {
	tdb := testutil.SetupTestDB(t)
	defer tdb.CleanupTestDB(t)

	client := testutil.NewTestClient(t, tdb.Store)
	defer client.Server.Close()

	resp, err := client.Get("/health")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	testutil.AssertStatus(t, resp, http.StatusOK)

	var status map[string]interface{}
	if err := testutil.ParseResponse(t, resp, &status); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if status["status"] != "healthy" {
		t.Errorf("Expected healthy, got %v", status)
	}
}

func TestRouter_Metrics(t *testing.T) {
	client := newAuthedClient(t)

	// Produce at least one labelled request first.
	resp, err := client.Get("/api/v1/agents")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	resp.Body.Close()

	resp, err = client.Get("/metrics")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()
	testutil.AssertStatus(t, resp, http.StatusOK)

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "agentboard_http_requests_total") {
		t.Error("Expected request counter in metrics output")
	}
}

func TestRouter_NotFoundAndMethodNotAllowed(t *testing.T) {
	client := newAuthedClient(t)

	tests := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
		expectedCode   string
	}{
		{"unknown route", http.MethodGet, "/api/v1/nothing-here", http.StatusNotFound, CodeNotFound},
		{"unknown root route", http.MethodGet, "/nothing-here", http.StatusNotFound, CodeNotFound},
		{"wrong method on authenticated route", http.MethodDelete, "/api/v1/executions", http.StatusMethodNotAllowed, CodeMethodNotAllowed},
		{"wrong method on agent", http.MethodPost, "/api/v1/agents/7d1f2a4e-9b0c-4c59-8f3e-0a4b5c6d7e8f", http.StatusMethodNotAllowed, CodeMethodNotAllowed},
		{"wrong method on public route", http.MethodGet, "/api/v1/auth/login", http.StatusMethodNotAllowed, CodeMethodNotAllowed},
		{"wrong method on root route", http.MethodPost, "/health", http.StatusMethodNotAllowed, CodeMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := client.Do(tt.method, tt.path, nil)
			if err != nil {
				t.Fatalf("Request failed: %v", err)
			}
			assertErrorCode(t, resp, tt.expectedStatus, tt.expectedCode)
		})
	}
}
