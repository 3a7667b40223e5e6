package testing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/agentboard/api/internal/db"
	"github.com/gorilla/mux"
	"github.com/google/uuid"
)

// TestClient provides HTTP client for testing with authentication
type TestClient struct {
	Server   *httptest.Server
	Store    *db.Store
	Token    string
	UserID   uuid.UUID
	Username string
}

// ServerSetupFunc is a function type for setting up a test server
// This allows handlers package to provide the setup without creating import cycles
type ServerSetupFunc func(*db.Store) *httptest.Server

// DefaultServerSetup is set by handlers package to avoid import cycle
var DefaultServerSetup ServerSetupFunc

// NewTestClient creates a new test HTTP client
func NewTestClient(t *testing.T, store *db.Store) *TestClient {
	t.Helper()

	var server *httptest.Server
	if DefaultServerSetup != nil {
		server = DefaultServerSetup(store)
	} else {
		// Fallback: create minimal server if setup function not provided
		router := mux.NewRouter()
		router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]interface{}{"status": "ok"})
		}).Methods("GET")
		server = httptest.NewServer(router)
	}

	return &TestClient{
		Server: server,
		Store:  store,
	}
}

// Authenticate creates a test user and authenticates
func (tc *TestClient) Authenticate(ctx context.Context, username, password string) error {
	user, err := CreateTestUser(ctx, tc.Store, username, password)
	if err != nil {
		return err
	}

	token, _, err := NewTestIssuer().Issue(user.ID, user.Username)
	if err != nil {
		return err
	}

	tc.Token = token
	tc.UserID = user.ID
	tc.Username = user.Username

	return nil
}

// Do performs an HTTP request. Strings and byte slices are sent as-is, anything
// else is encoded as JSON.
func (tc *TestClient) Do(method, path string, body interface{}) (*http.Response, error) {
	var reqBody io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reqBody = strings.NewReader(b)
	case []byte:
		reqBody = bytes.NewReader(b)
	default:
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, tc.Server.URL+path, reqBody)
	if err != nil {
		return nil, err
	}

	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if tc.Token != "" {
		req.Header.Set("Authorization", "Bearer "+tc.Token)
	}

	return http.DefaultClient.Do(req)
}

// Get performs a GET request
func (tc *TestClient) Get(path string) (*http.Response, error) {
	return tc.Do("GET", path, nil)
}

// Post performs a POST request
func (tc *TestClient) Post(path string, body interface{}) (*http.Response, error) {
	return tc.Do("POST", path, body)
}

// PostForm performs a form-encoded POST request
func (tc *TestClient) PostForm(path string, values url.Values) (*http.Response, error) {
	req, err := http.NewRequest("POST", tc.Server.URL+path, strings.NewReader(values.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return http.DefaultClient.Do(req)
}

// Put performs a PUT request
func (tc *TestClient) Put(path string, body interface{}) (*http.Response, error) {
	return tc.Do("PUT", path, body)
}

// Patch performs a PATCH request
func (tc *TestClient) Patch(path string, body interface{}) (*http.Response, error) {
	return tc.Do("PATCH", path, body)
}

// Delete performs a DELETE request
func (tc *TestClient) Delete(path string) (*http.Response, error) {
	return tc.Do("DELETE", path, nil)
}

// ParseResponse parses JSON response
func ParseResponse(t *testing.T, resp *http.Response, v interface{}) error {
	t.Helper()

	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(v)
}

// ParseError decodes an error body regardless of status
func ParseError(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()

	defer resp.Body.Close()

	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode error body: %v", err)
	}
	return body
}

// AssertStatus asserts response status code
func AssertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()

	if resp.StatusCode != expected {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status %d, got %d. Body: %s", expected, resp.StatusCode, string(body))
	}
}
