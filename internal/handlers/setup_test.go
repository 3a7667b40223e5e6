package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/agentboard/api/internal/config"
	"github.com/agentboard/api/internal/db"
	"github.com/agentboard/api/internal/logging"
	testutil "github.com/agentboard/api/internal/testing"
	"github.com/agentboard/api/internal/validation"
)

func init() {
	// Register server setup function to avoid import cycles
	testutil.DefaultServerSetup = setupTestServer
}

/* setupTestServer creates a test HTTP server with all routes configured */
func setupTestServer(store *db.Store) *httptest.Server {
	validator, err := validation.New()
	if err != nil {
		panic(err)
	}

	return httptest.NewServer(NewHandler(Deps{
		Store:        store,
		Issuer:       testutil.NewTestIssuer(),
		Hasher:       testutil.NewTestHasher(),
		Validator:    validator,
		Logger:       logging.New("error", "text", io.Discard),
		MaxBodyBytes: 1 << 20,
		CORS:         config.Default().CORS,
	}))
}

// newAuthedClient returns a client holding a valid token for a fresh user.
func newAuthedClient(t *testing.T) *testutil.TestClient {
	t.Helper()

	tdb := testutil.SetupTestDB(t)
	t.Cleanup(func() { tdb.CleanupTestDB(t) })

	client := testutil.NewTestClient(t, tdb.Store)
	t.Cleanup(client.Server.Close)

	if err := client.Authenticate(context.Background(), "operator", "operator-pw"); err != nil {
		t.Fatalf("Failed to authenticate: %v", err)
	}
	return client
}

// mustCreateAgent creates an agent through the API
func mustCreateAgent(t *testing.T, client *testutil.TestClient, body map[string]interface{}) db.Agent {
	t.Helper()

	resp, err := client.Post("/api/v1/agents", body)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	testutil.AssertStatus(t, resp, http.StatusCreated)

	var agent db.Agent
	if err := testutil.ParseResponse(t, resp, &agent); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	return agent
}

func assertErrorCode(t *testing.T, resp *http.Response, status int, code string) map[string]interface{} {
	t.Helper()

	if resp.StatusCode != status {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Fatalf("Expected status %d, got %d. Body: %s", status, resp.StatusCode, string(body))
	}
	body := testutil.ParseError(t, resp)
	if body["code"] != code {
		t.Fatalf("Expected code %s, got %v", code, body["code"])
	}
	return body
}
