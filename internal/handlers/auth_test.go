package handlers

import (
	"net/http"
	"net/url"
	"testing"

	testutil "github.com/agentboard/api/internal/testing"
	"github.com/google/uuid"
)

func TestAuthHandlers_Register(t *testing.T) {
	tdb := testutil.SetupTestDB(t)
	defer tdb.CleanupTestDB(t)

	client := testutil.NewTestClient(t, tdb.Store)
	defer client.Server.Close()

	tests := []struct {
		name           string
		request        map[string]interface{}
		expectedStatus int
		checkResponse  func(*testing.T, *http.Response)
	}{
		{
			name: "successful registration",
			request: map[string]interface{}{
				"username": "alice",
				"email":    "a@x.com",
				"password": "pw123",
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, resp *http.Response) {
				var user map[string]interface{}
				if err := testutil.ParseResponse(t, resp, &user); err != nil {
					t.Fatalf("Failed to parse response: %v", err)
				}
				if user["id"] == nil || user["username"] != "alice" || user["email"] != "a@x.com" {
					t.Errorf("Unexpected user %v", user)
				}
				for _, key := range []string{"password", "password_hash"} {
					if _, ok := user[key]; ok {
						t.Errorf("Response leaks %s", key)
					}
				}
			},
		},
		{
			name: "missing email",
			request: map[string]interface{}{
				"username": "bob",
				"password": "pw123",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "invalid email",
			request: map[string]interface{}{
				"username": "bob",
				"email":    "not-an-email",
				"password": "pw123",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "duplicate username",
			request: map[string]interface{}{
				"username": "alice",
				"email":    "other@x.com",
				"password": "pw123",
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "duplicate email",
			request: map[string]interface{}{
				"username": "alice2",
				"email":    "a@x.com",
				"password": "pw123",
			},
			expectedStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := client.Post("/api/v1/auth/register", tt.request)
			if err != nil {
				t.Fatalf("Request failed: %v", err)
			}
			defer resp.Body.Close()

			testutil.AssertStatus(t, resp, tt.expectedStatus)

			if tt.checkResponse != nil {
				tt.checkResponse(t, resp)
			}
		})
	}
}

func TestAuthHandlers_Login(t *testing.T) {
	tdb := testutil.SetupTestDB(t)
	defer tdb.CleanupTestDB(t)

	client := testutil.NewTestClient(t, tdb.Store)
	defer client.Server.Close()

	resp, err := client.Post("/api/v1/auth/register", map[string]interface{}{
		"username": "alice",
		"email":    "a@x.com",
		"password": "pw123",
	})
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	testutil.AssertStatus(t, resp, http.StatusCreated)
	resp.Body.Close()

	t.Run("correct credentials", func(t *testing.T) {
		resp, err := client.Post("/api/v1/auth/login", map[string]interface{}{
			"username": "alice",
			"password": "pw123",
		})
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		testutil.AssertStatus(t, resp, http.StatusOK)

		var token TokenResponse
		if err := testutil.ParseResponse(t, resp, &token); err != nil {
			t.Fatalf("Failed to parse response: %v", err)
		}
		if token.AccessToken == "" || token.TokenType != "bearer" {
			t.Fatalf("Unexpected token response %+v", token)
		}

		authed := &testutil.TestClient{Server: client.Server, Token: token.AccessToken}
		resp, err = authed.Get("/api/v1/auth/me")
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		testutil.AssertStatus(t, resp, http.StatusOK)
		var me UserResponse
		if err := testutil.ParseResponse(t, resp, &me); err != nil {
			t.Fatalf("Failed to parse response: %v", err)
		}
		if me.Username != "alice" || me.ID != token.UserID {
			t.Errorf("Unexpected current user %+v", me)
		}
	})

	t.Run("form encoded credentials", func(t *testing.T) {
		resp, err := client.PostForm("/api/v1/auth/login", url.Values{
			"grant_type": {"password"},
			"username":   {"alice"},
			"password":   {"pw123"},
		})
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		testutil.AssertStatus(t, resp, http.StatusOK)
		resp.Body.Close()
	})

	t.Run("wrong password and unknown user look the same", func(t *testing.T) {
		resp, err := client.Post("/api/v1/auth/login", map[string]interface{}{
			"username": "alice",
			"password": "wrong",
		})
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		wrongPassword := assertErrorCode(t, resp, http.StatusUnauthorized, CodeUnauthorized)

		resp, err = client.Post("/api/v1/auth/login", map[string]interface{}{
			"username": "nobody",
			"password": "pw123",
		})
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		unknownUser := assertErrorCode(t, resp, http.StatusUnauthorized, CodeUnauthorized)

		delete(wrongPassword, "request_id")
		delete(unknownUser, "request_id")
		if len(wrongPassword) != len(unknownUser) {
			t.Fatalf("Bodies differ: %v vs %v", wrongPassword, unknownUser)
		}
		for k, v := range wrongPassword {
			if unknownUser[k] != v {
				t.Errorf("Field %s differs: %v vs %v", k, v, unknownUser[k])
			}
		}
	})

	t.Run("missing password", func(t *testing.T) {
		resp, err := client.Post("/api/v1/auth/login", map[string]interface{}{"username": "alice"})
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		assertErrorCode(t, resp, http.StatusBadRequest, CodeInvalidInput)
	})
}

func TestAuthMiddleware_FailsClosed(t *testing.T) {
	tdb := testutil.SetupTestDB(t)
	defer tdb.CleanupTestDB(t)

	client := testutil.NewTestClient(t, tdb.Store)
	defer client.Server.Close()

	// A correctly signed token whose subject was never stored.
	ghostToken, _, err := testutil.NewTestIssuer().Issue(uuid.New(), "ghost")
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"no token", ""},
		{"malformed token", "not-a-jwt"},
		{"unknown subject", ghostToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &testutil.TestClient{Server: client.Server, Token: tt.token}
			resp, err := c.Get("/api/v1/agents")
			if err != nil {
				t.Fatalf("Request failed: %v", err)
			}
			assertErrorCode(t, resp, http.StatusUnauthorized, CodeUnauthorized)
		})
	}
}
