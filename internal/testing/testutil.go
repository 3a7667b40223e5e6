package testing

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/agentboard/api/internal/auth"
	"github.com/agentboard/api/internal/db"
	"github.com/agentboard/api/internal/logging"
	"golang.org/x/crypto/bcrypt"
)

// TestJWTSecret signs every token issued in tests.
const TestJWTSecret = "test-secret-key-for-testing-only"

/* TestDB holds test database connection */
type TestDB struct {
	Store *db.Store
}

/* SetupTestDB opens a migrated store. It uses a SQLite file in a temporary directory,
or the PostgreSQL database named by TEST_DB_DSN when that is set. */
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	opts := db.Options{
		Dialect: db.DialectSQLite,
		Path:    filepath.Join(t.TempDir(), "agentboard_test.db"),
	}
	if dsn := os.Getenv("TEST_DB_DSN"); dsn != "" {
		opts = db.Options{Dialect: db.DialectPostgres, DSN: dsn, MaxOpenConns: 10}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := db.Open(ctx, opts)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	if err := store.Migrate(ctx, logging.New("error", "text", io.Discard)); err != nil {
		store.Close()
		t.Fatalf("Failed to run migrations: %v", err)
	}

	tdb := &TestDB{Store: store}
	if store.Dialect() == db.DialectPostgres {
		tdb.truncate(t)
	}
	return tdb
}

/* CleanupTestDB cleans up test database */
func (tdb *TestDB) CleanupTestDB(t *testing.T) {
	t.Helper()

	if tdb.Store.Dialect() == db.DialectPostgres {
		tdb.truncate(t)
	}
	tdb.Store.Close()
}

func (tdb *TestDB) truncate(t *testing.T) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tables := []string{
		"flowchart_edges",
		"flowchart_nodes",
		"execution_logs",
		"executions",
		"agents",
		"users",
	}
	for _, table := range tables {
		if _, err := tdb.Store.DB().ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
			t.Logf("Warning: Failed to truncate %s: %v", table, err)
		}
	}
}

/* NewTestIssuer returns the token issuer shared by test servers and clients */
func NewTestIssuer() *auth.TokenIssuer {
	issuer, err := auth.NewTokenIssuer(TestJWTSecret, 30*time.Minute)
	if err != nil {
		panic(err)
	}
	return issuer
}

/* NewTestHasher returns a hasher at the cheapest bcrypt cost */
func NewTestHasher() *auth.Hasher {
	hasher, err := auth.NewHasher(bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return hasher
}

/* CreateTestUser creates a test user */
func CreateTestUser(ctx context.Context, store *db.Store, username, password string) (*db.User, error) {
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}

	user := &db.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: string(passwordHash),
	}

	if err := store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

/* CreateTestAgent creates an agent with default status and timestamps */
func CreateTestAgent(ctx context.Context, store *db.Store, name string) (*db.Agent, error) {
	return store.CreateAgent(ctx, db.AgentCreate{
		Name:      name,
		CreatedBy: "tester",
	})
}
