// Package dbtest connects integration tests to the TESTING database.
package dbtest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"portfolio/src/config"
	"portfolio/src/database"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	once    sync.Once
	testDB  *pgxpool.Pool
	initErr error
)

// Tables lists every table truncated between tests, children first.
var Tables = []string{
	"monthly_performances",
	"transactions",
	"lots",
	"price_quotes",
	"portfolios",
}

// Setup returns a migrated, empty database and truncates it again when the test ends.
// The test is skipped when no database is reachable.
// TEST_DATABASE_URL overrides the connection string from appsettings.TESTING.yaml.
func Setup(t *testing.T) *pgxpool.Pool {
	t.Helper()

	once.Do(func() {
		testDB, initErr = connect()
	})
	if initErr != nil {
		t.Skipf("test database unavailable: %v", initErr)
	}

	TruncateTables(t, testDB)
	t.Cleanup(func() { TruncateTables(t, testDB) })
	return testDB
}

func connect() (*pgxpool.Pool, error) {
	cfg, err := loadTestConfig()
	if err != nil {
		return nil, err
	}
	if url := os.Getenv("TEST_DATABASE_URL"); url != "" {
		cfg.Databases.SQL.ConnectionString = url
	}
	cfg.Databases.SQL.MaxConns = 5

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pool, err := database.SetupDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(cfg); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// loadTestConfig loads appsettings.TESTING.yaml from the service root.
func loadTestConfig() (*config.Config, error) {
	serviceRoot, err := getServiceRoot()
	if err != nil {
		return nil, fmt.Errorf("failed to get service root path: %w", err)
	}

	cfg, err := config.LoadConfig(filepath.Join(serviceRoot, "settings"), "TESTING")
	if err != nil {
		return nil, fmt.Errorf("failed to load test configuration: %w", err)
	}
	cfg.Databases.SQL.MigrationsDir = filepath.Join(serviceRoot, "migrations")
	return cfg, nil
}

// getServiceRoot walks up from the working directory to the one holding go.mod.
func getServiceRoot() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(wd, "go.mod")); err == nil {
			return wd, nil
		}

		parent := filepath.Dir(wd)
		if parent == wd {
			return "", fmt.Errorf("go.mod not found in any parent directory")
		}
		wd = parent
	}
}

// TruncateTables empties every table in the test database.
func TruncateTables(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	if pool == nil {
		t.Fatal("Database connection not initialized")
	}

	for _, table := range Tables {
		_, err := pool.Exec(context.Background(), fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		if err != nil {
			t.Fatalf("Failed to truncate table %s: %v", table, err)
		}
	}
}
