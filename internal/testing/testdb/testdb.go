// Package testdb provides test database utilities for repository integration tests.
//
// Each TestDB runs in its own SurrealDB namespace with migrations/*.surql
// applied, so unique indexes and field assertions behave exactly as in
// production. Tests are skipped when no database is reachable; set
// TEST_DB_HOST / TEST_DB_PORT to point at one, and TEST_DB_REQUIRED to turn
// the skip into a failure in CI.
//
// Usage:
//
//	func TestSomething(t *testing.T) {
//	    tdb := testdb.New(t)
//	    t.Cleanup(tdb.Close)
//
//	    result, err := tdb.DB.Query(tdb.Ctx(), "SELECT * FROM report", nil)
//	}
package testdb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/database"
)

// TestDB is one isolated namespace with the schema applied
type TestDB struct {
	DB        database.Database
	Namespace string
	t         *testing.T
}

var (
	loadOnce   sync.Once
	schema     []string
	schemaErr  error
	namespaces atomic.Int64
)

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func connConfig(namespace string) database.Config {
	return database.Config{
		Host:      env("TEST_DB_HOST", "localhost"),
		Port:      env("TEST_DB_PORT", "8000"),
		User:      env("TEST_DB_USER", "root"),
		Password:  env("TEST_DB_PASSWORD", "root"),
		Namespace: namespace,
		Database:  "raasta",
		Timeout:   10 * time.Second,
	}
}

// migrationDir returns RAASTA_ROOT/migrations when set, otherwise the
// migrations directory beside the nearest go.mod above the working directory
func migrationDir() (string, error) {
	if root := os.Getenv("RAASTA_ROOT"); root != "" {
		return filepath.Join(root, "migrations"), nil
	}
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return filepath.Join(dir, "migrations"), nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("no go.mod above working directory")
		}
		dir = parent
	}
}

// loadSchema reads the numbered migrations once per test binary. seed.surql
// holds demo data and is never applied.
func loadSchema() ([]string, error) {
	loadOnce.Do(func() {
		dir, err := migrationDir()
		if err != nil {
			schemaErr = fmt.Errorf("locating migrations: %w", err)
			return
		}
		names, err := filepath.Glob(filepath.Join(dir, "*.surql"))
		if err != nil {
			schemaErr = err
			return
		}
		sort.Strings(names)
		for _, name := range names {
			if strings.HasSuffix(name, "seed.surql") {
				continue
			}
			content, err := os.ReadFile(name)
			if err != nil {
				schemaErr = fmt.Errorf("reading %s: %w", filepath.Base(name), err)
				return
			}
			schema = append(schema, string(content))
		}
		if len(schema) == 0 {
			schemaErr = fmt.Errorf("no migrations in %s", dir)
		}
	})
	return schema, schemaErr
}

// New connects to a fresh namespace and applies the schema. Register Close
// with t.Cleanup to drop the namespace afterwards.
func New(t *testing.T) *TestDB {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	namespace := fmt.Sprintf("test_%d_%d", os.Getpid(), namespaces.Add(1))
	cfg := connConfig(namespace)

	db := database.NewSurrealDB(cfg)
	if err := db.Connect(ctx); err != nil {
		if os.Getenv("TEST_DB_REQUIRED") != "" {
			t.Fatalf("testdb: failed to connect: %v", err)
		}
		t.Skipf("testdb: SurrealDB not reachable at %s:%s: %v", cfg.Host, cfg.Port, err)
	}

	migs, err := loadSchema()
	if err != nil {
		_ = db.Close()
		t.Fatalf("testdb: %v", err)
	}
	for i, mig := range migs {
		if err := db.Execute(ctx, mig, nil); err != nil {
			_ = db.Close()
			t.Fatalf("testdb: migration %d failed: %v", i+1, err)
		}
	}

	return &TestDB{DB: db, Namespace: namespace, t: t}
}

// Close drops the namespace and closes the connection
func (tdb *TestDB) Close() {
	if tdb.DB == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = tdb.DB.Execute(ctx, "REMOVE NAMESPACE "+tdb.Namespace, nil)
	_ = tdb.DB.Close()
}

// Ctx returns a context with a timeout that is cancelled when the test ends
func (tdb *TestDB) Ctx() context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	tdb.t.Cleanup(cancel)
	return ctx
}
