// Package database provides database connectivity for the Raasta Sathi API.
//
// The database package abstracts SurrealDB operations and provides
// a consistent interface for data access across the application.
//
// # Database Interface
//
// The Database interface defines core operations:
//
//	type Database interface {
//	    Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error)
//	    QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error)
//	    Execute(ctx context.Context, query string, vars map[string]interface{}) error
//	    Close() error
//	}
//
// Query returns one {status, result} map per statement. QueryOne unwraps the
// first record of the first statement and returns ErrNotFound when it is empty.
//
// # Connection Management
//
//	db := database.NewSurrealDB(database.Config{
//	    Host:      "localhost",
//	    Port:      "8000",
//	    User:      "root",
//	    Password:  "secret",
//	    Namespace: "raasta",
//	    Database:  "main",
//	})
//	if err := db.Connect(ctx); err != nil {
//	    return err
//	}
//	defer db.Close()
//
// # Atomic Writes
//
// Statements that must land together (deleting a report with its likes,
// views and comments; recording a view and bumping the counter) go through
// AtomicBatch, which wraps them in BEGIN/COMMIT TRANSACTION with namespaced
// variables:
//
//	err := database.NewAtomicBatch().
//	    Add("DELETE report_like WHERE report = type::record($id)", vars).
//	    Add("DELETE type::record($id)", vars).
//	    Execute(ctx, db)
//
// # Error Types
//
// Standard errors are defined for common failure cases:
//   - ErrNotFound: Record does not exist
//   - ErrDuplicate: Unique index violation
//   - ErrConnection: Database connection issues
//   - ErrQuery: Query execution failures
//
// Use errors.Is() to check error types:
//
//	if errors.Is(err, database.ErrDuplicate) {
//	    // already liked
//	}
package database
