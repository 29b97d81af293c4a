// Package repository implements the data access layer for Raasta Sathi.
//
// Each repository wraps a database.Database and owns the SurrealQL for one
// record table: user, report, comment, and service_request.
//
// # Repository Pattern
//
//   - Constructor function (NewXxxRepository) accepts a database connection
//   - Methods implement one data operation each and return model structs
//   - Parameterized queries with $variable syntax, type::record() for IDs
//   - Missing records map to database.ErrNotFound, unique index violations
//     to database.ErrDuplicate
//
// # Atomic Updates
//
// Status transitions, poll votes, likes, and thumbs run as a single
// statement or a database.AtomicBatch so concurrent requests cannot lose
// updates or double count a voter.
//
// # Example Usage
//
//	repo := NewReportRepository(db)
//	report, err := repo.GetByID(ctx, "report:abc123")
//	if err != nil {
//	    if errors.Is(err, database.ErrNotFound) {
//	        // Handle not found
//	    }
//	    return err
//	}
package repository
