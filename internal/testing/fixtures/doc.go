// Package fixtures provides test data factories for repository integration tests.
//
// Each factory method creates entities through the real repositories with
// sensible defaults, allowing customization via option functions:
//
//	f := fixtures.New(tdb.DB)
//	citizen := f.CreateUser(t)
//	report := f.CreateReport(t, citizen, fixtures.WithReportType(model.ReportTypeCongestion))
//	f.ExpireReport(t, report)
package fixtures
