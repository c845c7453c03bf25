// Package interfaces documents the core abstractions used throughout the application.
//
// This package consolidates interface documentation to help new contributors find
// extension points and how to implement new functionality.
//
// # Interface Categories
//
// The application uses several categories of interfaces:
//
// ## Data Access Interfaces
//
//   - BookStore / AdminBookStore: Catalog reads and staff mutations (internal/http/books.go, admin.go)
//   - CheckoutStore: Borrow/return lifecycle (internal/http/checkouts.go)
//   - ReviewStore: Review upserts and listing (internal/http/reviews.go)
//   - StaffLogStore: Audit trail writes and queries (internal/http/admin.go)
//   - UserStore: Account listing and role changes (internal/http/admin.go)
//
// ## External Service Interfaces
//
//   - metadata.Provider: Book metadata from external APIs (internal/metadata/enricher.go)
//   - metadata.CatalogStore: The slice of the catalog the enricher writes to
//   - metadata.CoverInvalidator: Cover cache invalidation on metadata refresh
//
// ## Background Job Interfaces
//
//   - tasks.OverdueFlagger: Flags overdue checkouts (internal/tasks/overdue_sweep.go)
//   - tasks.StaffLogCleaner: Prunes old audit rows (internal/tasks/cleanup_stafflog.go)
//   - scheduler.TaskEnqueuer: Enqueues tasks from cron schedules (internal/scheduler/sweeps.go)
//
// # Adding a New Metadata Provider
//
// To add a new source of book metadata (e.g., Google Books):
//
//  1. Implement metadata.Provider in internal/metadata/
//
//     type GoogleBooksClient struct {
//         apiKey     string
//         httpClient *http.Client
//     }
//
//     func (c *GoogleBooksClient) SearchByISBN(ctx context.Context, isbn string) (*BookMetadata, error)
//     func (c *GoogleBooksClient) SearchByTitle(ctx context.Context, title, author string) (*BookMetadata, error)
//
//     var _ metadata.Provider = (*GoogleBooksClient)(nil)
//
//  2. Swap it into the enricher in entrypoint.go
//
// # Adding a New Database Domain
//
// To add a new data domain (e.g., holds/reservations):
//
//  1. Create sub-package: internal/database/holds/
//
//  2. Define repository:
//
//     type Repository struct { db *gorm.DB }
//
//     func NewRepository(db *gorm.DB) *Repository
//
//  3. Declare the store interface next to the controller that consumes it
//
//  4. Add a compile-time check in checks.go:
//
//     var _ http.HoldStore = (*Repository)(nil)
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// This pattern is used throughout the codebase. See checks.go for examples.
package interfaces
