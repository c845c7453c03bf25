package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/openshelf/openshelf/internal/covers"
	"github.com/openshelf/openshelf/internal/database/books"
	"github.com/openshelf/openshelf/internal/database/checkouts"
	"github.com/openshelf/openshelf/internal/database/reviews"
	"github.com/openshelf/openshelf/internal/database/stafflog"
	"github.com/openshelf/openshelf/internal/database/users"
	"github.com/openshelf/openshelf/internal/http"
	"github.com/openshelf/openshelf/internal/metadata"
	"github.com/openshelf/openshelf/internal/scheduler"
	"github.com/openshelf/openshelf/internal/tasks"
)

// HTTP controller stores
var (
	_ http.BookStore      = (*books.Repository)(nil)
	_ http.AdminBookStore = (*books.Repository)(nil)
	_ http.CheckoutStore  = (*checkouts.Repository)(nil)
	_ http.ReviewStore    = (*reviews.Repository)(nil)
	_ http.StaffLogStore  = (*stafflog.Repository)(nil)
	_ http.UserStore      = (*users.Repository)(nil)
)

// Metadata enrichment
var (
	_ metadata.Provider         = (*metadata.OpenLibraryClient)(nil)
	_ metadata.CatalogStore     = (*books.Repository)(nil)
	_ metadata.CoverInvalidator = (*covers.Cache)(nil)
)

// Background jobs
var (
	_ tasks.OverdueFlagger   = (*checkouts.Repository)(nil)
	_ tasks.StaffLogCleaner  = (*stafflog.Repository)(nil)
	_ scheduler.TaskEnqueuer = (*tasks.Client)(nil)
)
