// Package api is the transport layer of the library client. It speaks the
// gateway's /api/proxy envelope and exposes typed operations over the
// upstream's JSON:API and legacy REST endpoints.
package api

import "context"

// Client defines the upstream operations the aggregator, session manager
// and services are built on.
//
// All methods must honor context cancellation/timeouts.
type Client interface {
	// Auth.
	Login(ctx context.Context, username, password string) (*LoginResponse, error)
	Logout(ctx context.Context) error
	VerifySession(ctx context.Context) (bool, error)
	RestoreCredentials(username, password, csrfToken, logoutToken, uid string)
	ClearCredentials()
	UID() string

	// Catalog (JSON:API).
	BooksPage(ctx context.Context, limit, offset int) (*BooksDocument, error)
	BooksFull(ctx context.Context) (*BooksDocument, error)
	Book(ctx context.Context, uuid string) (*BookDocument, error)
	Authors(ctx context.Context) (*AuthorsDocument, error)
	AuthorByInternalID(ctx context.Context, id string) (*AuthorRecord, error)
	BookPublication(ctx context.Context, bookUUID string) (*PublicationDocument, error)
	BookCategory(ctx context.Context, bookUUID string) (*CategoryDocument, error)
	BookFeaturedImage(ctx context.Context, bookUUID string) (*FileDocument, error)
	CategoryTerms(ctx context.Context) (*CategoriesDocument, error)

	// User data (legacy REST).
	BorrowedBooks(ctx context.Context, uid string) ([]LoanRecord, error)
	RequestedBooks(ctx context.Context, uid string) ([]LoanRecord, error)
	Profile(ctx context.Context, uid string) (*ProfileRecord, error)
	Reserve(ctx context.Context, payload *ReservationPayload) error
}
