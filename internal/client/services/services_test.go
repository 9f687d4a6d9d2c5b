package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/libkeeper/internal/client/api"
	"github.com/dmitrijs2005/libkeeper/internal/client/catalog"
	"github.com/dmitrijs2005/libkeeper/internal/client/models"
	"github.com/dmitrijs2005/libkeeper/internal/logging"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type stubClient struct {
	api.Client

	borrowed    []api.LoanRecord
	borrowedErr error
	requested   []api.LoanRecord
	profile     *api.ProfileRecord
	profileErr  error

	book    *api.BookDocument
	bookErr error

	reserveErr     error
	reserveCalls   int
	lastReserveArg *api.ReservationPayload
}

func (c *stubClient) BorrowedBooks(context.Context, string) ([]api.LoanRecord, error) {
	return c.borrowed, c.borrowedErr
}

func (c *stubClient) RequestedBooks(context.Context, string) ([]api.LoanRecord, error) {
	return c.requested, nil
}

func (c *stubClient) Profile(context.Context, string) (*api.ProfileRecord, error) {
	return c.profile, c.profileErr
}

func (c *stubClient) Book(context.Context, string) (*api.BookDocument, error) {
	return c.book, c.bookErr
}

func (c *stubClient) Reserve(_ context.Context, payload *api.ReservationPayload) error {
	c.reserveCalls++
	c.lastReserveArg = payload
	return c.reserveErr
}

// catalog needs these for its eager loads
func (c *stubClient) BooksFull(context.Context) (*api.BooksDocument, error) {
	return &api.BooksDocument{}, nil
}
func (c *stubClient) Authors(context.Context) (*api.AuthorsDocument, error) {
	return &api.AuthorsDocument{}, nil
}
func (c *stubClient) AuthorByInternalID(context.Context, string) (*api.AuthorRecord, error) {
	return nil, &api.Error{Message: "Not Found", Status: 404}
}

func withClock(t *testing.T, now time.Time) {
	t.Helper()
	orig := timeNow
	t.Cleanup(func() { timeNow = orig })
	timeNow = func() time.Time { return now }
}

func issuedLoan(id, name, issuedOn string) api.LoanRecord {
	return api.LoanRecord{
		ID:           id,
		Lmsbook:      name,
		Created:      "<time>2026-02-01</time>",
		IssuedDate:   issuedOn,
		ReturnedDate: "Not returned yet.",
	}
}

func newLoanService(client *stubClient) *LoanService {
	return NewLoanService(client, 15, testLogger())
}

func TestBorrowedBookDueDateAndStatus(t *testing.T) {
	now := time.Date(2026, 2, 20, 10, 0, 0, 0, time.UTC)
	withClock(t, now)

	client := &stubClient{borrowed: []api.LoanRecord{
		issuedLoan("1", "Go in Action", "2026-02-10"),
		{ID: "2", Lmsbook: "Old Book", Created: "2026-01-01", IssuedDate: "2026-01-01", ReturnedDate: "2026-01-10"},
		{ID: "3", Lmsbook: "Pending Book", Created: "2026-02-15"},
		issuedLoan("4", "Late Book", "2026-01-01"),
	}}

	books, err := newLoanService(client).BorrowedBooks(context.Background(), "15")
	require.NoError(t, err)
	require.Len(t, books, 4)

	issued := books[0]
	assert.Equal(t, models.LoanIssued, issued.Status)
	assert.Equal(t, "2026-02-25", issued.DueDate)
	assert.Equal(t, 5, issued.DaysRemaining)
	assert.False(t, issued.Overdue)
	assert.Equal(t, "2026-02-01", issued.RequestedOn)

	assert.Equal(t, models.LoanReturned, books[1].Status)
	assert.Empty(t, books[1].DueDate)

	assert.Equal(t, models.LoanRequested, books[2].Status)

	late := books[3]
	assert.Equal(t, models.LoanIssued, late.Status)
	assert.Equal(t, "2026-01-16", late.DueDate)
	assert.True(t, late.Overdue)
	assert.Negative(t, late.DaysRemaining)
}

func TestUnreturnedMarkerKeepsLoanOpen(t *testing.T) {
	rec := issuedLoan("1", "Some Book", "2026-02-10")
	assert.Equal(t, models.LoanIssued, loanStatus(rec))

	rec.ReturnedDate = "  "
	assert.Equal(t, models.LoanIssued, loanStatus(rec))

	rec.ReturnedDate = "2026-02-15"
	assert.Equal(t, models.LoanReturned, loanStatus(rec))
}

func TestRequestedBooksStripHTML(t *testing.T) {
	client := &stubClient{requested: []api.LoanRecord{
		{ID: "1", Lmsbook: "Go in Action", Created: `<a href="/x">2026-02-01</a>`},
		{ID: "2", Created: "2026-02-02"},
	}}

	books, err := newLoanService(client).RequestedBooks(context.Background(), "15")
	require.NoError(t, err)
	require.Len(t, books, 2)

	assert.Equal(t, "2026-02-01", books[0].RequestedOn)
	assert.Equal(t, "Unknown Book", books[1].BookName)
}

func profileRecord(uid, name string) *api.ProfileRecord {
	return &api.ProfileRecord{
		UID:  api.Field{{Value: []byte(`"` + uid + `"`)}},
		Name: api.Field{{Value: []byte(`"` + name + `"`)}},
		Mail: api.Field{{Value: []byte(`"a@b.c"`)}},
	}
}

func TestProfileMergesBorrowingCounters(t *testing.T) {
	now := time.Date(2026, 2, 20, 10, 0, 0, 0, time.UTC)
	withClock(t, now)

	client := &stubClient{
		profile: profileRecord("15", "alice"),
		borrowed: []api.LoanRecord{
			issuedLoan("1", "A", "2026-02-10"),
			issuedLoan("2", "B", "2026-02-11"),
			{ID: "3", Lmsbook: "C", IssuedDate: "2026-01-01", ReturnedDate: "2026-01-10"},
		},
		requested: []api.LoanRecord{{ID: "4", Lmsbook: "D"}},
	}

	loans := newLoanService(client)
	svc := NewProfileService(client, loans, 4, testLogger())

	profile, err := svc.Profile(context.Background(), "15")
	require.NoError(t, err)

	assert.Equal(t, "15", profile.UID)
	assert.Equal(t, "alice", profile.Name)
	assert.Equal(t, 2, profile.BorrowedBooksCount)
	assert.Equal(t, 1, profile.RequestedBooksCount)
	assert.Equal(t, 5, profile.Credits)
	assert.Equal(t, 5, profile.MaxCredits)
	assert.Equal(t, 4, profile.MaxBooksAllowed)
	assert.True(t, profile.CanBorrowMore)
}

func TestEligibilityMessages(t *testing.T) {
	now := time.Date(2026, 2, 20, 10, 0, 0, 0, time.UTC)
	withClock(t, now)

	atLimit := []api.LoanRecord{
		issuedLoan("1", "A", "2026-02-10"),
		issuedLoan("2", "B", "2026-02-10"),
		issuedLoan("3", "C", "2026-02-10"),
		issuedLoan("4", "D", "2026-02-10"),
	}

	tests := []struct {
		name        string
		borrowed    []api.LoanRecord
		wantBorrow  bool
		wantMessage string
	}{
		{"at limit", atLimit, false, "You have reached the maximum limit of 4 books. Please return some books before borrowing more."},
		{"three out", atLimit[:3], true, "You can borrow 1 more book."},
		{"none out", nil, true, "You can borrow 4 more books."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &stubClient{borrowed: tt.borrowed}
			svc := NewProfileService(client, newLoanService(client), 4, testLogger())

			e := svc.CheckEligibility(context.Background(), "15")
			assert.Equal(t, tt.wantBorrow, e.CanBorrow)
			assert.Equal(t, tt.wantMessage, e.Message)
		})
	}
}

func TestEligibilityCheckFailureBlocksBorrowing(t *testing.T) {
	client := &stubClient{borrowedErr: &api.Error{Message: "boom", Status: 500}}
	svc := NewProfileService(client, newLoanService(client), 4, testLogger())

	e := svc.CheckEligibility(context.Background(), "15")
	assert.False(t, e.CanBorrow)
	assert.Equal(t, "Unable to check borrowing eligibility. Please try again.", e.Message)
}

func bookDoc(uuid, internalID, title string) *api.BookDocument {
	res := &api.BookResource{ID: uuid}
	res.Attributes.DrupalInternalID = api.FlexString(internalID)
	res.Attributes.Title = title
	return &api.BookDocument{Data: res}
}

func newBorrowService(client *stubClient) *BorrowService {
	cat := catalog.New(client, "https://lib.example.com", 12, testLogger())
	profile := NewProfileService(client, newLoanService(client), 4, testLogger())
	return NewBorrowService(client, cat, profile, testLogger())
}

func TestReserveSuccess(t *testing.T) {
	client := &stubClient{book: bookDoc("b1", "42", "Go in Action")}
	svc := newBorrowService(client)

	result := svc.Reserve(context.Background(), "15", "b1")
	require.True(t, result.Success)
	assert.Contains(t, result.Message, "successfully reserved")
	assert.Equal(t, 1, client.reserveCalls)

	require.NotNil(t, client.lastReserveArg)
	assert.Equal(t, "Request API", client.lastReserveArg.Title[0].Value)
	assert.Equal(t, "15", client.lastReserveArg.UID[0].TargetID)
	assert.Equal(t, "42", client.lastReserveArg.Lmsbook[0].TargetID)

	require.NotNil(t, result.Reservation)
	assert.Equal(t, "Go in Action", result.Reservation.BookTitle)
	assert.Equal(t, "active", result.Reservation.Status)
}

func TestReserveBlockedAtLimit(t *testing.T) {
	now := time.Date(2026, 2, 20, 10, 0, 0, 0, time.UTC)
	withClock(t, now)

	client := &stubClient{
		book: bookDoc("b1", "42", "Go in Action"),
		borrowed: []api.LoanRecord{
			issuedLoan("1", "A", "2026-02-10"),
			issuedLoan("2", "B", "2026-02-10"),
			issuedLoan("3", "C", "2026-02-10"),
			issuedLoan("4", "D", "2026-02-10"),
		},
	}
	svc := newBorrowService(client)

	result := svc.Reserve(context.Background(), "15", "b1")
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "maximum limit of 4 books")
	assert.Zero(t, client.reserveCalls)
}

func TestReserveErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		bookErr     error
		reserveErr  error
		wantMessage string
	}{
		{"book not found", &api.Error{Message: "Not Found", Status: 404}, nil, "Book not found or not available for reservation."},
		{"auth rejected", nil, &api.Error{Message: "forbidden", Status: 403}, "Authentication failed. Please login again."},
		{"bad request", nil, &api.Error{Message: "bad", Status: 400}, "Invalid reservation request. Please check your borrowing limits."},
		{"upstream message", nil, &api.Error{Message: "entity validation failed", Status: 422}, "entity validation failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &stubClient{book: bookDoc("b1", "42", "Go in Action")}
			client.bookErr = tt.bookErr
			client.reserveErr = tt.reserveErr

			result := newBorrowService(client).Reserve(context.Background(), "15", "b1")
			assert.False(t, result.Success)
			assert.Equal(t, tt.wantMessage, result.Message)
		})
	}
}
