// Package services implements the user-facing operations on top of the
// transport client and the catalog: borrowing history, profile with
// borrowing counters, and the reservation flow with its client-side limit
// check.
package services

import (
	"context"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/dmitrijs2005/libkeeper/internal/client/api"
	"github.com/dmitrijs2005/libkeeper/internal/client/models"
	"github.com/dmitrijs2005/libkeeper/internal/logging"
)

// test seam
var timeNow = time.Now

// notReturnedMarker is the literal the upstream puts in the returned-date
// column for open loans.
const notReturnedMarker = "Not returned yet."

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)

// loan date formats seen in the upstream's responses.
var loanDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"01/02/2006",
}

type LoanService struct {
	client           api.Client
	loanDurationDays int
	logger           logging.Logger
}

func NewLoanService(client api.Client, loanDurationDays int, logger logging.Logger) *LoanService {
	return &LoanService{
		client:           client,
		loanDurationDays: loanDurationDays,
		logger:           logger.With("module", "loans"),
	}
}

// BorrowedBooks returns the user's borrowing history with due dates
// derived client-side: due = issue date + loan duration.
func (s *LoanService) BorrowedBooks(ctx context.Context, uid string) ([]models.BorrowedBook, error) {
	records, err := s.client.BorrowedBooks(ctx, uid)
	if err != nil {
		return nil, err
	}

	books := make([]models.BorrowedBook, 0, len(records))
	for _, rec := range records {
		books = append(books, s.parseBorrowed(ctx, rec))
	}
	return books, nil
}

// RequestedBooks returns the user's pending reservation requests.
func (s *LoanService) RequestedBooks(ctx context.Context, uid string) ([]models.RequestedBook, error) {
	records, err := s.client.RequestedBooks(ctx, uid)
	if err != nil {
		return nil, err
	}

	books := make([]models.RequestedBook, 0, len(records))
	for _, rec := range records {
		books = append(books, models.RequestedBook{
			ID:          rec.ID,
			BookName:    bookNameOf(rec),
			RequestedOn: stripHTML(rec.Created),
			IssuedOn:    rec.IssuedDate,
			ReturnedOn:  rec.ReturnedDate,
		})
	}
	return books, nil
}

func (s *LoanService) parseBorrowed(ctx context.Context, rec api.LoanRecord) models.BorrowedBook {
	book := models.BorrowedBook{
		ID:          rec.ID,
		BookName:    bookNameOf(rec),
		RequestedOn: stripHTML(rec.Created),
		IssuedOn:    rec.IssuedDate,
		ReturnedOn:  rec.ReturnedDate,
		Status:      loanStatus(rec),
	}

	if book.Status != models.LoanIssued || rec.IssuedDate == "" {
		return book
	}

	issued, err := parseLoanDate(rec.IssuedDate)
	if err != nil {
		s.logger.Warn(ctx, "unparseable issue date", "book", book.BookName, "date", rec.IssuedDate)
		return book
	}

	due := issued.AddDate(0, 0, s.loanDurationDays)
	book.DueDate = due.Format("2006-01-02")
	book.DaysRemaining = int(math.Ceil(due.Sub(timeNow()).Hours() / 24))
	book.Overdue = book.DaysRemaining < 0

	return book
}

// loanStatus derives the lifecycle stage from the two date columns. A
// returned date wins, then an issue date, otherwise the loan is still a
// pending request.
func loanStatus(rec api.LoanRecord) string {
	returned := strings.TrimSpace(rec.ReturnedDate)
	if returned != "" && returned != notReturnedMarker {
		return models.LoanReturned
	}
	if strings.TrimSpace(rec.IssuedDate) != "" {
		return models.LoanIssued
	}
	return models.LoanRequested
}

func bookNameOf(rec api.LoanRecord) string {
	if rec.Lmsbook == "" {
		return "Unknown Book"
	}
	return rec.Lmsbook
}

func stripHTML(s string) string {
	return strings.TrimSpace(htmlTagRe.ReplaceAllString(s, ""))
}

func parseLoanDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range loanDateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
