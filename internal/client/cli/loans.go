package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/libkeeper/internal/client/ics"
	"github.com/dmitrijs2005/libkeeper/internal/client/models"
)

func parseDueDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

func (a *App) Borrowed(ctx context.Context) error {
	if !a.isLoggedIn() {
		printlnFn("Please login first.")
		return nil
	}

	books, err := a.loans.BorrowedBooks(ctx, a.client.UID())
	if err != nil {
		printlnFn("Failed to fetch borrowed books:", err.Error())
		return err
	}
	a.lastBorrowed = books

	if len(books) == 0 {
		printlnFn("No borrowed books.")
		return nil
	}

	for i, b := range books {
		line := fmt.Sprintf("%2d. %s [%s]", i+1, b.BookName, b.Status)
		if b.Status == models.LoanIssued && b.DueDate != "" {
			if b.Overdue {
				line += fmt.Sprintf(" due %s, OVERDUE by %d days", b.DueDate, -b.DaysRemaining)
			} else {
				line += fmt.Sprintf(" due %s, %d days remaining", b.DueDate, b.DaysRemaining)
			}
		}
		printlnFn(line)
	}
	return nil
}

func (a *App) Requested(ctx context.Context) error {
	if !a.isLoggedIn() {
		printlnFn("Please login first.")
		return nil
	}

	books, err := a.loans.RequestedBooks(ctx, a.client.UID())
	if err != nil {
		printlnFn("Failed to fetch requested books:", err.Error())
		return err
	}

	if len(books) == 0 {
		printlnFn("No requested books.")
		return nil
	}

	for i, b := range books {
		printlnFn(fmt.Sprintf("%2d. %s requested on %s", i+1, b.BookName, b.RequestedOn))
	}
	return nil
}

func (a *App) Profile(ctx context.Context) error {
	if !a.isLoggedIn() {
		printlnFn("Please login first.")
		return nil
	}

	profile, err := a.profile.Profile(ctx, a.client.UID())
	if err != nil {
		printlnFn("Failed to fetch profile:", err.Error())
		return err
	}

	printlnFn("Name:     ", profile.Name)
	printlnFn("Email:    ", profile.Email)
	printlnFn("Timezone: ", profile.Timezone)
	printlnFn(fmt.Sprintf("Credits:   %d/%d", profile.Credits, profile.MaxCredits))
	printlnFn(fmt.Sprintf("Borrowed:  %d/%d", profile.BorrowedBooksCount, profile.MaxBooksAllowed))
	printlnFn(fmt.Sprintf("Requested: %d", profile.RequestedBooksCount))
	if profile.CanBorrowMore {
		printlnFn("You can borrow more books.")
	} else {
		printlnFn("Borrowing limit reached.")
	}
	return nil
}

// Remind writes a single-notice calendar file for a borrowed book.
func (a *App) Remind(ctx context.Context, args []string) error {
	return a.writeReminder(args, "remind", false)
}

// RemindAll writes the escalating three-notice calendar file.
func (a *App) RemindAll(ctx context.Context, args []string) error {
	return a.writeReminder(args, "remindall", true)
}

func (a *App) writeReminder(args []string, usage string, all bool) error {
	book, ok := a.borrowedFromArgs(args, usage)
	if !ok {
		return nil
	}

	if book.Status != models.LoanIssued || book.DueDate == "" {
		printlnFn("That book has no due date.")
		return nil
	}

	due, err := parseDueDate(book.DueDate)
	if err != nil {
		printlnFn("Unparseable due date:", book.DueDate)
		return err
	}

	var content, filename string
	if all {
		content = ics.BookReminders(book.BookName, "Unknown Author", due)
		filename = ics.RemindersFilename(book.BookName)
	} else {
		content = ics.BookReminder(book.BookName, "Unknown Author", due)
		filename = ics.ReminderFilename(book.BookName)
	}

	if err := ics.WriteFile(filename, content); err != nil {
		printlnFn("Failed to write calendar file:", err.Error())
		return err
	}

	printlnFn("Calendar saved to", filename)
	return nil
}

func (a *App) borrowedFromArgs(args []string, usage string) (*models.BorrowedBook, bool) {
	if len(args) == 0 {
		printlnFn("Usage:", usage, "<n>")
		return nil, false
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		printlnFn("Usage:", usage, "<n>")
		return nil, false
	}
	if len(a.lastBorrowed) == 0 {
		printlnFn("Run 'borrowed' first.")
		return nil, false
	}
	if n < 1 || n > len(a.lastBorrowed) {
		printlnFn("No such row:", n)
		return nil, false
	}
	return &a.lastBorrowed[n-1], true
}
