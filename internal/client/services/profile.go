package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/libkeeper/internal/client/api"
	"github.com/dmitrijs2005/libkeeper/internal/client/models"
	"github.com/dmitrijs2005/libkeeper/internal/logging"
)

// The upstream has no credit accounting endpoint; these mirror the fixed
// values the site itself presents.
const (
	defaultCredits    = 5
	defaultMaxCredits = 5
)

type ProfileService struct {
	client          api.Client
	loans           *LoanService
	maxBooksAllowed int
	logger          logging.Logger
}

func NewProfileService(client api.Client, loans *LoanService, maxBooksAllowed int, logger logging.Logger) *ProfileService {
	return &ProfileService{
		client:          client,
		loans:           loans,
		maxBooksAllowed: maxBooksAllowed,
		logger:          logger.With("module", "profile"),
	}
}

// Profile fetches the account record and merges in the current borrowing
// counters. A failure counting loans degrades the profile, it does not
// fail it.
func (s *ProfileService) Profile(ctx context.Context, uid string) (*models.UserProfile, error) {
	rec, err := s.client.Profile(ctx, uid)
	if err != nil {
		return nil, err
	}

	profile := &models.UserProfile{
		UID:             rec.UID.First(),
		UUID:            rec.UUID.First(),
		Name:            rec.Name.First(),
		Email:           rec.Mail.First(),
		Timezone:        rec.Timezone.First(),
		Created:         rec.Created.First(),
		Changed:         rec.Changed.First(),
		Credits:         defaultCredits,
		MaxCredits:      defaultMaxCredits,
		MaxBooksAllowed: s.maxBooksAllowed,
		CanBorrowMore:   true,
	}

	borrowed, err := s.loans.BorrowedBooks(ctx, uid)
	if err != nil {
		s.logger.Warn(ctx, "failed to count borrowed books", "error", err.Error())
		return profile, nil
	}

	requested, err := s.loans.RequestedBooks(ctx, uid)
	if err != nil {
		s.logger.Warn(ctx, "failed to count requested books", "error", err.Error())
	} else {
		profile.RequestedBooksCount = len(requested)
	}

	profile.BorrowedBooksCount = countIssued(borrowed)
	profile.CanBorrowMore = profile.BorrowedBooksCount < profile.MaxBooksAllowed

	return profile, nil
}

// CheckEligibility applies the client-side borrowing limit: only loans in
// the issued state count against it.
func (s *ProfileService) CheckEligibility(ctx context.Context, uid string) models.Eligibility {
	borrowed, err := s.loans.BorrowedBooks(ctx, uid)
	if err != nil {
		s.logger.Warn(ctx, "eligibility check failed", "error", err.Error())
		return models.Eligibility{
			CanBorrow: false,
			MaxBooks:  s.maxBooksAllowed,
			Message:   "Unable to check borrowing eligibility. Please try again.",
		}
	}

	current := countIssued(borrowed)
	canBorrow := current < s.maxBooksAllowed

	var message string
	if !canBorrow {
		message = fmt.Sprintf("You have reached the maximum limit of %d books. Please return some books before borrowing more.", s.maxBooksAllowed)
	} else {
		remaining := s.maxBooksAllowed - current
		plural := ""
		if remaining != 1 {
			plural = "s"
		}
		message = fmt.Sprintf("You can borrow %d more book%s.", remaining, plural)
	}

	return models.Eligibility{
		CanBorrow:    canBorrow,
		CurrentBooks: current,
		MaxBooks:     s.maxBooksAllowed,
		Message:      message,
	}
}

func countIssued(books []models.BorrowedBook) int {
	count := 0
	for _, b := range books {
		if b.Status == models.LoanIssued {
			count++
		}
	}
	return count
}
