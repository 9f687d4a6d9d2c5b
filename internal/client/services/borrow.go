package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/libkeeper/internal/client/api"
	"github.com/dmitrijs2005/libkeeper/internal/client/catalog"
	"github.com/dmitrijs2005/libkeeper/internal/client/models"
	"github.com/dmitrijs2005/libkeeper/internal/logging"
)

// ReserveResult is the outcome of a reservation attempt, with a message
// ready to show the user either way.
type ReserveResult struct {
	Success     bool
	Message     string
	Reservation *models.Reservation
}

type BorrowService struct {
	client  api.Client
	catalog *catalog.Catalog
	profile *ProfileService
	logger  logging.Logger
}

func NewBorrowService(client api.Client, cat *catalog.Catalog, profile *ProfileService, logger logging.Logger) *BorrowService {
	return &BorrowService{
		client:  client,
		catalog: cat,
		profile: profile,
		logger:  logger.With("module", "borrow"),
	}
}

// Reserve places a book request. The borrowing limit is checked first;
// then the book's UUID is mapped to the numeric ID the reservation
// endpoint keys on.
func (s *BorrowService) Reserve(ctx context.Context, uid, bookUUID string) ReserveResult {
	eligibility := s.profile.CheckEligibility(ctx, uid)
	if !eligibility.CanBorrow {
		return ReserveResult{Success: false, Message: eligibility.Message}
	}

	internalID, title, err := s.catalog.BookInternalID(ctx, bookUUID)
	if err != nil {
		return ReserveResult{Success: false, Message: reserveErrorMessage(err)}
	}

	payload := api.NewReservationPayload(uid, internalID)
	if err := s.client.Reserve(ctx, payload); err != nil {
		s.logger.Error(ctx, "reservation failed", "book", bookUUID, "error", err.Error())
		return ReserveResult{Success: false, Message: reserveErrorMessage(err)}
	}

	s.logger.Info(ctx, "book reserved", "book", bookUUID, "internal_id", internalID)

	return ReserveResult{
		Success: true,
		Message: fmt.Sprintf("Book %q has been successfully reserved!", title),
		Reservation: &models.Reservation{
			ID:         fmt.Sprintf("%d", time.Now().UnixMilli()),
			BookID:     bookUUID,
			BookTitle:  title,
			ReservedAt: time.Now().Format(time.RFC3339),
			Status:     "active",
		},
	}
}

func reserveErrorMessage(err error) string {
	switch api.StatusOf(err) {
	case 404:
		return "Book not found or not available for reservation."
	case 401, 403:
		return "Authentication failed. Please login again."
	case 400:
		return "Invalid reservation request. Please check your borrowing limits."
	case -1:
		return "Failed to reserve book. Please try again."
	default:
		return err.Error()
	}
}
