package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nexvent/nexvent/internal/domain"
	"github.com/nexvent/nexvent/internal/repository"
)

// BookingStore is the slice of the booking repository the service needs.
type BookingStore interface {
	CreateReserved(ctx context.Context, b *domain.Booking) error
	ListByUser(ctx context.Context, userID int64) ([]domain.BookingWithDetails, error)
	GetByIDForUser(ctx context.Context, id uuid.UUID, userID int64) (*domain.BookingWithDetails, error)
}

// TicketTypeStore resolves the ticket type a booking is priced from.
type TicketTypeStore interface {
	GetTicketType(ctx context.Context, id int64) (*domain.TicketType, error)
}

type Service struct {
	bookings BookingStore
	tickets  TicketTypeStore
	now      func() time.Time
}

func New(bookings BookingStore, tickets TicketTypeStore) *Service {
	return &Service{bookings: bookings, tickets: tickets, now: time.Now}
}

type CreateInput struct {
	EventID      int64
	TicketTypeID int64
	Quantity     int
}

// Create reserves tickets for the user. The booking lands in pending status
// with the total priced server-side from the stored ticket type; a later
// settled payment confirms it.
//
// Parameters:
//   - ctx: request-scoped context.
//   - userID: ID of the authenticated user.
//   - in: event, ticket type, and quantity.
//
// Returns:
//   - *domain.Booking: the pending booking.
//   - error: booking.ErrTicketTypeNotFound if the ticket type does not exist
//     or belongs to another event.
//   - error: booking.ErrOutsideSaleWindow when now is outside the sale window.
//   - error: booking.ErrSoldOut when remaining inventory is insufficient.
func (s *Service) Create(ctx context.Context, userID int64, in CreateInput) (*domain.Booking, error) {
	const op = "service.booking.Create"

	if in.Quantity <= 0 {
		return nil, fmt.Errorf("%s: %w", op, ValidationError{Msg: "quantity must be positive"})
	}

	tt, err := s.tickets.GetTicketType(ctx, in.TicketTypeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrTicketTypeNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if tt.EventID != in.EventID {
		return nil, fmt.Errorf("%s: %w", op, ErrTicketTypeNotFound)
	}

	// Early check outside the transaction. The store repeats it under the
	// row lock, so this only saves a round trip.
	now := s.now()
	if now.Before(tt.SaleStartDate) || now.After(tt.SaleEndDate) {
		return nil, fmt.Errorf("%s: %w", op, ErrOutsideSaleWindow)
	}

	b := &domain.Booking{
		ID:           uuid.New(),
		UserID:       userID,
		EventID:      in.EventID,
		TicketTypeID: in.TicketTypeID,
		Quantity:     in.Quantity,
		TotalAmount:  tt.Price.Mul(decimal.NewFromInt(int64(in.Quantity))),
		Status:       domain.BookingPending,
	}

	if err := s.bookings.CreateReserved(ctx, b); err != nil {
		switch {
		case errors.Is(err, repository.ErrSoldOut):
			return nil, fmt.Errorf("%s: %w", op, ErrSoldOut)
		case errors.Is(err, repository.ErrOutsideSaleWindow):
			return nil, fmt.Errorf("%s: %w", op, ErrOutsideSaleWindow)
		case errors.Is(err, repository.ErrNotFound):
			return nil, fmt.Errorf("%s: %w", op, ErrTicketTypeNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return b, nil
}

// ListMine returns the user's bookings, newest first.
func (s *Service) ListMine(ctx context.Context, userID int64) ([]domain.BookingWithDetails, error) {
	const op = "service.booking.ListMine"

	bookings, err := s.bookings.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return bookings, nil
}

// Get returns one of the user's bookings. A booking owned by another user is
// reported as not found.
func (s *Service) Get(ctx context.Context, userID int64, id uuid.UUID) (*domain.BookingWithDetails, error) {
	const op = "service.booking.Get"

	b, err := s.bookings.GetByIDForUser(ctx, id, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrBookingNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return b, nil
}
