package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nexvent/nexvent/internal/domain"
	"github.com/nexvent/nexvent/internal/repository"
	"github.com/nexvent/nexvent/internal/ticket"
)

// PaymentStore is the slice of the payment repository the service needs.
type PaymentStore interface {
	CreatePending(ctx context.Context, p *domain.Payment) error
	Settle(ctx context.Context, id uuid.UUID, ticketNumber, qrCodeImage, transactionID string) (bool, error)
	MarkFailed(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.PaymentWithBooking, error)
	GetByIDForUser(ctx context.Context, id uuid.UUID, userID int64) (*domain.PaymentWithBooking, error)
}

// BookingStore resolves the booking a payment is initiated against.
type BookingStore interface {
	GetByIDForUser(ctx context.Context, id uuid.UUID, userID int64) (*domain.BookingWithDetails, error)
}

// Queue schedules a payment for settlement at a future time.
type Queue interface {
	Schedule(ctx context.Context, paymentID uuid.UUID, at time.Time) error
}

type Config struct {
	SettleDelay time.Duration
}

type Service struct {
	payments PaymentStore
	bookings BookingStore
	queue    Queue
	cfg      Config
	now      func() time.Time
}

func New(payments PaymentStore, bookings BookingStore, queue Queue, cfg Config) *Service {
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = 2 * time.Second
	}

	return &Service{
		payments: payments,
		bookings: bookings,
		queue:    queue,
		cfg:      cfg,
		now:      time.Now,
	}
}

type InitiateInput struct {
	BookingID  uuid.UUID
	Method     domain.PaymentMethod
	CardNumber string
	UpiID      string
}

// Initiate creates a pending payment for the booking and schedules its
// settlement. The raw card number or UPI id is reduced to a masked reference
// before anything is stored.
//
// Parameters:
//   - ctx: request-scoped context.
//   - userID: ID of the authenticated user.
//   - in: booking id and payment method details.
//
// Returns:
//   - *domain.Payment: the pending payment.
//   - error: payment.ErrBookingNotFound if the booking is missing or owned by
//     someone else.
//   - error: payment.ErrBookingNotPayable if the booking is not pending.
//   - error: payment.ErrPaymentInProgress if a non-failed payment already
//     exists for the booking.
func (s *Service) Initiate(ctx context.Context, userID int64, in InitiateInput) (*domain.Payment, error) {
	const op = "service.payment.Initiate"

	detail, err := maskMethodDetail(in)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	b, err := s.bookings.GetByIDForUser(ctx, in.BookingID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrBookingNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if b.Status != domain.BookingPending {
		return nil, fmt.Errorf("%s: %w", op, ErrBookingNotPayable)
	}

	p := &domain.Payment{
		ID:            uuid.New(),
		BookingID:     in.BookingID,
		Amount:        b.TotalAmount,
		PaymentMethod: in.Method,
		PaymentStatus: domain.PaymentPending,
		MethodDetail:  detail,
	}

	if err := s.payments.CreatePending(ctx, p); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%s: %w", op, ErrPaymentInProgress)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.queue.Schedule(ctx, p.ID, s.now().Add(s.cfg.SettleDelay)); err != nil {
		// The payment cannot settle if it never reaches the queue. Fail it
		// now so the booking can be paid again.
		_ = s.payments.MarkFailed(ctx, p.ID)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return p, nil
}

// Settle completes a pending payment: it generates the ticket number, QR
// code, and transaction reference, then confirms the booking. A payment that
// already left pending status is a no-op, so redelivery is safe.
func (s *Service) Settle(ctx context.Context, id uuid.UUID) error {
	const op = "service.payment.Settle"

	p, err := s.payments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrPaymentNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if p.PaymentStatus != domain.PaymentPending {
		return nil
	}

	ticketNumber, err := ticket.NewNumber()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	transactionID, err := ticket.NewTransactionID()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	qrImage, err := ticket.QRCodePNG(ticketNumber, p.Booking.EventID, p.BookingID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.payments.Settle(ctx, id, ticketNumber, qrImage, transactionID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Fail marks a still-pending payment as failed. Used when settlement attempts
// are exhausted.
func (s *Service) Fail(ctx context.Context, id uuid.UUID) error {
	const op = "service.payment.Fail"

	if err := s.payments.MarkFailed(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Get returns one of the user's payments with its booking chain.
func (s *Service) Get(ctx context.Context, userID int64, id uuid.UUID) (*domain.PaymentWithBooking, error) {
	const op = "service.payment.Get"

	p, err := s.payments.GetByIDForUser(ctx, id, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrPaymentNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return p, nil
}

func maskMethodDetail(in InitiateInput) (string, error) {
	switch in.Method {
	case domain.MethodCard:
		digits := strings.Map(func(r rune) rune {
			if r >= '0' && r <= '9' {
				return r
			}
			return -1
		}, in.CardNumber)
		if len(digits) < 12 {
			return "", ValidationError{Msg: "card number is invalid"}
		}
		return "card ****" + digits[len(digits)-4:], nil

	case domain.MethodUPI:
		at := strings.IndexByte(in.UpiID, '@')
		if at < 1 || at == len(in.UpiID)-1 {
			return "", ValidationError{Msg: "upi id is invalid"}
		}
		return "upi " + in.UpiID[:1] + "***" + in.UpiID[at:], nil
	}

	return "", ValidationError{Msg: "payment method must be card or upi"}
}
