package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexvent/nexvent/internal/domain"
	"github.com/nexvent/nexvent/internal/repository"
)

type fakePaymentStore struct {
	created   []domain.Payment
	createErr error
	failed    []uuid.UUID
	settled   []settleCall
	chains    map[uuid.UUID]*domain.PaymentWithBooking
}

type settleCall struct {
	id            uuid.UUID
	ticketNumber  string
	qrCodeImage   string
	transactionID string
}

func (f *fakePaymentStore) CreatePending(_ context.Context, p *domain.Payment) error {
	if f.createErr != nil {
		return fmt.Errorf("fake: %w", f.createErr)
	}
	p.PaymentDate = time.Now()
	f.created = append(f.created, *p)
	return nil
}

func (f *fakePaymentStore) Settle(_ context.Context, id uuid.UUID, ticketNumber, qrCodeImage, transactionID string) (bool, error) {
	f.settled = append(f.settled, settleCall{id, ticketNumber, qrCodeImage, transactionID})
	return true, nil
}

func (f *fakePaymentStore) MarkFailed(_ context.Context, id uuid.UUID) error {
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakePaymentStore) GetByID(_ context.Context, id uuid.UUID) (*domain.PaymentWithBooking, error) {
	p, ok := f.chains[id]
	if !ok {
		return nil, fmt.Errorf("fake: %w", repository.ErrNotFound)
	}
	return p, nil
}

func (f *fakePaymentStore) GetByIDForUser(_ context.Context, id uuid.UUID, userID int64) (*domain.PaymentWithBooking, error) {
	p, ok := f.chains[id]
	if !ok || p.Booking.UserID != userID {
		return nil, fmt.Errorf("fake: %w", repository.ErrNotFound)
	}
	return p, nil
}

type fakeBookingStore struct {
	bookings map[uuid.UUID]*domain.BookingWithDetails
}

func (f *fakeBookingStore) GetByIDForUser(_ context.Context, id uuid.UUID, userID int64) (*domain.BookingWithDetails, error) {
	b, ok := f.bookings[id]
	if !ok || b.UserID != userID {
		return nil, fmt.Errorf("fake: %w", repository.ErrNotFound)
	}
	return b, nil
}

type fakeQueue struct {
	scheduled   []uuid.UUID
	scheduleErr error
}

func (f *fakeQueue) Schedule(_ context.Context, paymentID uuid.UUID, _ time.Time) error {
	if f.scheduleErr != nil {
		return f.scheduleErr
	}
	f.scheduled = append(f.scheduled, paymentID)
	return nil
}

type fixture struct {
	svc       *Service
	payments  *fakePaymentStore
	queue     *fakeQueue
	bookingID uuid.UUID
}

func newFixture(bookingStatus domain.BookingStatus) *fixture {
	bookingID := uuid.New()
	payments := &fakePaymentStore{chains: make(map[uuid.UUID]*domain.PaymentWithBooking)}
	bookings := &fakeBookingStore{bookings: map[uuid.UUID]*domain.BookingWithDetails{
		bookingID: {
			Booking: domain.Booking{
				ID:          bookingID,
				UserID:      5,
				EventID:     1,
				Quantity:    2,
				TotalAmount: decimal.RequireFromString("1000.00"),
				Status:      bookingStatus,
			},
		},
	}}
	queue := &fakeQueue{}

	return &fixture{
		svc:       New(payments, bookings, queue, Config{SettleDelay: 2 * time.Second}),
		payments:  payments,
		queue:     queue,
		bookingID: bookingID,
	}
}

func TestService_Initiate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("creates pending payment and schedules settlement", func(t *testing.T) {
		fx := newFixture(domain.BookingPending)

		p, err := fx.svc.Initiate(ctx, 5, InitiateInput{
			BookingID:  fx.bookingID,
			Method:     domain.MethodCard,
			CardNumber: "4242 4242 4242 4242",
		})
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentPending, p.PaymentStatus)
		assert.True(t, p.Amount.Equal(decimal.RequireFromString("1000.00")))
		assert.Equal(t, "card ****4242", p.MethodDetail)
		assert.NotContains(t, p.MethodDetail, "4242 4242")
		assert.Equal(t, []uuid.UUID{p.ID}, fx.queue.scheduled)
	})

	t.Run("masks upi handle", func(t *testing.T) {
		fx := newFixture(domain.BookingPending)

		p, err := fx.svc.Initiate(ctx, 5, InitiateInput{
			BookingID: fx.bookingID,
			Method:    domain.MethodUPI,
			UpiID:     "asha@okbank",
		})
		require.NoError(t, err)
		assert.Equal(t, "upi a***@okbank", p.MethodDetail)
	})

	t.Run("booking owned by someone else", func(t *testing.T) {
		fx := newFixture(domain.BookingPending)

		_, err := fx.svc.Initiate(ctx, 6, InitiateInput{
			BookingID:  fx.bookingID,
			Method:     domain.MethodCard,
			CardNumber: "4242424242424242",
		})
		assert.ErrorIs(t, err, ErrBookingNotFound)
	})

	t.Run("booking not pending", func(t *testing.T) {
		fx := newFixture(domain.BookingConfirmed)

		_, err := fx.svc.Initiate(ctx, 5, InitiateInput{
			BookingID:  fx.bookingID,
			Method:     domain.MethodCard,
			CardNumber: "4242424242424242",
		})
		assert.ErrorIs(t, err, ErrBookingNotPayable)
	})

	t.Run("second active payment rejected", func(t *testing.T) {
		fx := newFixture(domain.BookingPending)
		fx.payments.createErr = repository.ErrConflict

		_, err := fx.svc.Initiate(ctx, 5, InitiateInput{
			BookingID:  fx.bookingID,
			Method:     domain.MethodCard,
			CardNumber: "4242424242424242",
		})
		assert.ErrorIs(t, err, ErrPaymentInProgress)
	})

	t.Run("bad method details rejected before any write", func(t *testing.T) {
		fx := newFixture(domain.BookingPending)

		for name, in := range map[string]InitiateInput{
			"short card":     {BookingID: fx.bookingID, Method: domain.MethodCard, CardNumber: "1234"},
			"upi without @":  {BookingID: fx.bookingID, Method: domain.MethodUPI, UpiID: "asha"},
			"unknown method": {BookingID: fx.bookingID, Method: "cash"},
		} {
			t.Run(name, func(t *testing.T) {
				_, err := fx.svc.Initiate(ctx, 5, in)
				var ve ValidationError
				assert.ErrorAs(t, err, &ve)
				assert.Empty(t, fx.payments.created)
			})
		}
	})

	t.Run("schedule failure fails the payment", func(t *testing.T) {
		fx := newFixture(domain.BookingPending)
		fx.queue.scheduleErr = errors.New("redis down")

		_, err := fx.svc.Initiate(ctx, 5, InitiateInput{
			BookingID:  fx.bookingID,
			Method:     domain.MethodCard,
			CardNumber: "4242424242424242",
		})
		require.Error(t, err)
		require.Len(t, fx.payments.created, 1)
		assert.Equal(t, []uuid.UUID{fx.payments.created[0].ID}, fx.payments.failed)
	})
}

func TestService_Settle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("pending payment is settled with ticket artifacts", func(t *testing.T) {
		fx := newFixture(domain.BookingPending)
		paymentID := uuid.New()
		fx.payments.chains[paymentID] = &domain.PaymentWithBooking{
			Payment: domain.Payment{ID: paymentID, BookingID: fx.bookingID, PaymentStatus: domain.PaymentPending},
			Booking: domain.Booking{ID: fx.bookingID, UserID: 5, EventID: 1},
		}

		require.NoError(t, fx.svc.Settle(ctx, paymentID))

		require.Len(t, fx.payments.settled, 1)
		call := fx.payments.settled[0]
		assert.Regexp(t, `^NV-[0-9A-F]{10}$`, call.ticketNumber)
		assert.Regexp(t, `^TXN-[0-9A-F]{10}$`, call.transactionID)
		assert.True(t, strings.HasPrefix(call.qrCodeImage, "data:image/png;base64,"))
	})

	t.Run("non-pending payment is a no-op", func(t *testing.T) {
		fx := newFixture(domain.BookingPending)
		paymentID := uuid.New()
		fx.payments.chains[paymentID] = &domain.PaymentWithBooking{
			Payment: domain.Payment{ID: paymentID, PaymentStatus: domain.PaymentCompleted},
		}

		require.NoError(t, fx.svc.Settle(ctx, paymentID))
		assert.Empty(t, fx.payments.settled)
	})

	t.Run("unknown payment", func(t *testing.T) {
		fx := newFixture(domain.BookingPending)
		err := fx.svc.Settle(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrPaymentNotFound)
	})
}

func TestService_Get(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fx := newFixture(domain.BookingPending)

	paymentID := uuid.New()
	fx.payments.chains[paymentID] = &domain.PaymentWithBooking{
		Payment: domain.Payment{ID: paymentID, PaymentStatus: domain.PaymentCompleted},
		Booking: domain.Booking{ID: fx.bookingID, UserID: 5},
	}

	t.Run("owner reads payment", func(t *testing.T) {
		p, err := fx.svc.Get(ctx, 5, paymentID)
		require.NoError(t, err)
		assert.Equal(t, paymentID, p.ID)
	})

	t.Run("other user sees not found", func(t *testing.T) {
		_, err := fx.svc.Get(ctx, 6, paymentID)
		assert.ErrorIs(t, err, ErrPaymentNotFound)
	})
}
