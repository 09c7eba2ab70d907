package booking

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexvent/nexvent/internal/domain"
	"github.com/nexvent/nexvent/internal/repository"
)

type fakeBookingStore struct {
	created   []domain.Booking
	createErr error
	details   map[uuid.UUID]*domain.BookingWithDetails
}

func (f *fakeBookingStore) CreateReserved(_ context.Context, b *domain.Booking) error {
	if f.createErr != nil {
		return fmt.Errorf("fake: %w", f.createErr)
	}
	b.BookingDate = time.Now()
	f.created = append(f.created, *b)
	return nil
}

func (f *fakeBookingStore) ListByUser(_ context.Context, userID int64) ([]domain.BookingWithDetails, error) {
	var out []domain.BookingWithDetails
	for _, d := range f.details {
		if d.UserID == userID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeBookingStore) GetByIDForUser(_ context.Context, id uuid.UUID, userID int64) (*domain.BookingWithDetails, error) {
	d, ok := f.details[id]
	if !ok || d.UserID != userID {
		return nil, fmt.Errorf("fake: %w", repository.ErrNotFound)
	}
	return d, nil
}

type fakeTicketTypeStore struct {
	types map[int64]*domain.TicketType
}

func (f *fakeTicketTypeStore) GetTicketType(_ context.Context, id int64) (*domain.TicketType, error) {
	tt, ok := f.types[id]
	if !ok {
		return nil, fmt.Errorf("fake: %w", repository.ErrNotFound)
	}
	return tt, nil
}

var saleNow = time.Date(2026, 9, 15, 12, 0, 0, 0, time.UTC)

func newTestService(createErr error) (*Service, *fakeBookingStore) {
	bookings := &fakeBookingStore{
		createErr: createErr,
		details:   make(map[uuid.UUID]*domain.BookingWithDetails),
	}
	tickets := &fakeTicketTypeStore{types: map[int64]*domain.TicketType{
		10: {
			ID:            10,
			EventID:       1,
			Name:          "General",
			Price:         decimal.RequireFromString("333.33"),
			SaleStartDate: saleNow.Add(-24 * time.Hour),
			SaleEndDate:   saleNow.Add(24 * time.Hour),
			MaxQuantity:   100,
		},
	}}

	svc := New(bookings, tickets)
	svc.now = func() time.Time { return saleNow }
	return svc, bookings
}

func TestService_Create(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("prices the booking server-side with exact decimals", func(t *testing.T) {
		svc, store := newTestService(nil)

		b, err := svc.Create(ctx, 5, CreateInput{EventID: 1, TicketTypeID: 10, Quantity: 3})
		require.NoError(t, err)
		assert.Equal(t, domain.BookingPending, b.Status)
		assert.True(t, b.TotalAmount.Equal(decimal.RequireFromString("999.99")),
			"got %s", b.TotalAmount)
		require.Len(t, store.created, 1)
	})

	t.Run("zero quantity", func(t *testing.T) {
		svc, _ := newTestService(nil)

		_, err := svc.Create(ctx, 5, CreateInput{EventID: 1, TicketTypeID: 10, Quantity: 0})
		var ve ValidationError
		assert.ErrorAs(t, err, &ve)
	})

	t.Run("unknown ticket type", func(t *testing.T) {
		svc, _ := newTestService(nil)

		_, err := svc.Create(ctx, 5, CreateInput{EventID: 1, TicketTypeID: 999, Quantity: 1})
		assert.ErrorIs(t, err, ErrTicketTypeNotFound)
	})

	t.Run("ticket type of another event", func(t *testing.T) {
		svc, _ := newTestService(nil)

		_, err := svc.Create(ctx, 5, CreateInput{EventID: 2, TicketTypeID: 10, Quantity: 1})
		assert.ErrorIs(t, err, ErrTicketTypeNotFound)
	})

	t.Run("outside sale window", func(t *testing.T) {
		svc, _ := newTestService(nil)
		svc.now = func() time.Time { return saleNow.Add(48 * time.Hour) }

		_, err := svc.Create(ctx, 5, CreateInput{EventID: 1, TicketTypeID: 10, Quantity: 1})
		assert.ErrorIs(t, err, ErrOutsideSaleWindow)
	})

	t.Run("sold out reported by store", func(t *testing.T) {
		svc, _ := newTestService(repository.ErrSoldOut)

		_, err := svc.Create(ctx, 5, CreateInput{EventID: 1, TicketTypeID: 10, Quantity: 1})
		assert.ErrorIs(t, err, ErrSoldOut)
	})
}

func TestService_Get(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, store := newTestService(nil)

	id := uuid.New()
	store.details[id] = &domain.BookingWithDetails{
		Booking: domain.Booking{ID: id, UserID: 5, Status: domain.BookingPending},
	}

	t.Run("owner reads booking", func(t *testing.T) {
		b, err := svc.Get(ctx, 5, id)
		require.NoError(t, err)
		assert.Equal(t, id, b.ID)
	})

	t.Run("other user sees not found", func(t *testing.T) {
		_, err := svc.Get(ctx, 6, id)
		assert.ErrorIs(t, err, ErrBookingNotFound)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := svc.Get(ctx, 5, uuid.New())
		assert.ErrorIs(t, err, ErrBookingNotFound)
	})
}
