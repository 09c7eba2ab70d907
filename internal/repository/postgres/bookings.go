package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nexvent/nexvent/internal/domain"
	"github.com/nexvent/nexvent/internal/repository"
)

type BookingRepo struct {
	pool  *pgxpool.Pool
	store *Store
}

// CreateReserved inserts a pending booking. The ticket type row is locked for
// the duration of the transaction so the remaining-inventory check and the
// insert are atomic.
//
// Returns:
//   - error: repository.ErrNotFound when the ticket type does not exist.
//   - error: repository.ErrOutsideSaleWindow when now is outside the sale window.
//   - error: repository.ErrSoldOut when remaining inventory < quantity.
func (r *BookingRepo) CreateReserved(ctx context.Context, b *domain.Booking) error {
	const op = "postgres.BookingRepo.CreateReserved"

	err := r.store.RunTx(ctx, nil, func(ctx context.Context, tx DB) error {
		var saleStart, saleEnd time.Time
		var maxQuantity int

		if err := tx.QueryRow(ctx,
			`SELECT sale_start_date, sale_end_date, max_quantity
           	 FROM ticket_types
          	 WHERE id = $1
          	 FOR UPDATE`,
			b.TicketTypeID,
		).Scan(&saleStart, &saleEnd, &maxQuantity); err != nil {
			return err
		}

		now := time.Now()
		if now.Before(saleStart) || now.After(saleEnd) {
			return repository.ErrOutsideSaleWindow
		}

		var booked int
		if err := tx.QueryRow(ctx,
			`SELECT COALESCE(SUM(quantity), 0)
           	 FROM bookings
          	 WHERE ticket_type_id = $1 AND status <> 'cancelled'`,
			b.TicketTypeID,
		).Scan(&booked); err != nil {
			return err
		}

		if booked+b.Quantity > maxQuantity {
			return repository.ErrSoldOut
		}

		return tx.QueryRow(ctx,
			`INSERT INTO bookings
            	(id, user_id, event_id, ticket_type_id, quantity, total_amount, status)
       	 	 VALUES ($1, $2, $3, $4, $5, $6, $7)
      	 	 RETURNING booking_date`,
			b.ID, b.UserID, b.EventID, b.TicketTypeID,
			b.Quantity, b.TotalAmount, b.Status,
		).Scan(&b.BookingDate)
	})
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

const bookingDetailQuery = `
	SELECT b.id, b.user_id, b.event_id, b.ticket_type_id, b.quantity,
       	   b.total_amount, b.status, b.booking_date,
       	   e.id, e.title, e.date, e.location, e.image_url,
       	   p.payment_status, p.payment_method, p.ticket_number, p.qr_code_image
	FROM bookings b
	JOIN events e ON e.id = b.event_id
	LEFT JOIN LATERAL (
		SELECT payment_status, payment_method, ticket_number, qr_code_image
		FROM payments
		WHERE booking_id = b.id
		ORDER BY payment_date DESC
		LIMIT 1
	) p ON true`

// ListByUser returns the user's bookings with event and latest-payment
// summaries, newest first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID int64) ([]domain.BookingWithDetails, error) {
	const op = "postgres.BookingRepo.ListByUser"

	rows, err := r.pool.Query(ctx,
		bookingDetailQuery+`
	WHERE b.user_id = $1
	ORDER BY b.booking_date DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}
	defer rows.Close()

	bookings := []domain.BookingWithDetails{}
	for rows.Next() {
		b, err := scanBookingDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		bookings = append(bookings, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return bookings, nil
}

// GetByIDForUser returns a single booking scoped to its owner. A booking owned
// by someone else is indistinguishable from a missing one.
func (r *BookingRepo) GetByIDForUser(
	ctx context.Context,
	id uuid.UUID,
	userID int64,
) (*domain.BookingWithDetails, error) {
	const op = "postgres.BookingRepo.GetByIDForUser"

	rows, err := r.pool.Query(ctx,
		bookingDetailQuery+`
	WHERE b.id = $1 AND b.user_id = $2`,
		id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		return nil, fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	b, err := scanBookingDetail(rows)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return b, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBookingDetail(row rowScanner) (*domain.BookingWithDetails, error) {
	var b domain.BookingWithDetails
	var payStatus, payMethod, ticketNumber, qrImage *string

	if err := row.Scan(
		&b.ID, &b.UserID, &b.EventID, &b.TicketTypeID, &b.Quantity,
		&b.TotalAmount, &b.Status, &b.BookingDate,
		&b.Event.ID, &b.Event.Title, &b.Event.Date, &b.Event.Location, &b.Event.ImageURL,
		&payStatus, &payMethod, &ticketNumber, &qrImage,
	); err != nil {
		return nil, err
	}

	if payStatus != nil {
		p := &domain.PaymentSummary{
			PaymentStatus: domain.PaymentStatus(*payStatus),
			PaymentMethod: domain.PaymentMethod(*payMethod),
		}
		if ticketNumber != nil {
			p.TicketNumber = *ticketNumber
		}
		if qrImage != nil {
			p.QRCodeImage = *qrImage
		}
		b.Payment = p
	}

	return &b, nil
}
