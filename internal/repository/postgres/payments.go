package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nexvent/nexvent/internal/domain"
)

type PaymentRepo struct {
	pool  *pgxpool.Pool
	store *Store
}

// CreatePending inserts a pending payment. A partial unique index on
// bookings with a non-failed payment turns a concurrent second initiate into
// repository.ErrConflict.
func (r *PaymentRepo) CreatePending(ctx context.Context, p *domain.Payment) error {
	const op = "postgres.PaymentRepo.CreatePending"

	err := r.pool.QueryRow(ctx,
		`INSERT INTO payments
        	(id, booking_id, amount, payment_method, payment_status, method_detail)
       	 VALUES ($1, $2, $3, $4, $5, $6)
      	 RETURNING payment_date`,
		p.ID, p.BookingID, p.Amount, p.PaymentMethod, p.PaymentStatus, p.MethodDetail,
	).Scan(&p.PaymentDate)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

// Settle completes a pending payment and confirms its booking in one
// transaction. The payment row is locked first; a payment that is no longer
// pending is left untouched and Settle reports settled=false, which makes the
// operation idempotent per payment id under at-least-once delivery.
func (r *PaymentRepo) Settle(
	ctx context.Context,
	id uuid.UUID,
	ticketNumber, qrCodeImage, transactionID string,
) (bool, error) {
	const op = "postgres.PaymentRepo.Settle"

	settled := false

	err := r.store.RunTx(ctx, nil, func(ctx context.Context, tx DB) error {
		var status domain.PaymentStatus
		var bookingID uuid.UUID

		if err := tx.QueryRow(ctx,
			`SELECT payment_status, booking_id
           	 FROM payments
          	 WHERE id = $1
          	 FOR UPDATE`,
			id,
		).Scan(&status, &bookingID); err != nil {
			return err
		}

		if status != domain.PaymentPending {
			return nil
		}

		if _, err := tx.Exec(ctx,
			`UPDATE payments
            	SET payment_status = 'completed',
                	ticket_number  = $2,
                	qr_code_image  = $3,
                	transaction_id = $4,
                	payment_date   = NOW()
          	 WHERE id = $1`,
			id, ticketNumber, qrCodeImage, transactionID,
		); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx,
			`UPDATE bookings
            	SET status = 'confirmed'
          	 WHERE id = $1 AND status = 'pending'`,
			bookingID,
		); err != nil {
			return err
		}

		settled = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return settled, nil
}

// MarkFailed moves a still-pending payment to failed. The booking stays
// pending so the client can retry with a fresh payment.
func (r *PaymentRepo) MarkFailed(ctx context.Context, id uuid.UUID) error {
	const op = "postgres.PaymentRepo.MarkFailed"

	_, err := r.pool.Exec(ctx,
		`UPDATE payments
        	SET payment_status = 'failed'
      	 WHERE id = $1 AND payment_status = 'pending'`,
		id,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

const paymentChainQuery = `
	SELECT p.id, p.booking_id, p.amount, p.payment_method, p.payment_status,
       	   p.method_detail, COALESCE(p.transaction_id, ''),
       	   COALESCE(p.ticket_number, ''), COALESCE(p.qr_code_image, ''),
       	   p.payment_date,
       	   b.id, b.user_id, b.event_id, b.ticket_type_id, b.quantity,
       	   b.total_amount, b.status, b.booking_date,
       	   e.id, e.title, e.date, e.location, e.image_url
	FROM payments p
	JOIN bookings b ON b.id = p.booking_id
	JOIN events e ON e.id = b.event_id`

// GetByID returns a payment with its booking chain without an ownership
// scope. Used by settlement, which is keyed by payment id alone.
func (r *PaymentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.PaymentWithBooking, error) {
	const op = "postgres.PaymentRepo.GetByID"

	p, err := r.scanChain(r.pool.QueryRow(ctx, paymentChainQuery+` WHERE p.id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return p, nil
}

// GetByIDForUser returns a payment scoped through the caller's booking chain.
func (r *PaymentRepo) GetByIDForUser(
	ctx context.Context,
	id uuid.UUID,
	userID int64,
) (*domain.PaymentWithBooking, error) {
	const op = "postgres.PaymentRepo.GetByIDForUser"

	p, err := r.scanChain(r.pool.QueryRow(ctx,
		paymentChainQuery+` WHERE p.id = $1 AND b.user_id = $2`,
		id, userID,
	))
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return p, nil
}

// GetBillData loads the full receipt snapshot for a payment owned by the
// caller.
func (r *PaymentRepo) GetBillData(
	ctx context.Context,
	id uuid.UUID,
	userID int64,
) (*domain.BillData, error) {
	const op = "postgres.PaymentRepo.GetBillData"

	var d domain.BillData
	err := r.pool.QueryRow(ctx,
		`SELECT p.id, p.booking_id, p.amount, p.payment_method, p.payment_status,
            	p.method_detail, COALESCE(p.transaction_id, ''),
            	COALESCE(p.ticket_number, ''), COALESCE(p.qr_code_image, ''),
            	p.payment_date,
            	u.name, u.email,
            	e.title, e.date, e.location, e.description,
            	tt.name, tt.price, b.quantity
       	 FROM payments p
       	 JOIN bookings b ON b.id = p.booking_id
       	 JOIN users u ON u.id = b.user_id
       	 JOIN events e ON e.id = b.event_id
       	 JOIN ticket_types tt ON tt.id = b.ticket_type_id
      	 WHERE p.id = $1 AND b.user_id = $2`,
		id, userID,
	).Scan(
		&d.Payment.ID, &d.Payment.BookingID, &d.Payment.Amount,
		&d.Payment.PaymentMethod, &d.Payment.PaymentStatus,
		&d.Payment.MethodDetail, &d.Payment.TransactionID,
		&d.Payment.TicketNumber, &d.Payment.QRCodeImage, &d.Payment.PaymentDate,
		&d.CustomerName, &d.CustomerEmail,
		&d.EventTitle, &d.EventDate, &d.EventLocation, &d.EventDesc,
		&d.TicketType, &d.UnitPrice, &d.Quantity,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &d, nil
}

func (r *PaymentRepo) scanChain(row rowScanner) (*domain.PaymentWithBooking, error) {
	var p domain.PaymentWithBooking

	if err := row.Scan(
		&p.ID, &p.BookingID, &p.Amount, &p.PaymentMethod, &p.PaymentStatus,
		&p.MethodDetail, &p.TransactionID, &p.TicketNumber, &p.QRCodeImage,
		&p.PaymentDate,
		&p.Booking.ID, &p.Booking.UserID, &p.Booking.EventID,
		&p.Booking.TicketTypeID, &p.Booking.Quantity,
		&p.Booking.TotalAmount, &p.Booking.Status, &p.Booking.BookingDate,
		&p.Event.ID, &p.Event.Title, &p.Event.Date, &p.Event.Location, &p.Event.ImageURL,
	); err != nil {
		return nil, err
	}

	return &p, nil
}
