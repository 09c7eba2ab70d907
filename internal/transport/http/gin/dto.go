package httpgin

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/nexvent/nexvent/internal/domain"
)

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Mobile   string `json:"mobile"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

type UpdateProfileRequest struct {
	Name     string `json:"name"`
	Mobile   string `json:"mobile"`
	ImageURL string `json:"imageUrl"`
}

type TicketTypeInput struct {
	Name          string          `json:"name" binding:"required"`
	Price         decimal.Decimal `json:"price"`
	SaleStartDate string          `json:"saleStartDate" binding:"required"`
	SaleEndDate   string          `json:"saleEndDate" binding:"required"`
	MaxQuantity   int             `json:"maxQuantity" binding:"required,gt=0"`
}

type CreateEventRequest struct {
	Title       string            `json:"title" binding:"required"`
	Description string            `json:"description"`
	Date        string            `json:"date" binding:"required"`
	Time        string            `json:"time"`
	Location    string            `json:"location" binding:"required"`
	Category    string            `json:"category" binding:"required"`
	Status      string            `json:"status"`
	ImageURL    string            `json:"imageUrl"`
	TicketTypes []TicketTypeInput `json:"ticketTypes" binding:"required,min=1,dive"`
}

type SetEventStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type CreateEventResponse struct {
	EventID int64                        `json:"eventId"`
	Event   *domain.EventWithTicketTypes `json:"event"`
}

type CreateBookingRequest struct {
	EventID      int64 `json:"eventId" binding:"required"`
	TicketTypeID int64 `json:"ticketTypeId" binding:"required"`
	Quantity     int   `json:"quantity" binding:"required,gt=0"`
}

type CreateBookingResponse struct {
	BookingID   string          `json:"bookingId"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Status      string          `json:"status"`
}

type InitiatePaymentRequest struct {
	BookingID     string `json:"bookingId" binding:"required,uuid"`
	PaymentMethod string `json:"paymentMethod" binding:"required"`
	CardNumber    string `json:"cardNumber"`
	UpiID         string `json:"upiId"`
}

type InitiatePaymentResponse struct {
	PaymentID     string          `json:"paymentId"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"paymentMethod"`
	PaymentStatus string          `json:"paymentStatus"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// parseDate accepts RFC3339 or a bare calendar date.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
