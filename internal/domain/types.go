package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EventCategory string

const (
	CategoryWorkshop  EventCategory = "workshop"
	CategoryConcert   EventCategory = "concert"
	CategorySports    EventCategory = "sports"
	CategoryHackathon EventCategory = "hackathon"
	CategoryOther     EventCategory = "other"
)

func (c EventCategory) Valid() bool {
	switch c {
	case CategoryWorkshop, CategoryConcert, CategorySports, CategoryHackathon, CategoryOther:
		return true
	}
	return false
}

type EventStatus string

const (
	EventDraft     EventStatus = "draft"
	EventPublished EventStatus = "published"
)

func (s EventStatus) Valid() bool {
	return s == EventDraft || s == EventPublished
}

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

type PaymentMethod string

const (
	MethodCard PaymentMethod = "card"
	MethodUPI  PaymentMethod = "upi"
)

func (m PaymentMethod) Valid() bool {
	return m == MethodCard || m == MethodUPI
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Mobile       string    `json:"mobile"`
	ImageURL     string    `json:"imageUrl,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Event struct {
	ID          int64         `json:"id"`
	OrganizerID int64         `json:"organizerId"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Date        time.Time     `json:"date"`
	Time        string        `json:"time"`
	Location    string        `json:"location"`
	Category    EventCategory `json:"category"`
	Status      EventStatus   `json:"status"`
	ImageURL    string        `json:"imageUrl,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

type TicketType struct {
	ID            int64           `json:"id"`
	EventID       int64           `json:"eventId"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	SaleStartDate time.Time       `json:"saleStartDate"`
	SaleEndDate   time.Time       `json:"saleEndDate"`
	MaxQuantity   int             `json:"maxQuantity"`
}

type EventWithTicketTypes struct {
	Event
	TicketTypes []TicketType `json:"ticketTypes"`
}

type Booking struct {
	ID           uuid.UUID       `json:"id"`
	UserID       int64           `json:"userId"`
	EventID      int64           `json:"eventId"`
	TicketTypeID int64           `json:"ticketTypeId"`
	Quantity     int             `json:"quantity"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	Status       BookingStatus   `json:"status"`
	BookingDate  time.Time       `json:"bookingDate"`
}

// EventSummary is the slice of an event embedded in booking and payment views.
type EventSummary struct {
	ID       int64     `json:"id"`
	Title    string    `json:"title"`
	Date     time.Time `json:"date"`
	Location string    `json:"location"`
	ImageURL string    `json:"imageUrl,omitempty"`
}

type PaymentSummary struct {
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	TicketNumber  string        `json:"ticketNumber,omitempty"`
	QRCodeImage   string        `json:"qrCodeImage,omitempty"`
}

type BookingWithDetails struct {
	Booking
	Event   EventSummary    `json:"event"`
	Payment *PaymentSummary `json:"payment,omitempty"`
}

type Payment struct {
	ID            uuid.UUID       `json:"id"`
	BookingID     uuid.UUID       `json:"bookingId"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	PaymentStatus PaymentStatus   `json:"paymentStatus"`
	// MethodDetail is a masked reference such as "card ****4242". Raw card
	// or UPI fields are never persisted.
	MethodDetail  string    `json:"methodDetail,omitempty"`
	TransactionID string    `json:"transactionId,omitempty"`
	TicketNumber  string    `json:"ticketNumber,omitempty"`
	QRCodeImage   string    `json:"qrCodeImage,omitempty"`
	PaymentDate   time.Time `json:"paymentDate"`
}

type PaymentWithBooking struct {
	Payment
	Booking Booking      `json:"booking"`
	Event   EventSummary `json:"event"`
}

// BillData is the full snapshot a bill is rendered from. Rendering is pure
// given this value.
type BillData struct {
	Payment       Payment
	CustomerName  string
	CustomerEmail string
	EventTitle    string
	EventDate     time.Time
	EventLocation string
	EventDesc     string
	TicketType    string
	UnitPrice     decimal.Decimal
	Quantity      int
}
