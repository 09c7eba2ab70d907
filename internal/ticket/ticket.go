// Package ticket generates ticket numbers, transaction ids, and the QR code
// image embedded in confirmed tickets.
package ticket

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
)

const (
	numberPrefix      = "NV-"
	transactionPrefix = "TXN-"
)

// NewNumber returns a ticket number like NV-3F9A0C21D4.
func NewNumber() (string, error) {
	code, err := randomCode(5)
	if err != nil {
		return "", fmt.Errorf("ticket.NewNumber:%w", err)
	}

	return numberPrefix + code, nil
}

// NewTransactionID returns a simulated gateway reference like TXN-8B12EF90A3.
func NewTransactionID() (string, error) {
	code, err := randomCode(5)
	if err != nil {
		return "", fmt.Errorf("ticket.NewTransactionID:%w", err)
	}

	return transactionPrefix + code, nil
}

func randomCode(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return strings.ToUpper(hex.EncodeToString(b)), nil
}

type qrPayload struct {
	TicketNumber string `json:"ticketNumber"`
	EventID      int64  `json:"eventId"`
	BookingID    string `json:"bookingId"`
}

// QRCodePNG renders the ticket identity as a PNG QR code and returns it as a
// data URI, ready to drop into an <img> tag.
func QRCodePNG(ticketNumber string, eventID int64, bookingID uuid.UUID) (string, error) {
	const op = "ticket.QRCodePNG"

	payload, err := json.Marshal(qrPayload{
		TicketNumber: ticketNumber,
		EventID:      eventID,
		BookingID:    bookingID.String(),
	})
	if err != nil {
		return "", fmt.Errorf("%s:%w", op, err)
	}

	png, err := qrcode.Encode(string(payload), qrcode.Medium, 256)
	if err != nil {
		return "", fmt.Errorf("%s:%w", op, err)
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
