package booking

import "errors"

var (
	ErrBookingNotFound    = errors.New("booking not found")
	ErrTicketTypeNotFound = errors.New("ticket type not found")
	ErrSoldOut            = errors.New("not enough tickets remaining")
	ErrOutsideSaleWindow  = errors.New("tickets are not on sale right now")
)

type ValidationError struct {
	Msg string
}

func (e ValidationError) Error() string {
	return e.Msg
}
