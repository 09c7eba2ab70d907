package payment

import "errors"

var (
	ErrPaymentNotFound   = errors.New("payment not found")
	ErrBookingNotFound   = errors.New("booking not found")
	ErrBookingNotPayable = errors.New("booking is not awaiting payment")
	ErrPaymentInProgress = errors.New("booking already has an active payment")
)

type ValidationError struct {
	Msg string
}

func (e ValidationError) Error() string {
	return e.Msg
}
