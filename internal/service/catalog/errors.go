package catalog

import "errors"

var ErrEventNotFound = errors.New("event not found")

type ValidationError struct {
	Msg string
}

func (e ValidationError) Error() string {
	return e.Msg
}
