package repository

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrSoldOut           = errors.New("not enough tickets remaining")
	ErrOutsideSaleWindow = errors.New("outside ticket sale window")
)
