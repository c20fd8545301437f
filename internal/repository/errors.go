package repository

import "github.com/pkg/errors"

var (
	ErrAlreadyExists       = errors.New("already exists")
	ErrNotFound            = errors.New("not found")
	ErrNotUnique           = errors.New("more than one row matched")
	ErrUnknownSortProperty = errors.New("unknown sort property")
)
