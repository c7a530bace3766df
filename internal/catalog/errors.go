package catalog

import "errors"

var (
	ErrNotFound     = errors.New("product not found")
	ErrStorageRead  = errors.New("catalog storage read failed")
	ErrStorageWrite = errors.New("catalog storage write failed")
	ErrInvalidInput = errors.New("invalid input")
)
