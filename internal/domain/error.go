package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound          = errors.New("entity not found")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrAlreadyExists     = errors.New("entity already exists")
	ErrStoreReset        = errors.New("store document was malformed and has been reset")
	ErrGenerationTimeout = errors.New("generation timed out")
	ErrEmptyGeneration   = errors.New("generator returned empty text")
	ErrUnknownWorkType   = errors.New("unknown work type")
	ErrClassifierFailed  = errors.New("classifier prediction failed")
)
