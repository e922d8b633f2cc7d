// Package common defines sentinel errors shared by the storage, service and
// transport layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound           = errors.New("not found")
	ErrorConflict           = errors.New("conflict")
	ErrorStorageUnavailable = errors.New("storage unavailable")

	// Service-level errors.
	ErrorValidation = errors.New("validation error")
	ErrorInternal   = errors.New("internal error")
)
