package api

import (
	"errors"
	"net/http"

	"github.com/tendant/content-parts/pkg/contentitem"
)

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, contentitem.ErrItemNotFound),
		errors.Is(err, contentitem.ErrPartNotFound),
		errors.Is(err, contentitem.ErrSnapshotNotFound),
		errors.Is(err, contentitem.ErrStorageBackendNotFound):
		return http.StatusNotFound
	case errors.Is(err, contentitem.ErrRequiredPartMissing):
		return http.StatusUnprocessableEntity
	case errors.Is(err, contentitem.ErrItemExists):
		return http.StatusConflict
	case errors.Is(err, contentitem.ErrURLNotSupported):
		return http.StatusNotImplemented
	case errors.Is(err, contentitem.ErrInvalidPartName),
		errors.Is(err, contentitem.ErrPartTypeMismatch):
		return http.StatusBadRequest
	}

	var partErr *contentitem.PartError
	if errors.As(err, &partErr) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
