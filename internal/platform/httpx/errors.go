package httpx

import (
	"errors"
	"net/http"

	"github.com/scout-analytics/scout/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrInvalidFilter):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrSourceUnavailable):
		Problem(w, http.StatusServiceUnavailable, "Source Unavailable", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
