package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/deepnote/internal/common"
)

// HTTPError is the JSON error body of every failed API request.
type HTTPError struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func (e HTTPError) Error() string {
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// WriteError writes e as JSON with its status code.
func WriteError(w http.ResponseWriter, e HTTPError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status)
	_ = json.NewEncoder(w).Encode(e)
}

// errorFrom maps a service error to its HTTP form. ok is false for errors
// that should be logged and reported as 500.
func errorFrom(err error) (e HTTPError, ok bool) {
	switch {
	case errors.Is(err, common.ErrValidation):
		return HTTPError{Title: "Validation Error", Message: err.Error(), Status: http.StatusBadRequest}, true
	case errors.Is(err, common.ErrorUnauthorized):
		return HTTPError{Title: "Forbidden", Message: "note belongs to another user", Status: http.StatusForbidden}, true
	case errors.Is(err, common.ErrorNotFound):
		return HTTPError{Title: "Not Found", Message: "the requested resource was unable to be found", Status: http.StatusNotFound}, true
	case errors.Is(err, common.ErrTokenExpired):
		return HTTPError{Title: "Unauthorized", Message: common.ErrTokenExpired.Error(), Status: http.StatusUnauthorized}, true
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrUnauthenticated):
		return HTTPError{Title: "Unauthorized", Message: common.ErrInvalidToken.Error(), Status: http.StatusUnauthorized}, true
	}
	return HTTPError{Title: "Internal Server Error", Message: "internal error", Status: http.StatusInternalServerError}, false
}
