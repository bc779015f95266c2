package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/RudinMaxim/BarberMarket/common"
	"github.com/RudinMaxim/BarberMarket/internal/barbers"
	"github.com/RudinMaxim/BarberMarket/internal/blocking"
	"github.com/RudinMaxim/BarberMarket/internal/bookings"
	"github.com/RudinMaxim/BarberMarket/internal/categories"
	"github.com/RudinMaxim/BarberMarket/internal/loyalty"
	"github.com/RudinMaxim/BarberMarket/internal/notifications"
	"github.com/RudinMaxim/BarberMarket/internal/reviews"
	"github.com/RudinMaxim/BarberMarket/internal/slots"
	"go.uber.org/zap"
)

// HTTPError is an error with the status code it should be reported as.
type HTTPError struct {
	Code    int
	Message string
}

func (e *HTTPError) Error() string {
	return e.Message
}

func NewHTTPError(code int, message string) *HTTPError {
	return &HTTPError{Code: code, Message: message}
}

var (
	ErrUnauthorized = func(msg string) *HTTPError { return NewHTTPError(http.StatusUnauthorized, msg) }
	ErrBadRequest   = func(msg string) *HTTPError { return NewHTTPError(http.StatusBadRequest, msg) }
)

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// statusFor maps domain errors onto HTTP. Unknown errors are 500.
func statusFor(err error) int {
	var httpErr *HTTPError
	var verr *common.ValidationError
	switch {
	case errors.As(err, &httpErr):
		return httpErr.Code
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrForbidden),
		errors.Is(err, bookings.ErrClientBlocked),
		errors.Is(err, reviews.ErrNoVisit):
		return http.StatusForbidden
	case errors.Is(err, bookings.ErrSlotUnavailable),
		errors.Is(err, bookings.ErrInvalidTransition),
		errors.Is(err, bookings.ErrBookingInPast),
		errors.Is(err, blocking.ErrAlreadyBlocked),
		errors.Is(err, reviews.ErrAlreadyReviewed),
		errors.Is(err, categories.ErrCategoryExists),
		errors.Is(err, categories.ErrCategoryInUse),
		errors.Is(err, barbers.ErrLocationExists),
		errors.Is(err, loyalty.ErrNotEnoughPoints):
		return http.StatusConflict
	case errors.Is(err, slots.ErrInvalidAvailabilityWindow),
		errors.Is(err, slots.ErrInvalidServiceDuration),
		errors.Is(err, slots.ErrInvalidStep):
		return http.StatusUnprocessableEntity
	case errors.Is(err, notifications.ErrHubClosed):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	body := errorBody{Error: err.Error()}

	var verr *common.ValidationError
	if errors.As(err, &verr) {
		body.Fields = verr.FieldErrors
	}

	if code == http.StatusInternalServerError {
		s.log.Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		body.Error = "internal server error"
		if errors.Is(err, bookings.ErrSlotsUnavailable) {
			body.Error = bookings.ErrSlotsUnavailable.Error()
		}
	}
	writeJSON(w, code, body)
}
