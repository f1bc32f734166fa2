package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/tutorly/internal/gamification"
	"github.com/abhisek/tutorly/internal/interactions"
	"github.com/abhisek/tutorly/internal/mastery"
	"github.com/abhisek/tutorly/internal/store"
	"github.com/abhisek/tutorly/internal/tutor"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// apiError pins an error to the status and code it is reported with.
type apiError struct {
	status int
	code   string
	err    error
}

func (e *apiError) Error() string { return e.err.Error() }
func (e *apiError) Unwrap() error { return e.err }

func badRequest(err error) *apiError {
	return &apiError{status: http.StatusBadRequest, code: "invalid_request", err: err}
}

func forbidden(err error) *apiError {
	return &apiError{status: http.StatusForbidden, code: "forbidden", err: err}
}

// classify maps domain errors onto HTTP statuses.
func classify(err error) *apiError {
	var ae *apiError
	if errors.As(err, &ae) {
		return ae
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		return &apiError{status: http.StatusNotFound, code: "not_found", err: err}
	case errors.Is(err, store.ErrConflict):
		return &apiError{status: http.StatusConflict, code: "conflict", err: err}
	case errors.Is(err, interactions.ErrInvalidFeedback),
		errors.Is(err, interactions.ErrMissingStudent),
		errors.Is(err, tutor.ErrInvalidQuestion),
		errors.Is(err, gamification.ErrNegativeXP),
		errors.Is(err, gamification.ErrMissingStudent),
		errors.Is(err, mastery.ErrMissingKey):
		return badRequest(err)
	case errors.Is(err, store.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		return &apiError{status: http.StatusServiceUnavailable, code: "unavailable", err: err}
	default:
		return &apiError{status: http.StatusInternalServerError, code: "internal", err: err}
	}
}

func RespondError(c *gin.Context, err error) {
	ae := classify(err)
	msg := ae.err.Error()
	if ae.status >= http.StatusInternalServerError {
		// Storage details stay in the log.
		_ = c.Error(err)
		msg = http.StatusText(ae.status)
	}
	c.AbortWithStatusJSON(ae.status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    ae.code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
