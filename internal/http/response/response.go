package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	pkgerrors "github.com/notelab/notebook-backend/internal/pkg/errors"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondOK(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// RespondError maps service sentinels onto HTTP statuses and emits the
// standard error envelope.
func RespondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := "internal"
	switch {
	case errors.Is(err, pkgerrors.ErrInvalidArgument), errors.Is(err, pkgerrors.ErrInvalidTransition):
		status = http.StatusBadRequest
		code = "invalid_argument"
	case errors.Is(err, pkgerrors.ErrUnauthorized):
		status = http.StatusUnauthorized
		code = "unauthorized"
	case errors.Is(err, pkgerrors.ErrForbidden):
		status = http.StatusForbidden
		code = "forbidden"
	case errors.Is(err, pkgerrors.ErrNotFound):
		status = http.StatusNotFound
		code = "not_found"
	}
	msg := "internal server error"
	if status != http.StatusInternalServerError && err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{Error: APIError{Message: msg, Code: code}})
}

func RespondBadRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorEnvelope{Error: APIError{Message: msg, Code: "invalid_argument"}})
}
