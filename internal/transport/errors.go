package transport

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rpggio/batchreport/internal/chart"
	"github.com/rpggio/batchreport/internal/domain/approval"
	"github.com/rpggio/batchreport/internal/domain/batch"
	"github.com/rpggio/batchreport/internal/render"
)

// errBadRequest marks malformed request bodies and query parameters.
var errBadRequest = errors.New("bad request")

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorBody struct {
	Error apiError `json:"error"`
}

// statusFor maps domain errors onto HTTP status codes and stable error codes.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, batch.ErrInvalidKey):
		return http.StatusBadRequest, "INVALID_BATCH_KEY"
	case errors.Is(err, approval.ErrMissingReason):
		return http.StatusBadRequest, "MISSING_REASON"
	case errors.Is(err, approval.ErrInvalidInput), errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "INVALID_INPUT"
	case errors.Is(err, render.ErrUnknownFormat):
		return http.StatusBadRequest, "UNKNOWN_FORMAT"
	case errors.Is(err, chart.ErrInvalidChannel):
		return http.StatusBadRequest, "INVALID_CHANNEL"
	case errors.Is(err, batch.ErrBatchNotFound):
		return http.StatusNotFound, "BATCH_NOT_FOUND"
	case errors.Is(err, chart.ErrNoData):
		return http.StatusNotFound, "NO_TREND_DATA"
	case errors.Is(err, approval.ErrDuplicateRequest):
		return http.StatusConflict, "DUPLICATE_REQUEST"
	case errors.Is(err, batch.ErrSecurityLogUnavailable):
		return http.StatusServiceUnavailable, "SECURITY_LOG_UNAVAILABLE"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	status, code := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		msg = "internal error"
	}
	c.AbortWithStatusJSON(status, errorBody{Error: apiError{Code: code, Message: msg}})
}
