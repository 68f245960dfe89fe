package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/statement-reconciler/internal/adapters/extractor"
	"github.com/eshaffer321/statement-reconciler/internal/api/dto"
	"github.com/eshaffer321/statement-reconciler/internal/application/service"
	"github.com/eshaffer321/statement-reconciler/internal/domain/reconcile"
	"github.com/eshaffer321/statement-reconciler/internal/domain/statement"
	"github.com/eshaffer321/statement-reconciler/internal/infrastructure/storage"
)

// Base provides shared functionality for all handlers.
type Base struct {
	svc    *service.ReconcileService
	logger *slog.Logger
}

// NewBase creates a new base handler with the given service.
func NewBase(svc *service.ReconcileService, logger *slog.Logger) *Base {
	if logger == nil {
		logger = slog.Default()
	}
	return &Base{svc: svc, logger: logger}
}

// WriteError writes an error response with the given status code.
func (b *Base) WriteError(c *gin.Context, status int, err dto.APIError) {
	c.AbortWithStatusJSON(status, err)
}

// HandleError maps a service error to its HTTP status. resource names the
// entity addressed by the route, e.g. "transaction".
func (b *Base) HandleError(c *gin.Context, err error, resource string) {
	var parseErr *statement.ParseError

	switch {
	case errors.Is(err, storage.ErrExpenseNotFound):
		b.WriteError(c, http.StatusNotFound, dto.NotFoundError("expense"))
	case errors.Is(err, storage.ErrNotFound):
		b.WriteError(c, http.StatusNotFound, dto.NotFoundError(resource))
	case errors.Is(err, reconcile.ErrInvalidTransition), errors.Is(err, storage.ErrExpenseClaimed):
		b.WriteError(c, http.StatusConflict, dto.ConflictError(err.Error()))
	case errors.As(err, &parseErr):
		b.WriteError(c, http.StatusUnprocessableEntity, dto.UnprocessableError(parseErr.Error()))
	case errors.Is(err, service.ErrInvalidExpense):
		b.WriteError(c, http.StatusBadRequest, dto.ValidationError(err.Error()))
	case errors.Is(err, service.ErrExtractorUnavailable), errors.Is(err, extractor.ErrCircuitOpen):
		b.WriteError(c, http.StatusServiceUnavailable, dto.UnavailableError(err.Error()))
	case errors.Is(err, extractor.ErrTimeout):
		b.WriteError(c, http.StatusGatewayTimeout, dto.TimeoutError(err.Error()))
	default:
		b.logger.Error("request failed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", err,
		)
		b.WriteError(c, http.StatusInternalServerError, dto.InternalError())
	}
}

// ParseIntParam parses an integer query parameter with a default value.
func ParseIntParam(c *gin.Context, name string, defaultVal int) int {
	val := c.Query(name)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}
