package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"library-circulation-backend/internal/circulation"
	"library-circulation-backend/internal/metrics"
	"library-circulation-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	engine  *circulation.Engine
	store   store.Store
	webpush *webpush.Options
	metrics *metrics.Metrics
}

// NewHandler creates a new API handler. m may be nil.
func NewHandler(e *circulation.Engine, s store.Store, webpushOptions *webpush.Options, m *metrics.Metrics) *Handler {
	return &Handler{
		engine:  e,
		store:   s,
		webpush: webpushOptions,
		metrics: m,
	}
}

// respondError maps engine error kinds to HTTP status codes.
func (h *Handler) respondError(c *gin.Context, err error) {
	h.metrics.ObserveFailure(err)
	status := http.StatusInternalServerError
	msg := err.Error()
	switch {
	case errors.Is(err, circulation.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, circulation.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, circulation.ErrNoCopiesAvailable),
		errors.Is(err, circulation.ErrDuplicateActiveRequest),
		errors.Is(err, circulation.ErrInvalidStateTransition):
		status = http.StatusConflict
	case errors.Is(err, circulation.ErrInvariantViolation):
		msg = "internal inventory inconsistency"
	default:
		log.Printf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
		msg = "internal error"
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
