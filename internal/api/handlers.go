package api

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/githubtune/githubtune/internal/cache"
	"github.com/githubtune/githubtune/internal/contrib"
	gerrors "github.com/githubtune/githubtune/internal/errors"
	"github.com/githubtune/githubtune/internal/health"
	"github.com/githubtune/githubtune/internal/metrics"
)

// ContributionSource aggregates a user's full contribution history.
type ContributionSource interface {
	Aggregate(ctx context.Context, username string) (contrib.All, error)
}

// Handlers holds dependencies for the HTTP handlers.
type Handlers struct {
	source  ContributionSource
	cache   *cache.Cache[string, contrib.All]
	checker *health.Checker
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewHandlers creates the handler set. cache and metrics may be nil.
func NewHandlers(source ContributionSource, c *cache.Cache[string, contrib.All], checker *health.Checker, m *metrics.Metrics, logger zerolog.Logger) *Handlers {
	return &Handlers{
		source:  source,
		cache:   c,
		checker: checker,
		metrics: m,
		logger:  logger.With().Str("component", "handlers").Logger(),
	}
}

// GetContributions handles GET /api/contributions?username=x.
func (h *Handlers) GetContributions(c *fiber.Ctx) error {
	start := time.Now()
	username := c.Query("username")

	if err := validateUsername(username); err != nil {
		return h.finish(c, start, errorResponse(c, fiber.StatusBadRequest,
			"invalid_username", err.Error()))
	}

	if h.cache != nil {
		if all, ok := h.cache.Get(username); ok {
			h.recordCache("hit")
			return h.finish(c, start, c.JSON(all))
		}
		h.recordCache("miss")
	}

	all, err := h.source.Aggregate(c.UserContext(), username)
	if err != nil {
		h.logger.Warn().Err(err).Str("username", username).Msg("aggregation failed")
		return h.finish(c, start, h.upstreamError(c, err))
	}

	if h.cache != nil {
		h.cache.Put(username, all)
	}
	return h.finish(c, start, c.JSON(all))
}

// upstreamError maps the scrape error taxonomy onto HTTP statuses.
func (h *Handlers) upstreamError(c *fiber.Ctx, err error) error {
	var ue *gerrors.UpstreamError
	switch {
	case errors.As(err, &ue) && ue.Kind == gerrors.KindFetch && ue.StatusCode == 404:
		return errorResponse(c, fiber.StatusNotFound,
			"user_not_found", "GitHub has no such user")
	case errors.As(err, &ue):
		// Fetch failures and shape mismatches are both upstream trouble.
		return errorResponse(c, fiber.StatusBadGateway,
			"upstream_"+ue.Kind, "GitHub did not return contribution data")
	case errors.Is(err, gerrors.ErrTableNotFound),
		errors.Is(err, gerrors.ErrStructureInvalid),
		errors.Is(err, gerrors.ErrUnexpectedRowCount):
		return errorResponse(c, fiber.StatusBadGateway,
			"upstream_markup", "GitHub's contribution markup changed shape")
	default:
		return errorResponse(c, fiber.StatusInternalServerError,
			"internal", "aggregation failed")
	}
}

// Liveness handles GET /healthz.
func (h *Handlers) Liveness(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Readiness handles GET /readyz.
func (h *Handlers) Readiness(c *fiber.Ctx) error {
	if h.checker != nil && !h.checker.IsReady(c.Context()) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "not_ready"})
	}
	return c.JSON(fiber.Map{"status": "ready"})
}

func (h *Handlers) finish(c *fiber.Ctx, start time.Time, err error) error {
	if h.metrics != nil {
		h.metrics.RequestDuration.
			WithLabelValues(strconv.Itoa(c.Response().StatusCode())).
			Observe(time.Since(start).Seconds())
	}
	return err
}

func (h *Handlers) recordCache(result string) {
	if h.metrics != nil {
		h.metrics.RecordCache(result)
	}
}

// errorResponse writes the wire error shape: {"error", "statusCode", "message"}.
func errorResponse(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error":      code,
		"statusCode": status,
		"message":    message,
	})
}
