package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/blackwell-systems/platform-infrastructure-sub001/internal/registry"
)

// Handler serves registry operations over HTTP.
type Handler struct {
	client *registry.Client
	logger *slog.Logger
}

// NewHandler creates a handler backed by the given registry client.
func NewHandler(client *registry.Client, logger *slog.Logger) *Handler {
	return &Handler{client: client, logger: logger}
}

// Health reports the client's health classification. Unhealthy maps to 503
// so load balancers can rotate the instance out.
func (h *Handler) Health(c echo.Context) error {
	hs := h.client.Health()
	status := http.StatusOK
	if hs.Status == registry.StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, hs)
}

// CacheStats reports in-process cache statistics.
func (h *Handler) CacheStats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.client.CacheStats())
}

// ClearCache drops every cached document.
func (h *Handler) ClearCache(c echo.Context) error {
	h.client.ClearCache()
	return c.NoContent(http.StatusNoContent)
}

// Manifest serves the root index document.
func (h *Handler) Manifest(c echo.Context) error {
	m, err := h.client.Manifest(c.Request().Context())
	if err != nil {
		return registryError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

// GetRecord serves one record by category and id.
func (h *Handler) GetRecord(c echo.Context) error {
	r, err := h.client.Record(c.Request().Context(), c.Param("category"), c.Param("id"))
	if err != nil {
		return registryError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

// ListRecords serves every resolvable record of one category in manifest
// order.
func (h *Handler) ListRecords(c echo.Context) error {
	records, err := h.client.List(c.Request().Context(), c.Param("category"))
	if err != nil {
		return registryError(c, err)
	}
	return c.JSON(http.StatusOK, records)
}

// Find filters the candidate set by the requirements in the request body.
func (h *Handler) Find(c echo.Context) error {
	var req registry.Requirements
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("bad_request", "invalid requirements body"))
	}
	records, err := h.client.Find(c.Request().Context(), req)
	if err != nil {
		return registryError(c, err)
	}
	return c.JSON(http.StatusOK, records)
}

// registryError maps the client's typed errors onto HTTP status codes:
// not-found 404, data defects 502, connectivity 503.
func registryError(c echo.Context, err error) error {
	var re *registry.Error
	if errors.As(err, &re) {
		switch re.Kind {
		case registry.KindNotFound:
			return c.JSON(http.StatusNotFound, errorBody(string(re.Kind), re.Message))
		case registry.KindData:
			return c.JSON(http.StatusBadGateway, errorBody(string(re.Kind), re.Message))
		default:
			return c.JSON(http.StatusServiceUnavailable, errorBody(string(re.Kind), re.Message))
		}
	}
	return c.JSON(http.StatusBadRequest, errorBody("bad_request", err.Error()))
}

func errorBody(kind, message string) map[string]any {
	return map[string]any{
		"error": map[string]any{
			"kind":    kind,
			"message": message,
		},
	}
}
