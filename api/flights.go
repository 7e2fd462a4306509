package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Domenick1991/flighttracker/internal/domain"
	"github.com/Domenick1991/flighttracker/internal/service/flights"
	"github.com/gin-gonic/gin"
)

// ClientIDHeader identifies the browser whose recent searches are tracked.
const ClientIDHeader = "X-Client-ID"

// RecentSearches is the small per-client history the UI shows under the search box.
type RecentSearches interface {
	Get(ctx context.Context, clientID string) ([]string, error)
	Push(ctx context.Context, clientID, flightIATA string) error
}

type FlightHandler struct {
	service flights.FlightUseCase
	recent  RecentSearches
	logger  *slog.Logger
}

type errorBody struct {
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

type recentResponse struct {
	Searches []string `json:"searches"`
}

func NewFlightHandler(service flights.FlightUseCase, recent RecentSearches, logger *slog.Logger) *FlightHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FlightHandler{service: service, recent: recent, logger: logger}
}

func (h *FlightHandler) Register(router *gin.RouterGroup) {
	router.GET("/flights", h.search)
	router.GET("/flights/next", h.next)
	router.GET("/recent", h.listRecent)
}

func (h *FlightHandler) search(c *gin.Context) {
	code := c.Query("flight_iata")
	forceSynthetic := c.Query("mock") == "true"

	result, err := h.service.Lookup(c.Request.Context(), code, forceSynthetic)
	if err != nil {
		h.writeError(c, err)
		return
	}

	switch result.Kind {
	case domain.ResultLive, domain.ResultSynthetic:
		if len(result.Flights.Data) > 0 {
			h.remember(c, strings.TrimSpace(code))
		}
		c.JSON(http.StatusOK, result.Flights)
	case domain.ResultUpstreamError:
		c.JSON(result.Error.Status, errorResponse{Error: errorBody{
			Message: result.Error.Message,
			Details: result.Error.Details,
		}})
	default:
		h.logger.Error("unknown lookup result", "kind", result.Kind)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: errorBody{Message: "internal server error"}})
	}
}

func (h *FlightHandler) next(c *gin.Context) {
	resp, err := h.service.Upcoming(c.Request.Context(), c.Query("flight_iata"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *FlightHandler) listRecent(c *gin.Context) {
	if h.recent == nil {
		c.JSON(http.StatusOK, recentResponse{Searches: []string{}})
		return
	}
	searches, err := h.recent.Get(c.Request.Context(), clientID(c))
	if err != nil {
		h.logger.Warn("failed to load recent searches", "error", err)
		searches = []string{}
	}
	c.JSON(http.StatusOK, recentResponse{Searches: searches})
}

func (h *FlightHandler) remember(c *gin.Context, code string) {
	if h.recent == nil {
		return
	}
	if err := h.recent.Push(c.Request.Context(), clientID(c), code); err != nil {
		h.logger.Warn("failed to save recent search", "flight_iata", code, "error", err)
	}
}

func (h *FlightHandler) writeError(c *gin.Context, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		c.JSON(verr.StatusCode(), errorResponse{Error: errorBody{Message: verr.Error()}})
		return
	}
	h.logger.Error("flight lookup failed", "error", err)
	c.JSON(http.StatusInternalServerError, errorResponse{Error: errorBody{Message: "internal server error"}})
}

func clientID(c *gin.Context) string {
	if id := strings.TrimSpace(c.GetHeader(ClientIDHeader)); id != "" {
		return id
	}
	return c.ClientIP()
}
