package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type BookingCounter interface {
	Count(ctx context.Context) (int, error)
}

type HealthHandler struct {
	started  time.Time
	bookings BookingCounter
	now      func() time.Time
}

type healthResponse struct {
	Status    string  `json:"status"`
	Timestamp string  `json:"timestamp"`
	Uptime    float64 `json:"uptime"`
	Bookings  *int    `json:"bookings,omitempty"`
}

// NewHealthHandler reports liveness. bookings may be nil; when set, the
// stored booking count is included.
func NewHealthHandler(started time.Time, bookings BookingCounter) *HealthHandler {
	return &HealthHandler{started: started, bookings: bookings, now: time.Now}
}

func (h *HealthHandler) Register(router *gin.RouterGroup) {
	router.GET("/health", h.health)
}

func (h *HealthHandler) health(c *gin.Context) {
	now := h.now()
	resp := healthResponse{
		Status:    "OK",
		Timestamp: now.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Uptime:    now.Sub(h.started).Seconds(),
	}
	if h.bookings != nil {
		if n, err := h.bookings.Count(c.Request.Context()); err == nil {
			resp.Bookings = &n
		} else {
			_ = c.Error(err)
		}
	}
	c.JSON(http.StatusOK, resp)
}
