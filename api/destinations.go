package api

import (
	"net/http"

	"github.com/countaustin1990/responsive-travel-website/internal/service/pricing"
	"github.com/gin-gonic/gin"
)

type DestinationHandler struct {
	service pricing.PricingUseCase
}

func NewDestinationHandler(service pricing.PricingUseCase) *DestinationHandler {
	return &DestinationHandler{service: service}
}

func (h *DestinationHandler) Register(router *gin.RouterGroup) {
	router.GET("/destinations", h.list)
	router.GET("/quote", h.quote)
}

func (h *DestinationHandler) list(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": h.service.Destinations()})
}

// quote prices a trip the same way the booking form does, so clients can
// show the total the server will accept.
func (h *DestinationHandler) quote(c *gin.Context) {
	q := h.service.Quote(c.Query("destination"), c.Query("guests"))
	c.JSON(http.StatusOK, gin.H{"success": true, "data": q})
}
