package api

import (
	"net/http"

	"github.com/countaustin1990/responsive-travel-website/internal/domain"
	"github.com/countaustin1990/responsive-travel-website/internal/service/contact"
	"github.com/gin-gonic/gin"
)

type ContactHandler struct {
	service       contact.ContactUseCase
	exposeDetails bool
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func NewContactHandler(service contact.ContactUseCase, exposeDetails bool) *ContactHandler {
	return &ContactHandler{service: service, exposeDetails: exposeDetails}
}

func (h *ContactHandler) Register(router *gin.RouterGroup) {
	router.POST("/contact", h.submit)
}

func (h *ContactHandler) submit(c *gin.Context) {
	var req domain.ContactSubmission
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, "Invalid contact data provided", err)
		return
	}

	if err := h.service.Submit(c.Request.Context(), req, c.ClientIP()); err != nil {
		writeError(c, err, "Invalid contact data provided", "Failed to send message. Please try again later.", h.exposeDetails)
		return
	}

	c.JSON(http.StatusOK, messageResponse{Success: true, Message: "Message sent successfully!"})
}
