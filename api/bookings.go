package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/countaustin1990/responsive-travel-website/internal/domain"
	"github.com/countaustin1990/responsive-travel-website/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service       booking.BookingUseCase
	exposeDetails bool
}

type bookingSummary struct {
	ID          string  `json:"id"`
	Destination string  `json:"destination"`
	CheckIn     string  `json:"checkIn"`
	CheckOut    string  `json:"checkOut"`
	Guests      int     `json:"guests"`
	TotalPrice  float64 `json:"totalPrice"`
}

type createBookingResponse struct {
	Success   bool           `json:"success"`
	Message   string         `json:"message"`
	BookingID string         `json:"bookingId"`
	Data      bookingSummary `json:"data"`
}

type bookingView struct {
	ID          string  `json:"id"`
	Email       string  `json:"email"`
	FullName    string  `json:"fullName"`
	Phone       string  `json:"phone"`
	Destination string  `json:"destination"`
	CheckIn     string  `json:"checkIn"`
	CheckOut    string  `json:"checkOut"`
	Guests      int     `json:"guests"`
	TotalPrice  float64 `json:"totalPrice"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"createdAt"`
}

type getBookingResponse struct {
	Success bool        `json:"success"`
	Data    bookingView `json:"data"`
}

func NewBookingHandler(service booking.BookingUseCase, exposeDetails bool) *BookingHandler {
	return &BookingHandler{service: service, exposeDetails: exposeDetails}
}

// Register mounts the booking routes; submitGuards run only in front of the
// submission endpoint.
func (h *BookingHandler) Register(router *gin.RouterGroup, submitGuards ...gin.HandlerFunc) {
	router.POST("/book", append(submitGuards, h.create)...)
	router.GET("/booking/:id", h.get)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req domain.BookingSubmission
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, "Invalid booking data provided", err)
		return
	}

	record, err := h.service.Submit(c.Request.Context(), req, c.ClientIP())
	if err != nil {
		writeError(c, err, "Invalid booking data provided", "Booking failed. Please try again later.", h.exposeDetails)
		return
	}

	c.JSON(http.StatusOK, createBookingResponse{
		Success:   true,
		Message:   "Booking confirmed successfully!",
		BookingID: record.ID,
		Data: bookingSummary{
			ID:          record.ID,
			Destination: record.Destination,
			CheckIn:     record.CheckIn.Format(dateFormat),
			CheckOut:    record.CheckOut.Format(dateFormat),
			Guests:      record.Guests,
			TotalPrice:  record.TotalPrice,
		},
	})
}

func (h *BookingHandler) get(c *gin.Context) {
	view, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, errorResponse{Message: "Booking not found"})
			return
		}
		writeError(c, err, "Invalid booking id", "Could not load booking. Please try again later.", h.exposeDetails)
		return
	}

	c.JSON(http.StatusOK, getBookingResponse{
		Success: true,
		Data: bookingView{
			ID:          view.ID,
			Email:       view.Email,
			FullName:    view.FullName,
			Phone:       view.Phone,
			Destination: view.Destination,
			CheckIn:     view.CheckIn.Format(dateFormat),
			CheckOut:    view.CheckOut.Format(dateFormat),
			Guests:      view.Guests,
			TotalPrice:  view.TotalPrice,
			Status:      string(view.Status),
			CreatedAt:   view.CreatedAt.UTC().Format(time.RFC3339),
		},
	})
}
