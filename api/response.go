package api

import (
	"errors"
	"net/http"

	"github.com/countaustin1990/responsive-travel-website/internal/domain"
	"github.com/gin-gonic/gin"
)

const dateFormat = "2006-01-02"

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type errorResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Errors  []fieldError `json:"errors,omitempty"`
	Error   string       `json:"error,omitempty"`
}

func badBody(c *gin.Context, message string, err error) {
	c.JSON(http.StatusBadRequest, errorResponse{
		Message: message,
		Errors:  []fieldError{{Field: "body", Message: "request body must be a JSON object with string fields: " + err.Error()}},
	})
}

// writeError maps service errors onto the public error shapes. Internal
// details are only exposed when exposeDetails is set (development).
func writeError(c *gin.Context, err error, invalidMessage, failureMessage string, exposeDetails bool) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		out := make([]fieldError, 0, len(verr.Fields))
		for _, f := range verr.Fields {
			out = append(out, fieldError{Field: f.Field, Message: f.Message})
		}
		c.JSON(http.StatusBadRequest, errorResponse{Message: invalidMessage, Errors: out})
	default:
		_ = c.Error(err)
		resp := errorResponse{Message: failureMessage}
		if exposeDetails {
			resp.Error = err.Error()
		}
		c.JSON(http.StatusInternalServerError, resp)
	}
}

// NotFound answers unknown routes.
func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, errorResponse{Message: "Endpoint not found"})
}
