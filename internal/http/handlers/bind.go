package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/promptgen-backend/internal/domain/dialogue"
)

// bindJSON decodes the request body into dst, reporting every failure as a
// validation error.
func bindJSON(c *gin.Context, op string, dst any) error {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return nil
	}
	var mbe *http.MaxBytesError
	switch {
	case errors.As(err, &mbe):
		return dialogue.Validation(op, "request body too large")
	case errors.Is(err, io.EOF):
		return dialogue.Validation(op, "request body is required")
	default:
		return dialogue.NewError(dialogue.CodeValidation, op, "invalid request body: "+err.Error(), err)
	}
}
