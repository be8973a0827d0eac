package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/promptgen-backend/internal/domain/dialogue"
	"github.com/yungbote/promptgen-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ErrorEnvelope carries the message twice: nested under error and as a flat detail field.
type ErrorEnvelope struct {
	Error  APIError `json:"error"`
	Detail string   `json:"detail"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = dialogue.Message(err)
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
		Detail: msg,
	})
}

// RespondErr maps a service error onto its status and code.
func RespondErr(c *gin.Context, err error) {
	ae := apierr.From(err)
	if ae == nil {
		ae = apierr.New(http.StatusInternalServerError, "internal", nil)
	} else {
		_ = c.Error(err)
	}
	RespondError(c, ae.Status, ae.Code, ae.Err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
