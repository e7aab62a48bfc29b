// Package response writes JSON bodies in the shapes every handler shares.
package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/scd-backend/internal/platform/apierr"
)

// ErrorBody is the payload under the "error" key.
type ErrorBody struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type errorEnvelope struct {
	Error ErrorBody `json:"error"`
}

func RespondOK(c *gin.Context, payload any)      { c.JSON(http.StatusOK, payload) }
func RespondCreated(c *gin.Context, payload any) { c.JSON(http.StatusCreated, payload) }

// RespondError writes {"error":{"message","code"}} with an explicit status.
// A nil err falls back to the code as message.
func RespondError(c *gin.Context, status int, code string, err error) {
	body := ErrorBody{Code: code, Message: code}
	if err != nil {
		body.Message = err.Error()
	}
	if body.Message == "" {
		body.Message = http.StatusText(status)
	}
	c.JSON(status, errorEnvelope{Error: body})
}

// RespondAPIError lets apierr pick the status and code for err.
func RespondAPIError(c *gin.Context, err error) {
	if err == nil {
		err = errors.New("internal error")
	}
	ae := apierr.From(err)
	RespondError(c, ae.Status, ae.Code, ae)
}

// AbortAPIError is RespondAPIError that also stops the handler chain.
func AbortAPIError(c *gin.Context, err error) {
	RespondAPIError(c, err)
	c.Abort()
}
