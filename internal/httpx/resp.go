package httpx

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var logger = logrus.NewEntry(logrus.StandardLogger())

// SetLogger replaces the logger used for internal error details
func SetLogger(l *logrus.Entry) {
	if l != nil {
		logger = l
	}
}

// Response represents the standard API response structure
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// OK sends a successful response with default message "success"
func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// OKMsg sends a successful response with custom message
func OKMsg(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: message,
		Data:    data,
	})
}

// FailErr sends an error response from an AppError.
// AppError.Err is logged, never returned to the client.
func FailErr(c *gin.Context, err *AppError) {
	if err.Err != nil {
		logger.WithFields(logrus.Fields{
			"code":   err.Code,
			"path":   c.FullPath(),
			"method": c.Request.Method,
		}).WithError(err.Err).Error(err.Message)
	}

	c.JSON(err.HTTPStatus, Response{
		Code:    err.Code,
		Message: err.Message,
		Data:    err.Data,
	})
}

// Abort sends the error response and stops the handler chain
func Abort(c *gin.Context, err *AppError) {
	FailErr(c, err)
	c.Abort()
}
