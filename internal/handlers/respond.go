package handlers

import (
	"github.com/gin-gonic/gin"
)

// apiResponse is the success envelope every 2xx body is wrapped in.
type apiResponse struct {
	StatusCode int         `json:"statusCode"`
	Data       interface{} `json:"data"`
	Message    string      `json:"message"`
	Success    bool        `json:"success"`
}

// respond writes the success envelope.
func respond(c *gin.Context, status int, data interface{}, message string) {
	c.JSON(status, apiResponse{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    status < 400,
	})
}

// fail hands the error to the normalizer middleware, which renders the
// failure envelope. Handlers return immediately after calling it.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
