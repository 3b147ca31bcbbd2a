package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/fluxkit/version"
)

var startTime = time.Now()

// InfoResponse is the body of GET /info.
type InfoResponse struct {
	Service string        `json:"service"`
	Build   *version.Info `json:"build"`
	Uptime  string        `json:"uptime"`
}

// Info reports build information and process uptime.
func Info(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, InfoResponse{
			Service: serviceName,
			Build:   version.GetVersionInfo(),
			Uptime:  time.Since(startTime).Truncate(time.Second).String(),
		})
	}
}
