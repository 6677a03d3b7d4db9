package http_access_middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	http_common "github.com/humanbelnik/kinomatch/internal/delivery/http/common"
)

const (
	ModeReadWrite = "RW"
	ModeReadOnly  = "RO"
)

// ReadOnly rejects state-changing requests on an RO instance so the balancer
// can retry them against a writable one. Websocket upgrades are GETs and
// pass through.
func ReadOnly(mode string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if mode != ModeReadOnly {
			c.Next()
			return
		}

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusBadGateway, http_common.ErrorResponse{
			Message: "write operations are not allowed on a read-only instance",
		})
	}
}
