package middleware

import (
	"github.com/gin-gonic/gin"
)

// TrustProxies limits which peers may set X-Forwarded-For / X-Real-IP. An
// empty list keeps gin's default of trusting every peer.
func TrustProxies(r *gin.Engine, proxies []string) error {
	if len(proxies) == 0 {
		return nil
	}
	return r.SetTrustedProxies(proxies)
}

// getClientIP is the address requests are rate limited and logged by.
func getClientIP(c *gin.Context) string {
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}
