package server

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/payflow/internal/fault"
	merchantdomain "github.com/smallbiznis/payflow/internal/merchant/domain"
	obsmetrics "github.com/smallbiznis/payflow/internal/observability/metrics"
)

const merchantContextKey = "merchant"

// APIKeyRequired resolves `Authorization: Bearer pk_…` to a merchant before
// any payment route runs.
func (s *Server) APIKeyRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			AbortWithError(c, fault.Unauthorized("missing_api_key", "missing bearer API key"))
			return
		}

		merchant, err := s.merchantSvc.Authenticate(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.Set(merchantContextKey, merchant)
		c.Next()
	}
}

func currentMerchant(c *gin.Context) *merchantdomain.Merchant {
	value, ok := c.Get(merchantContextKey)
	if !ok {
		return nil
	}
	merchant, _ := value.(*merchantdomain.Merchant)
	return merchant
}

func metricsMiddleware(m *obsmetrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		m.RecordHTTPRequest(route, c.Request.Method, statusLabel(c.Writer.Status()), time.Since(start))
	}
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
