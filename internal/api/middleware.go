package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"

	"github.com/hanyuejun/health-recorder/internal/metrics"
)

// metricsMiddleware records per-request counters and latency
func (s *Server) metricsMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		metrics.RecordResponseTime(time.Since(start))
		metrics.RecordRequest(err == nil && c.Response().StatusCode() < 500)
		metrics.RecordEndpointCall(c.Route().Path)

		return err
	}
}

// rateLimitMiddleware applies a server-wide token bucket, rps tokens
// per second with a burst of twice that.
func (s *Server) rateLimitMiddleware(rps int) fiber.Handler {
	limiter := rate.NewLimiter(rate.Limit(rps), rps*2)
	return func(c *fiber.Ctx) error {
		if !limiter.Allow() {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded"})
		}
		return c.Next()
	}
}
