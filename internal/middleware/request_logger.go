package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RequestLogger logs one line per request. Server errors are logged at warn
// so they also reach the logs collection.
func RequestLogger(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.IP()),
		}
		if sub, ok := CurrentSubject(c); ok {
			fields = append(fields, zap.String("org_id", sub.OrgID), zap.String("user_id", sub.UserID))
		}

		if status >= fiber.StatusInternalServerError {
			log.Warn("request failed", fields...)
		} else {
			log.Debug("request", fields...)
		}
		return err
	}
}
