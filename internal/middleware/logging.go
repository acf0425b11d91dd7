package middleware

import (
	"time"

	"github.com/docvault/backend/pkg/logger"
	"github.com/gofiber/fiber/v2"
)

func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		requestID := logger.GenerateRequestID()
		c.Locals("requestID", requestID)

		err := c.Next()

		latency := time.Since(start)
		statusCode := c.Response().StatusCode()

		details := map[string]interface{}{
			"method":       c.Method(),
			"path":         c.Path(),
			"status_code":  statusCode,
			"latency_ms":   latency.Milliseconds(),
			"user_agent":   c.Get("User-Agent"),
			"ip":           c.IP(),
			"request_body": logger.GetRequestBodySummary(c),
			"request_id":   requestID,
		}

		userID := logger.GetUserIDFromContext(c)
		switch {
		case userID != nil && statusCode >= 400:
			logger.ErrorWithUser(*userID, "http_request", err, details)
		case userID != nil:
			logger.InfoWithUser(*userID, "http_request", details)
		case statusCode >= 400:
			logger.Error("http_request", err, details)
		default:
			logger.Info("http_request", details)
		}

		return err
	}
}

// SecurityLogger flags rejected authentication attempts so they can be
// picked out of the log stream without parsing every request line.
func SecurityLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		statusCode := c.Response().StatusCode()
		if statusCode != fiber.StatusUnauthorized && statusCode != fiber.StatusForbidden {
			return err
		}

		details := map[string]interface{}{
			"method": c.Method(),
			"path":   c.Path(),
			"ip":     c.IP(),
			"reason": "access_denied",
		}

		if userID := logger.GetUserIDFromContext(c); userID != nil {
			logger.WarnWithUser(*userID, "access_denied", details)
		} else {
			logger.Warn("access_denied", details)
		}

		return err
	}
}
