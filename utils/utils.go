package utils

import (
	"fmt"
	"strconv"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

var eventLog = logrus.New()

func init() {
	eventLog.SetFormatter(&logrus.JSONFormatter{})
}

// GenerateRateLimitKey creates a unique key for rate limiting
func GenerateRateLimitKey(userID uint, resource, path string) string {
	return fmt.Sprintf("rl:%d:%s:%s", userID, resource, path)
}

// LogEvent logs a structured application event.
func LogEvent(eventType string, data map[string]interface{}) {
	eventLog.WithFields(logrus.Fields(data)).Info(eventType)
}

// CaptureError reports an error to Sentry (no-op when Sentry is not
// configured) and logs it.
func CaptureError(err error, context map[string]interface{}) {
	if err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		for k, v := range context {
			scope.SetExtra(k, v)
		}
		sentry.CaptureException(err)
	})
	eventLog.WithFields(logrus.Fields(context)).WithError(err).Error("captured error")
}

// Pointer returns a pointer to the given value
func Pointer[T any](v T) *T {
	return &v
}

// ErrorResponse creates a standardized error response
func ErrorResponse(c *fiber.Ctx, status int, message string, err error) error {
	response := fiber.Map{
		"success": false,
		"error":   message,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	return c.Status(status).JSON(response)
}

// SuccessResponse creates a standardized success response
func SuccessResponse(data interface{}) fiber.Map {
	return fiber.Map{
		"success": true,
		"data":    data,
	}
}

// ParseUint safely parses a string to uint
func ParseUint(s string) uint {
	i, _ := strconv.ParseUint(s, 10, 32)
	return uint(i)
}
