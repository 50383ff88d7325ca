package instrument

import (
	"github.com/gofiber/fiber/v2"
)

// TraceHeader carries the trace ID in requests and responses.
const TraceHeader = "X-Trace-ID"

// Middleware returns a Fiber middleware that propagates (or generates) a trace
// ID and stores it in the request context for downstream handlers and logs.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		traceID := c.Get(TraceHeader)
		if traceID == "" {
			traceID = newUUID()
		}

		c.SetUserContext(WithTraceID(c.UserContext(), traceID))
		c.Set(TraceHeader, traceID)

		return c.Next()
	}
}
