package rayid

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	// Header carries the RayID in requests and responses.
	Header = "X-Ray-ID"
	// LocalsKey is where the RayID is stored in the Fiber context.
	LocalsKey = "ray_id"
)

// New returns a middleware that tags every request with a RayID. An incoming
// X-Ray-ID header is kept; otherwise a new UUID is generated.
func New() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(Header)
		if id == "" {
			id = uuid.NewString()
		}
		c.Locals(LocalsKey, id)
		c.Set(Header, id)
		return c.Next()
	}
}
