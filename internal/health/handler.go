package health

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// ConnChecker: bağlantı durumunu raporlayan bağımlılık (NATS publisher)
type ConnChecker interface {
	IsConnected() bool
}

// Pinger: veritabanı erişilebilir mi?
type Pinger func(ctx context.Context) error

const pingTimeout = 2 * time.Second

// GET /api/health
// Veritabanı yoksa 503. NATS kopuksa içe aktarım eventsiz çalıştığı için 200 + "degraded".
func Handler(ping Pinger, events ConnChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), pingTimeout)
		defer cancel()

		res := fiber.Map{"status": "ok", "database": "up", "events": "disabled"}
		if err := ping(ctx); err != nil {
			res["status"] = "down"
			res["database"] = "down"
			return c.Status(fiber.StatusServiceUnavailable).JSON(res)
		}
		if events != nil {
			if events.IsConnected() {
				res["events"] = "up"
			} else {
				res["events"] = "down"
				res["status"] = "degraded"
			}
		}
		return c.JSON(res)
	}
}
