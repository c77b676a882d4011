package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// Pinger reports database connectivity.
type Pinger interface {
	Ping() error
}

// HealthHandler serves the health probe: overall status plus per-queue
// connectivity detail.
type HealthHandler struct {
	redis     *redis.Client
	inspector *asynq.Inspector
	db        Pinger
	queues    []string
}

func NewHealthHandler(redisClient *redis.Client, inspector *asynq.Inspector, db Pinger, queues []string) *HealthHandler {
	return &HealthHandler{
		redis:     redisClient,
		inspector: inspector,
		db:        db,
		queues:    queues,
	}
}

// Health reports per-queue durable-store connectivity and overall
// service health. Unhealthy responds 503 so load balancers can react.
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	ctx := c.UserContext()
	healthy := true

	redisOK := h.redis.Ping(ctx).Err() == nil
	if !redisOK {
		healthy = false
	}

	dbOK := h.db.Ping() == nil
	if !dbOK {
		healthy = false
	}

	queues := fiber.Map{}
	for _, name := range h.queues {
		info, err := h.inspector.GetQueueInfo(name)
		if err != nil {
			healthy = false
			queues[name] = fiber.Map{"connected": false, "error": err.Error()}
			continue
		}
		queues[name] = fiber.Map{
			"connected": true,
			"active":    info.Active,
			"pending":   info.Pending,
			"retry":     info.Retry,
		}
	}

	status := "healthy"
	code := fiber.StatusOK
	if !healthy {
		status = "unhealthy"
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{
		"status":   status,
		"redis":    redisOK,
		"database": dbOK,
		"queues":   queues,
	})
}
