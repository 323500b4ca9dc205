package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/ops-kit/opsconsole/internal/api/dto"
	"github.com/ops-kit/opsconsole/internal/observability"
)

func respond(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(dto.Success(data, observability.RequestIDFromContext(c)))
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
