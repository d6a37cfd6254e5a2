package api

import (
	"errors"

	common_models "go-bizsuite/internal/common/models"
	"go-bizsuite/pkg/access"

	"github.com/gofiber/fiber/v2"
)

// StatusFor maps domain errors to HTTP status codes
func StatusFor(err error) int {
	switch {
	case errors.Is(err, common_models.ErrUnauthorized):
		return fiber.StatusForbidden
	case errors.Is(err, common_models.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, access.ErrHierarchyViolation):
		return fiber.StatusConflict
	case errors.Is(err, common_models.ErrInvalidInput),
		errors.Is(err, access.ErrInvalidKey),
		errors.Is(err, access.ErrUnknownRole):
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}

// ErrorJSON writes {"error": ...} with the status matching err
func ErrorJSON(c *fiber.Ctx, err error) error {
	return c.Status(StatusFor(err)).JSON(fiber.Map{
		"error": err.Error(),
	})
}
