package api

import (
	"errors"
	"fmt"
	"testing"

	common_models "go-bizsuite/internal/common/models"
	"go-bizsuite/pkg/access"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("bulk update: %w", common_models.ErrUnauthorized), fiber.StatusForbidden},
		{fmt.Errorf("task x: %w", common_models.ErrNotFound), fiber.StatusNotFound},
		{fmt.Errorf("%w: employee still has it", access.ErrHierarchyViolation), fiber.StatusConflict},
		{fmt.Errorf("%w: %q", access.ErrInvalidKey, "nodot"), fiber.StatusBadRequest},
		{access.ErrUnknownRole, fiber.StatusBadRequest},
		{errors.New("connection reset"), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}
