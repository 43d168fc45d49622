package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/taller-api/internal/application/dto"
)

// tenantChecker lo implementa *usecase.TenantService.
type tenantChecker interface {
	IsActive(ctx context.Context, companyID string) (bool, error)
}

// RequireActiveCompany bloquea las peticiones de empresas suspendidas. Debe usarse después
// de AuthMiddleware.
//
//   - 401 si no hay company_id en el contexto.
//   - 403 COMPANY_SUSPENDED si la empresa no está activa o ya no existe.
//   - 503 si no se pudo consultar el estado.
func RequireActiveCompany(checker tenantChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID := GetCompanyID(c)
		if companyID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Code:    CodeUnauthorized,
				Message: "company_id no encontrado en el token",
			})
		}
		active, err := checker.IsActive(c.UserContext(), companyID)
		if err != nil {
			requestLogger(c).Error().Err(err).Msg("no se pudo verificar el estado de la empresa")
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
				Code:    "TENANT_CHECK_FAILED",
				Message: "no se pudo verificar la empresa, intente más tarde",
			})
		}
		if !active {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Code:    "COMPANY_SUSPENDED",
				Message: "la empresa está suspendida",
			})
		}
		return c.Next()
	}
}
