package http

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/taller-api/internal/application/dto"
	"github.com/jhoicas/taller-api/internal/domain"
)

// Códigos de error de la API.
const (
	CodeValidation        = "VALIDATION"
	CodeInvalidBody       = "INVALID_BODY"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeNotFound          = "NOT_FOUND"
	CodeDuplicate         = "DUPLICATE"
	CodeConflict          = "CONFLICT"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeNotConfigured     = "NOT_CONFIGURED"
	CodeInternal          = "INTERNAL"
)

// errorMapping orden de evaluación: los errores más específicos primero.
var errorMapping = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrEmailAlreadyExists, fiber.StatusConflict, CodeDuplicate},
	{domain.ErrUserNotFound, fiber.StatusNotFound, CodeNotFound},
	{domain.ErrNotFound, fiber.StatusNotFound, CodeNotFound},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, CodeValidation},
	{domain.ErrDuplicate, fiber.StatusConflict, CodeDuplicate},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, CodeUnauthorized},
	{domain.ErrForbidden, fiber.StatusForbidden, CodeForbidden},
	{domain.ErrInsufficientStock, fiber.StatusConflict, CodeInsufficientStock},
	{domain.ErrInvalidTransition, fiber.StatusConflict, CodeInvalidTransition},
	{domain.ErrSaleCancelled, fiber.StatusConflict, CodeConflict},
	{domain.ErrConflict, fiber.StatusConflict, CodeConflict},
	{domain.ErrNotConfigured, fiber.StatusServiceUnavailable, CodeNotConfigured},
}

// respondError traduce un error de dominio a su respuesta HTTP. Los errores no mapeados
// se registran y responden 500 sin exponer el detalle.
func respondError(c *fiber.Ctx, err error) error {
	for _, m := range errorMapping {
		if errors.Is(err, m.err) {
			return c.Status(m.status).JSON(dto.ErrorResponse{Code: m.code, Message: err.Error()})
		}
	}
	requestLogger(c).Error().Err(err).Str("path", c.Path()).Msg("error interno")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: CodeInternal, Message: "error interno del servidor"})
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: CodeInvalidBody, Message: "cuerpo inválido"})
}

func validationError(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: CodeValidation, Message: msg})
}

// pageFromQuery lee limit, offset y q. Valores no numéricos quedan en cero y se corrigen
// con DefaultPage.
func pageFromQuery(c *fiber.Ctx) dto.PageRequest {
	p := dto.PageRequest{
		Limit:  c.QueryInt("limit", 20),
		Offset: c.QueryInt("offset", 0),
		Query:  strings.TrimSpace(c.Query("q")),
	}
	p.DefaultPage()
	return p
}

// dateQuery interpreta YYYY-MM-DD o RFC3339. toExclusive convierte una fecha sin hora
// en el inicio del día siguiente para que el rango incluya el día completo.
func dateQuery(c *fiber.Ctx, name string, toExclusive bool) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		return nil, errors.New(name + " debe tener formato YYYY-MM-DD")
	}
	if toExclusive {
		t = t.AddDate(0, 0, 1)
	}
	return &t, nil
}

func boolQuery(c *fiber.Ctx, name string) bool {
	v, _ := strconv.ParseBool(c.Query(name))
	return v
}
