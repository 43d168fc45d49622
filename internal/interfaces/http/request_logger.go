package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/taller-api/pkg/logger"
)

const localLogger = "logger"

// RequestLogger registra cada petición (método, ruta, estado, latencia y empresa) y deja en
// Locals un sublogger con el request_id para los handlers.
func RequestLogger(log *logger.Logger) fiber.Handler {
	base := log.Component("http").Zerolog()
	return func(c *fiber.Ctx) error {
		start := time.Now()
		reqID := c.Get(fiber.HeaderXRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set(fiber.HeaderXRequestID, reqID)
		l := base.With().Str("request_id", reqID).Logger()
		c.Locals(localLogger, &l)

		err := c.Next()
		if err != nil {
			// El ErrorHandler de la app fija el estado; se invoca aquí para registrar el final.
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		ev := l.Info()
		switch {
		case status >= 500:
			ev = l.Error()
		case status >= 400:
			ev = l.Warn()
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("company_id", GetCompanyID(c)).
			Msg("request")
		return nil
	}
}

// requestLogger sublogger de la petición; un logger vacío si RequestLogger no está montado.
func requestLogger(c *fiber.Ctx) *zerolog.Logger {
	if l, ok := c.Locals(localLogger).(*zerolog.Logger); ok {
		return l
	}
	nop := zerolog.Nop()
	return &nop
}
