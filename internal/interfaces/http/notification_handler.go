package http

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/jhoicas/taller-api/internal/application/dto"
	"github.com/jhoicas/taller-api/internal/application/usecase"
	"github.com/jhoicas/taller-api/internal/infrastructure/realtime"
)

const defaultKeepAlive = 25 * time.Second

// NotificationHandler feed de notificaciones y stream SSE.
type NotificationHandler struct {
	uc        *usecase.NotificationUseCase
	hub       *realtime.Hub
	keepAlive time.Duration
}

// NewNotificationHandler construye el handler. keepAlive <= 0 usa 25s.
func NewNotificationHandler(uc *usecase.NotificationUseCase, hub *realtime.Hub, keepAlive time.Duration) *NotificationHandler {
	if keepAlive <= 0 {
		keepAlive = defaultKeepAlive
	}
	return &NotificationHandler{uc: uc, hub: hub, keepAlive: keepAlive}
}

// List godoc
// @Summary      Listar notificaciones
// @Description  Incluye las dirigidas al usuario y las de toda la empresa.
// @Tags         notifications
// @Security     Bearer
// @Produce      json
// @Param        unread  query  bool  false  "Solo no leídas"
// @Param        limit   query  int   false  "Límite (1-100)"
// @Param        offset  query  int   false  "Desplazamiento"
// @Success      200  {object}  dto.NotificationListResponse
// @Router       /api/notifications [get]
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext(), GetCompanyID(c), GetUserID(c), boolQuery(c, "unread"), pageFromQuery(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Create godoc
// @Summary      Crear aviso manual
// @Tags         notifications
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateNotificationRequest  true  "Aviso; user_id vacío para toda la empresa"
// @Success      201   {object}  dto.NotificationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/notifications [post]
func (h *NotificationHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateNotificationRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.Create(c.UserContext(), GetCompanyID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// MarkRead godoc
// @Summary      Marcar como leída
// @Tags         notifications
// @Security     Bearer
// @Param        id  path  string  true  "ID de la notificación"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/notifications/{id}/read [patch]
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	if err := h.uc.MarkRead(c.UserContext(), GetCompanyID(c), GetUserID(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// MarkAllRead godoc
// @Summary      Marcar todas como leídas
// @Tags         notifications
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.MarkAllReadResponse
// @Router       /api/notifications/read-all [post]
func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	out, err := h.uc.MarkAllRead(c.UserContext(), GetCompanyID(c), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Stream godoc
// @Summary      Stream de notificaciones (SSE)
// @Description  text/event-stream. EventSource no envía cabeceras: el token va en ?access_token=.
// @Tags         notifications
// @Produce      text/event-stream
// @Param        access_token  query  string  false  "JWT"
// @Success      200
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /api/notifications/stream [get]
func (h *NotificationHandler) Stream(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	log := requestLogger(c)

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	sub := h.hub.Subscribe(companyID, userID)
	keepAlive := h.keepAlive

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer sub.Cancel()
		ticker := time.NewTicker(keepAlive)
		defer ticker.Stop()

		fmt.Fprint(w, "retry: 5000\n\nevent: ready\ndata: {}\n\n")
		if err := w.Flush(); err != nil {
			return
		}
		for {
			select {
			case n, ok := <-sub.C:
				if !ok {
					return
				}
				payload, err := json.Marshal(dto.ToNotificationResponse(&n))
				if err != nil {
					log.Error().Err(err).Str("notification_id", n.ID).Msg("serializar notificación")
					continue
				}
				fmt.Fprintf(w, "id: %s\nevent: notification\ndata: %s\n\n", n.ID, payload)
			case <-ticker.C:
				fmt.Fprint(w, ": ping\n\n")
			}
			// Un Flush fallido indica que el cliente se desconectó.
			if err := w.Flush(); err != nil {
				log.Debug().Str("user_id", userID).Msg("cliente SSE desconectado")
				return
			}
		}
	}))
	return nil
}
