package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/taller-api/internal/application/dto"
	"github.com/jhoicas/taller-api/internal/application/workorder"
	"github.com/jhoicas/taller-api/internal/domain/repository"
)

// WorkOrderHandler órdenes de reparación.
type WorkOrderHandler struct {
	uc *workorder.UseCase
}

// NewWorkOrderHandler construye el handler.
func NewWorkOrderHandler(uc *workorder.UseCase) *WorkOrderHandler {
	return &WorkOrderHandler{uc: uc}
}

// Create godoc
// @Summary      Crear orden de trabajo
// @Tags         work-orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateWorkOrderRequest  true  "Cliente, equipo y falla reportada"
// @Success      201   {object}  dto.WorkOrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/work-orders [post]
func (h *WorkOrderHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateWorkOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.Create(c.UserContext(), GetCompanyID(c), GetUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Get godoc
// @Summary      Obtener orden de trabajo
// @Tags         work-orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la orden"
// @Success      200  {object}  dto.WorkOrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/work-orders/{id} [get]
func (h *WorkOrderHandler) Get(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar órdenes de trabajo
// @Tags         work-orders
// @Security     Bearer
// @Produce      json
// @Param        status         query  string  false  "pendiente | en_proceso | finalizado | entregado"
// @Param        customer_id    query  string  false  "Cliente"
// @Param        technician_id  query  string  false  "Técnico"
// @Param        q              query  string  false  "Número, equipo o serial"
// @Param        limit          query  int     false  "Límite (1-100)"
// @Param        offset         query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.WorkOrderListResponse
// @Router       /api/work-orders [get]
func (h *WorkOrderHandler) List(c *fiber.Ctx) error {
	p := pageFromQuery(c)
	out, err := h.uc.List(c.UserContext(), GetCompanyID(c), repository.WorkOrderFilter{
		ListFilter:   repository.ListFilter{Query: p.Query, Limit: p.Limit, Offset: p.Offset},
		Status:       c.Query("status"),
		CustomerID:   c.Query("customer_id"),
		TechnicianID: c.Query("technician_id"),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar orden de trabajo
// @Description  El estado cambia solo por PATCH /status.
// @Tags         work-orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                      true  "ID de la orden"
// @Param        body  body  dto.UpdateWorkOrderRequest  true  "Campos a actualizar"
// @Success      200   {object}  dto.WorkOrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/work-orders/{id} [put]
func (h *WorkOrderHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateWorkOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.Update(c.UserContext(), GetCompanyID(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar orden pendiente
// @Tags         work-orders
// @Security     Bearer
// @Param        id  path  string  true  "ID de la orden"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/work-orders/{id} [delete]
func (h *WorkOrderHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), GetCompanyID(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ChangeStatus godoc
// @Summary      Avanzar estado
// @Description  pendiente → en_proceso → finalizado → entregado, un paso a la vez.
// @Tags         work-orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                   true  "ID de la orden"
// @Param        body  body  dto.ChangeStatusRequest  true  "Nuevo estado y nota"
// @Success      200   {object}  dto.WorkOrderResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/work-orders/{id}/status [patch]
func (h *WorkOrderHandler) ChangeStatus(c *fiber.Ctx) error {
	var in dto.ChangeStatusRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if in.Status == "" {
		return validationError(c, "status es requerido")
	}
	out, err := h.uc.ChangeStatus(c.UserContext(), GetCompanyID(c), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// History godoc
// @Summary      Historial de estados
// @Tags         work-orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la orden"
// @Success      200  {array}   dto.StatusChangeResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/work-orders/{id}/history [get]
func (h *WorkOrderHandler) History(c *fiber.Ctx) error {
	out, err := h.uc.History(c.UserContext(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Ticket godoc
// @Summary      Comprobante PDF de recepción
// @Tags         work-orders
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID de la orden"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/work-orders/{id}/ticket [get]
func (h *WorkOrderHandler) Ticket(c *fiber.Ctx) error {
	b, filename, err := h.uc.Ticket(c.UserContext(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return sendInline(c, "application/pdf", filename, b)
}

// sendInline responde un archivo para mostrar en el navegador.
func sendInline(c *fiber.Ctx, contentType, filename string, b []byte) error {
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, `inline; filename="`+filename+`"`)
	return c.Send(b)
}
