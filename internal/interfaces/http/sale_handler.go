package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/taller-api/internal/application/dto"
	"github.com/jhoicas/taller-api/internal/application/sales"
	"github.com/jhoicas/taller-api/internal/domain/repository"
)

// SaleHandler ventas de mostrador.
type SaleHandler struct {
	uc *sales.UseCase
}

// NewSaleHandler construye el handler.
func NewSaleHandler(uc *sales.UseCase) *SaleHandler {
	return &SaleHandler{uc: uc}
}

// Create godoc
// @Summary      Registrar venta
// @Description  Descuenta stock, asigna consecutivo V-000001 y calcula totales y cambio.
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateSaleRequest  true  "Ítems, medio de pago, descuento y pago recibido"
// @Success      201   {object}  dto.SaleResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/sales [post]
func (h *SaleHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateSaleRequest
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
// @Summary      Obtener venta
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la venta"
// @Success      200  {object}  dto.SaleResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id} [get]
func (h *SaleHandler) Get(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar ventas
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        from         query  string  false  "Desde (YYYY-MM-DD)"
// @Param        to           query  string  false  "Hasta, inclusive (YYYY-MM-DD)"
// @Param        status       query  string  false  "completada | anulada"
// @Param        customer_id  query  string  false  "Cliente"
// @Param        limit        query  int     false  "Límite (1-100)"
// @Param        offset       query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.SaleListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/sales [get]
func (h *SaleHandler) List(c *fiber.Ctx) error {
	from, err := dateQuery(c, "from", false)
	if err != nil {
		return validationError(c, err.Error())
	}
	to, err := dateQuery(c, "to", true)
	if err != nil {
		return validationError(c, err.Error())
	}
	p := pageFromQuery(c)
	out, err := h.uc.List(c.UserContext(), GetCompanyID(c), repository.SaleFilter{
		From:       from,
		To:         to,
		Status:     c.Query("status"),
		CustomerID: c.Query("customer_id"),
		Limit:      p.Limit,
		Offset:     p.Offset,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Editar venta
// @Description  Reemplaza las líneas y concilia el stock por diferencia de cantidades.
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID de la venta"
// @Param        body  body  dto.UpdateSaleRequest  true  "Nuevas líneas y datos de pago"
// @Success      200   {object}  dto.SaleResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/sales/{id} [put]
func (h *SaleHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateSaleRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.Update(c.UserContext(), GetCompanyID(c), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Cancel godoc
// @Summary      Anular venta
// @Description  Devuelve todo el stock. Anular dos veces responde 409.
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id      path   string                 true   "ID de la venta"
// @Param        reason  query  string                 false  "Motivo (alternativa al cuerpo)"
// @Param        body    body   dto.CancelSaleRequest  false  "Motivo"
// @Success      200     {object}  dto.SaleResponse
// @Failure      404     {object}  dto.ErrorResponse
// @Failure      409     {object}  dto.ErrorResponse
// @Router       /api/sales/{id} [delete]
func (h *SaleHandler) Cancel(c *fiber.Ctx) error {
	var in dto.CancelSaleRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
	}
	if in.Reason == "" {
		in.Reason = c.Query("reason")
	}
	out, err := h.uc.Cancel(c.UserContext(), GetCompanyID(c), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Receipt godoc
// @Summary      Recibo PDF
// @Tags         sales
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID de la venta"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/receipt [get]
func (h *SaleHandler) Receipt(c *fiber.Ctx) error {
	b, filename, err := h.uc.Receipt(c.UserContext(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return sendInline(c, "application/pdf", filename, b)
}

// EmailReceipt godoc
// @Summary      Enviar recibo por correo
// @Description  Sin "to" se usa el email del cliente de la venta.
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                   true   "ID de la venta"
// @Param        body  body  dto.EmailReceiptRequest  false  "Destino"
// @Success      202   {object}  dto.MessageResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/receipt/email [post]
func (h *SaleHandler) EmailReceipt(c *fiber.Ctx) error {
	var in dto.EmailReceiptRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
	}
	if err := h.uc.EmailReceipt(c.UserContext(), GetCompanyID(c), c.Params("id"), in.To); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(dto.MessageResponse{Message: "recibo enviado"})
}
