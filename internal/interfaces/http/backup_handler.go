package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/taller-api/internal/application/dto"
	"github.com/jhoicas/taller-api/internal/application/usecase"
)

// BackupHandler respaldos en Excel.
type BackupHandler struct {
	uc *usecase.BackupUseCase
}

// NewBackupHandler construye el handler.
func NewBackupHandler(uc *usecase.BackupUseCase) *BackupHandler {
	return &BackupHandler{uc: uc}
}

// Export godoc
// @Summary      Descargar respaldo
// @Description  Libro con clientes, empleados, proveedores, productos, órdenes y ventas.
// @Tags         backups
// @Security     Bearer
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success      200  {file}  binary
// @Router       /api/backups/export [get]
func (h *BackupHandler) Export(c *fiber.Ctx) error {
	b, err := h.uc.ExportBackup(c.UserContext(), GetCompanyID(c))
	if err != nil {
		return respondError(c, err)
	}
	return sendAttachment(c, xlsxContentType, "respaldo-"+time.Now().Format("20060102")+".xlsx", b)
}

// Send godoc
// @Summary      Enviar respaldo por correo
// @Description  Respeta la frecuencia configurada salvo con force=true.
// @Tags         backups
// @Security     Bearer
// @Produce      json
// @Param        force  query  bool  false  "Enviar aunque no corresponda"
// @Success      202  {object}  dto.MessageResponse
// @Success      200  {object}  dto.MessageResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/backups/send [post]
func (h *BackupHandler) Send(c *fiber.Ctx) error {
	sent, err := h.uc.SendBackup(c.UserContext(), GetCompanyID(c), boolQuery(c, "force"))
	if err != nil {
		return respondError(c, err)
	}
	if !sent {
		return c.JSON(dto.MessageResponse{Message: "el respaldo no corresponde todavía"})
	}
	return c.Status(fiber.StatusAccepted).JSON(dto.MessageResponse{Message: "respaldo enviado"})
}
