package http

import (
	"encoding/json"
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/taller-api/internal/application/dto"
	"github.com/jhoicas/taller-api/internal/application/usecase"
)

// CompanyHandler datos de la empresa, logo y configuraciones.
type CompanyHandler struct {
	uc       *usecase.CompanyUseCase
	settings *usecase.SettingsUseCase
}

// NewCompanyHandler construye el handler.
func NewCompanyHandler(uc *usecase.CompanyUseCase, settings *usecase.SettingsUseCase) *CompanyHandler {
	return &CompanyHandler{uc: uc, settings: settings}
}

// Get godoc
// @Summary      Empresa del usuario
// @Tags         company
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.CompanyResponse
// @Router       /api/company [get]
func (h *CompanyHandler) Get(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), GetCompanyID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar empresa
// @Tags         company
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.UpdateCompanyRequest  true  "Datos de la empresa"
// @Success      200   {object}  dto.CompanyResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/company [put]
func (h *CompanyHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateCompanyRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.Update(c.UserContext(), GetCompanyID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// UploadLogo godoc
// @Summary      Subir logo (png, jpeg o webp)
// @Tags         company
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Param        logo  formData  file  true  "Imagen del logo"
// @Success      200   {object}  dto.CompanyResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/company/logo [post]
func (h *CompanyHandler) UploadLogo(c *fiber.Ctx) error {
	fh, err := c.FormFile("logo")
	if err != nil {
		return validationError(c, "el campo 'logo' es requerido")
	}
	f, err := fh.Open()
	if err != nil {
		return invalidBody(c)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.UploadLogo(c.UserContext(), GetCompanyID(c), data)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// GetSetting godoc
// @Summary      Leer configuración
// @Tags         settings
// @Security     Bearer
// @Produce      json
// @Param        key  path  string  true  "branding | backups | whatsapp"
// @Success      200  {object}  dto.SettingResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/settings/{key} [get]
func (h *CompanyHandler) GetSetting(c *fiber.Ctx) error {
	out, err := h.settings.Get(c.UserContext(), GetCompanyID(c), c.Params("key"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// UpdateSetting godoc
// @Summary      Guardar configuración
// @Tags         settings
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        key   path  string  true  "branding | backups | whatsapp"
// @Param        body  body  object  true  "Valor JSON de la configuración"
// @Success      200   {object}  dto.SettingResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/settings/{key} [put]
func (h *CompanyHandler) UpdateSetting(c *fiber.Ctx) error {
	body := c.Body()
	if !json.Valid(body) {
		return invalidBody(c)
	}
	raw := make(json.RawMessage, len(body))
	copy(raw, body)
	out, err := h.settings.Update(c.UserContext(), GetCompanyID(c), c.Params("key"), raw)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
