package usecase

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/taller-api/internal/application/dto"
	"github.com/jhoicas/taller-api/internal/application/ports"
	"github.com/jhoicas/taller-api/internal/domain"
	"github.com/jhoicas/taller-api/internal/domain/repository"
)

var logoExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
}

// CompanyUseCase datos de la empresa autenticada y su logo.
type CompanyUseCase struct {
	repo     repository.CompanyRepository
	storage  ports.FileStorage
	settings *SettingsUseCase
	maxBytes int64
}

// NewCompanyUseCase construye el caso de uso. maxBytes limita el tamaño del logo.
func NewCompanyUseCase(repo repository.CompanyRepository, storage ports.FileStorage, settings *SettingsUseCase, maxBytes int64) *CompanyUseCase {
	return &CompanyUseCase{repo: repo, storage: storage, settings: settings, maxBytes: maxBytes}
}

// Get devuelve la empresa.
func (uc *CompanyUseCase) Get(ctx context.Context, companyID string) (*dto.CompanyResponse, error) {
	c, err := uc.repo.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	resp := dto.ToCompanyResponse(c)
	return &resp, nil
}

// Update modifica los datos editables. El NIT no cambia.
func (uc *CompanyUseCase) Update(ctx context.Context, companyID string, in dto.UpdateCompanyRequest) (*dto.CompanyResponse, error) {
	c, err := uc.repo.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, fmt.Errorf("%w: el nombre no puede quedar vacío", domain.ErrInvalidInput)
		}
		c.Name = strings.TrimSpace(*in.Name)
	}
	if in.Address != nil {
		c.Address = *in.Address
	}
	if in.Phone != nil {
		c.Phone = *in.Phone
	}
	if in.Email != nil {
		c.Email = strings.ToLower(strings.TrimSpace(*in.Email))
	}
	c.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	resp := dto.ToCompanyResponse(c)
	return &resp, nil
}

// UploadLogo guarda la imagen, actualiza logo_url y la configuración de branding.
func (uc *CompanyUseCase) UploadLogo(ctx context.Context, companyID string, data []byte) (*dto.CompanyResponse, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: archivo vacío", domain.ErrInvalidInput)
	}
	if uc.maxBytes > 0 && int64(len(data)) > uc.maxBytes {
		return nil, fmt.Errorf("%w: el archivo supera %d bytes", domain.ErrInvalidInput, uc.maxBytes)
	}
	ext, ok := logoExtensions[http.DetectContentType(data)]
	if !ok {
		return nil, fmt.Errorf("%w: el logo debe ser PNG, JPG o WEBP", domain.ErrInvalidInput)
	}
	key := path.Join(companyID, "logo-"+uuid.New().String()+ext)
	url, err := uc.storage.Save(ctx, key, data)
	if err != nil {
		return nil, fmt.Errorf("guardar logo: %w", err)
	}
	if err := uc.repo.UpdateLogo(ctx, companyID, url); err != nil {
		return nil, err
	}
	if err := uc.settings.SetLogoURL(ctx, companyID, url); err != nil {
		return nil, err
	}
	return uc.Get(ctx, companyID)
}
