package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/taller-api/internal/application/ports"
	"github.com/jhoicas/taller-api/internal/domain/entity"
	"github.com/jhoicas/taller-api/internal/domain/repository"
)

const tenantStatusTTL = 30 * time.Second

// TenantService responde si una empresa puede operar (no suspendida).
// Es el único punto que conoce la regla de suspensión; el estado se cachea unos segundos.
type TenantService struct {
	companyRepo repository.CompanyRepository
	cache       ports.Cache
}

// NewTenantService construye el servicio.
func NewTenantService(companyRepo repository.CompanyRepository, cache ports.Cache) *TenantService {
	return &TenantService{companyRepo: companyRepo, cache: cache}
}

// IsActive informa si la empresa existe y está activa.
// Devuelve error solo ante fallos de infraestructura.
func (s *TenantService) IsActive(ctx context.Context, companyID string) (bool, error) {
	if companyID == "" {
		return false, fmt.Errorf("tenant: companyID es obligatorio")
	}
	key := "tenant:status:" + companyID
	if b, err := s.cache.Get(ctx, key); err == nil {
		return string(b) == entity.CompanyStatusActive, nil
	}
	company, err := s.companyRepo.GetByID(ctx, companyID)
	if err != nil {
		return false, err
	}
	status := "missing"
	if company != nil {
		status = company.Status
	}
	_ = s.cache.Set(ctx, key, []byte(status), tenantStatusTTL)
	return status == entity.CompanyStatusActive, nil
}
