package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/taller-api/internal/application/dto"
	"github.com/jhoicas/taller-api/internal/domain"
	"github.com/jhoicas/taller-api/internal/domain/entity"
	"github.com/jhoicas/taller-api/internal/domain/repository"
)

// SupplierUseCase casos de uso para proveedores.
type SupplierUseCase struct {
	repo repository.SupplierRepository
}

// NewSupplierUseCase construye el caso de uso.
func NewSupplierUseCase(repo repository.SupplierRepository) *SupplierUseCase {
	return &SupplierUseCase{repo: repo}
}

func (uc *SupplierUseCase) Create(ctx context.Context, companyID string, in dto.SupplierRequest) (*dto.SupplierResponse, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: el nombre es obligatorio", domain.ErrInvalidInput)
	}
	now := time.Now()
	s := &entity.Supplier{
		ID:        uuid.New().String(),
		CompanyID: companyID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applySupplier(s, in)
	if err := uc.repo.Create(ctx, s); err != nil {
		return nil, err
	}
	return toSupplierResponse(s), nil
}

func (uc *SupplierUseCase) GetByID(ctx context.Context, companyID, id string) (*dto.SupplierResponse, error) {
	s, err := uc.get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	return toSupplierResponse(s), nil
}

func (uc *SupplierUseCase) List(ctx context.Context, companyID string, page dto.PageRequest) (*dto.SupplierListResponse, error) {
	page.DefaultPage()
	list, total, err := uc.repo.List(ctx, companyID, repository.ListFilter{Query: page.Query, Limit: page.Limit, Offset: page.Offset})
	if err != nil {
		return nil, err
	}
	out := &dto.SupplierListResponse{
		Items: make([]dto.SupplierResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	}
	for _, s := range list {
		out.Items = append(out.Items, *toSupplierResponse(s))
	}
	return out, nil
}

func (uc *SupplierUseCase) Update(ctx context.Context, companyID, id string, in dto.SupplierRequest) (*dto.SupplierResponse, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: el nombre es obligatorio", domain.ErrInvalidInput)
	}
	s, err := uc.get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	applySupplier(s, in)
	s.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, s); err != nil {
		return nil, err
	}
	return toSupplierResponse(s), nil
}

// Delete elimina el proveedor; los productos quedan sin proveedor (ON DELETE SET NULL).
func (uc *SupplierUseCase) Delete(ctx context.Context, companyID, id string) error {
	if _, err := uc.get(ctx, companyID, id); err != nil {
		return err
	}
	return uc.repo.Delete(ctx, companyID, id)
}

// Exists confirma que el proveedor pertenece a la empresa.
func (uc *SupplierUseCase) Exists(ctx context.Context, companyID, id string) error {
	_, err := uc.get(ctx, companyID, id)
	return err
}

func (uc *SupplierUseCase) get(ctx context.Context, companyID, id string) (*entity.Supplier, error) {
	s, err := uc.repo.GetByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, domain.ErrNotFound
	}
	return s, nil
}

func applySupplier(s *entity.Supplier, in dto.SupplierRequest) {
	s.Name = strings.TrimSpace(in.Name)
	s.TaxID = strings.TrimSpace(in.TaxID)
	s.ContactName = in.ContactName
	s.Phone = strings.TrimSpace(in.Phone)
	s.Email = strings.ToLower(strings.TrimSpace(in.Email))
	s.Address = in.Address
	s.Notes = in.Notes
}

func toSupplierResponse(s *entity.Supplier) *dto.SupplierResponse {
	return &dto.SupplierResponse{
		ID:          s.ID,
		CompanyID:   s.CompanyID,
		Name:        s.Name,
		TaxID:       s.TaxID,
		ContactName: s.ContactName,
		Phone:       s.Phone,
		Email:       s.Email,
		Address:     s.Address,
		Notes:       s.Notes,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}
