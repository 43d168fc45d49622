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

// CustomerUseCase casos de uso para clientes.
type CustomerUseCase struct {
	repo repository.CustomerRepository
}

// NewCustomerUseCase construye el caso de uso.
func NewCustomerUseCase(repo repository.CustomerRepository) *CustomerUseCase {
	return &CustomerUseCase{repo: repo}
}

// Create crea un nuevo cliente. El documento, si viene, es único por empresa (lo valida el repositorio).
func (uc *CustomerUseCase) Create(ctx context.Context, companyID string, in dto.CustomerRequest) (*dto.CustomerResponse, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: el nombre es obligatorio", domain.ErrInvalidInput)
	}
	now := time.Now()
	c := &entity.Customer{
		ID:        uuid.New().String(),
		CompanyID: companyID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyCustomer(c, in)
	if err := uc.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return toCustomerResponse(c), nil
}

// GetByID obtiene un cliente de la empresa.
func (uc *CustomerUseCase) GetByID(ctx context.Context, companyID, id string) (*dto.CustomerResponse, error) {
	c, err := uc.get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	return toCustomerResponse(c), nil
}

// List lista clientes de la empresa; q busca por nombre, documento, email o teléfono.
func (uc *CustomerUseCase) List(ctx context.Context, companyID string, page dto.PageRequest) (*dto.CustomerListResponse, error) {
	page.DefaultPage()
	list, total, err := uc.repo.List(ctx, companyID, repository.ListFilter{Query: page.Query, Limit: page.Limit, Offset: page.Offset})
	if err != nil {
		return nil, err
	}
	out := &dto.CustomerListResponse{
		Items: make([]dto.CustomerResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	}
	for _, c := range list {
		out.Items = append(out.Items, *toCustomerResponse(c))
	}
	return out, nil
}

// Update reemplaza los datos del cliente.
func (uc *CustomerUseCase) Update(ctx context.Context, companyID, id string, in dto.CustomerRequest) (*dto.CustomerResponse, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: el nombre es obligatorio", domain.ErrInvalidInput)
	}
	c, err := uc.get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	applyCustomer(c, in)
	c.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return toCustomerResponse(c), nil
}

// Delete elimina un cliente. Con ventas u órdenes asociadas el repositorio devuelve ErrConflict.
func (uc *CustomerUseCase) Delete(ctx context.Context, companyID, id string) error {
	if _, err := uc.get(ctx, companyID, id); err != nil {
		return err
	}
	return uc.repo.Delete(ctx, companyID, id)
}

func (uc *CustomerUseCase) get(ctx context.Context, companyID, id string) (*entity.Customer, error) {
	c, err := uc.repo.GetByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func applyCustomer(c *entity.Customer, in dto.CustomerRequest) {
	c.Name = strings.TrimSpace(in.Name)
	c.DocumentID = strings.TrimSpace(in.DocumentID)
	c.Email = strings.ToLower(strings.TrimSpace(in.Email))
	c.Phone = strings.TrimSpace(in.Phone)
	c.Address = in.Address
	c.Notes = in.Notes
}

func toCustomerResponse(c *entity.Customer) *dto.CustomerResponse {
	return &dto.CustomerResponse{
		ID:         c.ID,
		CompanyID:  c.CompanyID,
		Name:       c.Name,
		DocumentID: c.DocumentID,
		Email:      c.Email,
		Phone:      c.Phone,
		Address:    c.Address,
		Notes:      c.Notes,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}
