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

// EmployeeUseCase casos de uso para empleados.
type EmployeeUseCase struct {
	repo repository.EmployeeRepository
}

// NewEmployeeUseCase construye el caso de uso.
func NewEmployeeUseCase(repo repository.EmployeeRepository) *EmployeeUseCase {
	return &EmployeeUseCase{repo: repo}
}

// Create crea un empleado.
func (uc *EmployeeUseCase) Create(ctx context.Context, companyID string, in dto.EmployeeRequest) (*dto.EmployeeResponse, error) {
	if err := validateEmployee(in); err != nil {
		return nil, err
	}
	now := time.Now()
	e := &entity.Employee{
		ID:        uuid.New().String(),
		CompanyID: companyID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyEmployee(e, in)
	if err := uc.repo.Create(ctx, e); err != nil {
		return nil, err
	}
	return toEmployeeResponse(e), nil
}

// GetByID obtiene un empleado.
func (uc *EmployeeUseCase) GetByID(ctx context.Context, companyID, id string) (*dto.EmployeeResponse, error) {
	e, err := uc.get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	return toEmployeeResponse(e), nil
}

// List lista empleados.
func (uc *EmployeeUseCase) List(ctx context.Context, companyID string, page dto.PageRequest) (*dto.EmployeeListResponse, error) {
	page.DefaultPage()
	list, total, err := uc.repo.List(ctx, companyID, repository.ListFilter{Query: page.Query, Limit: page.Limit, Offset: page.Offset})
	if err != nil {
		return nil, err
	}
	out := &dto.EmployeeListResponse{
		Items: make([]dto.EmployeeResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	}
	for _, e := range list {
		out.Items = append(out.Items, *toEmployeeResponse(e))
	}
	return out, nil
}

// Update reemplaza los datos del empleado.
func (uc *EmployeeUseCase) Update(ctx context.Context, companyID, id string, in dto.EmployeeRequest) (*dto.EmployeeResponse, error) {
	if err := validateEmployee(in); err != nil {
		return nil, err
	}
	e, err := uc.get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	applyEmployee(e, in)
	e.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, e); err != nil {
		return nil, err
	}
	return toEmployeeResponse(e), nil
}

// Delete elimina un empleado. Si tiene órdenes asignadas el repositorio devuelve ErrConflict.
func (uc *EmployeeUseCase) Delete(ctx context.Context, companyID, id string) error {
	if _, err := uc.get(ctx, companyID, id); err != nil {
		return err
	}
	return uc.repo.Delete(ctx, companyID, id)
}

func (uc *EmployeeUseCase) get(ctx context.Context, companyID, id string) (*entity.Employee, error) {
	e, err := uc.repo.GetByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, domain.ErrNotFound
	}
	return e, nil
}

func validateEmployee(in dto.EmployeeRequest) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: el nombre es obligatorio", domain.ErrInvalidInput)
	}
	if in.Salary.IsNegative() {
		return fmt.Errorf("%w: el salario no puede ser negativo", domain.ErrInvalidInput)
	}
	if in.Status != "" && in.Status != entity.EmployeeStatusActive && in.Status != entity.EmployeeStatusInactive {
		return fmt.Errorf("%w: estado desconocido %q", domain.ErrInvalidInput, in.Status)
	}
	return nil
}

func applyEmployee(e *entity.Employee, in dto.EmployeeRequest) {
	e.Name = strings.TrimSpace(in.Name)
	e.DocumentID = strings.TrimSpace(in.DocumentID)
	e.Position = in.Position
	e.Phone = strings.TrimSpace(in.Phone)
	e.Email = strings.ToLower(strings.TrimSpace(in.Email))
	e.Salary = in.Salary
	e.HireDate = in.HireDate
	e.Status = in.Status
	if e.Status == "" {
		e.Status = entity.EmployeeStatusActive
	}
}

func toEmployeeResponse(e *entity.Employee) *dto.EmployeeResponse {
	return &dto.EmployeeResponse{
		ID:         e.ID,
		CompanyID:  e.CompanyID,
		Name:       e.Name,
		DocumentID: e.DocumentID,
		Position:   e.Position,
		Phone:      e.Phone,
		Email:      e.Email,
		Salary:     e.Salary,
		HireDate:   e.HireDate,
		Status:     e.Status,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}
