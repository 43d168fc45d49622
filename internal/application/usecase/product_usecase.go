package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/taller-api/internal/application/dto"
	"github.com/jhoicas/taller-api/internal/application/inventory"
	"github.com/jhoicas/taller-api/internal/domain"
	"github.com/jhoicas/taller-api/internal/domain/entity"
	"github.com/jhoicas/taller-api/internal/domain/repository"
)

// StockRegistrar registra movimientos de inventario (implementado por inventory.RegisterMovementUseCase).
type StockRegistrar interface {
	RegisterMovement(ctx context.Context, input inventory.MovementInputDTO) (*dto.MovementResponse, error)
}

// ProductUseCase aplica reglas de negocio para productos.
type ProductUseCase struct {
	repo         repository.ProductRepository
	supplierRepo repository.SupplierRepository
	stock        StockRegistrar
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(repo repository.ProductRepository, supplierRepo repository.SupplierRepository, stock StockRegistrar) *ProductUseCase {
	return &ProductUseCase{repo: repo, supplierRepo: supplierRepo, stock: stock}
}

// Create crea un producto con stock 0 y registra el stock inicial como movimiento IN al costo indicado.
func (uc *ProductUseCase) Create(ctx context.Context, companyID, userID string, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	in.SKU = strings.TrimSpace(in.SKU)
	if in.SKU == "" || strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: sku y nombre son obligatorios", domain.ErrInvalidInput)
	}
	if in.Price.IsNegative() || in.Cost.IsNegative() || in.InitialStock < 0 || in.MinStock < 0 {
		return nil, fmt.Errorf("%w: precio, costo y cantidades no pueden ser negativos", domain.ErrInvalidInput)
	}
	if err := uc.checkSupplier(ctx, companyID, in.SupplierID); err != nil {
		return nil, err
	}
	existing, err := uc.repo.GetByCompanyAndSKU(ctx, companyID, in.SKU)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: el SKU %s ya existe", domain.ErrDuplicate, in.SKU)
	}
	now := time.Now()
	product := &entity.Product{
		ID:          uuid.New().String(),
		CompanyID:   companyID,
		SupplierID:  emptyToNil(in.SupplierID),
		SKU:         in.SKU,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Category:    strings.TrimSpace(in.Category),
		Price:       in.Price,
		Cost:        in.Cost,
		Stock:       0,
		MinStock:    in.MinStock,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	if in.InitialStock > 0 {
		cost := in.Cost
		if _, err := uc.stock.RegisterMovement(ctx, inventory.MovementInputDTO{
			CompanyID: companyID,
			UserID:    userID,
			ProductID: product.ID,
			Type:      entity.MovementTypeIN,
			Quantity:  in.InitialStock,
			UnitCost:  &cost,
			Reason:    "stock inicial",
		}); err != nil {
			return nil, fmt.Errorf("registrar stock inicial: %w", err)
		}
	}
	return uc.GetByID(ctx, companyID, product.ID)
}

// GetByID obtiene un producto de la empresa.
func (uc *ProductUseCase) GetByID(ctx context.Context, companyID, id string) (*dto.ProductResponse, error) {
	p, err := uc.get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	resp := dto.ToProductResponse(p)
	return &resp, nil
}

// List lista productos con búsqueda y filtros.
func (uc *ProductUseCase) List(ctx context.Context, companyID string, f repository.ProductFilter) (*dto.ProductListResponse, error) {
	page := dto.PageRequest{Limit: f.Limit, Offset: f.Offset}
	page.DefaultPage()
	f.Limit, f.Offset = page.Limit, page.Offset
	list, total, err := uc.repo.List(ctx, companyID, f)
	if err != nil {
		return nil, err
	}
	out := &dto.ProductListResponse{
		Items: make([]dto.ProductResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: f.Limit, Offset: f.Offset, Total: total},
	}
	for _, p := range list {
		out.Items = append(out.Items, dto.ToProductResponse(p))
	}
	return out, nil
}

// Update modifica los datos del producto. Stock y costo solo cambian con movimientos.
func (uc *ProductUseCase) Update(ctx context.Context, companyID, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	p, err := uc.get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, fmt.Errorf("%w: el nombre no puede quedar vacío", domain.ErrInvalidInput)
		}
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Category != nil {
		p.Category = strings.TrimSpace(*in.Category)
	}
	if in.SupplierID != nil {
		if err := uc.checkSupplier(ctx, companyID, in.SupplierID); err != nil {
			return nil, err
		}
		p.SupplierID = emptyToNil(in.SupplierID)
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return nil, fmt.Errorf("%w: el precio no puede ser negativo", domain.ErrInvalidInput)
		}
		p.Price = *in.Price
	}
	if in.MinStock != nil {
		if *in.MinStock < 0 {
			return nil, fmt.Errorf("%w: min_stock no puede ser negativo", domain.ErrInvalidInput)
		}
		p.MinStock = *in.MinStock
	}
	if in.Active != nil {
		p.Active = *in.Active
	}
	p.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	resp := dto.ToProductResponse(p)
	return &resp, nil
}

// Delete elimina el producto. Con ventas o movimientos asociados el repositorio devuelve ErrConflict;
// en ese caso conviene desactivarlo.
func (uc *ProductUseCase) Delete(ctx context.Context, companyID, id string) error {
	if _, err := uc.get(ctx, companyID, id); err != nil {
		return err
	}
	return uc.repo.Delete(ctx, companyID, id)
}

func (uc *ProductUseCase) get(ctx context.Context, companyID, id string) (*entity.Product, error) {
	p, err := uc.repo.GetByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (uc *ProductUseCase) checkSupplier(ctx context.Context, companyID string, supplierID *string) error {
	if supplierID == nil || *supplierID == "" {
		return nil
	}
	s, err := uc.supplierRepo.GetByID(ctx, companyID, *supplierID)
	if err != nil {
		return err
	}
	if s == nil {
		return fmt.Errorf("%w: proveedor inexistente", domain.ErrInvalidInput)
	}
	return nil
}

func emptyToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
