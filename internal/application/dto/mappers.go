package dto

import (
	"github.com/jhoicas/taller-api/internal/domain/entity"
)

// Conversores entidad → DTO compartidos por varios casos de uso.

func ToUserResponse(u *entity.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		CompanyID: u.CompanyID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func ToCompanyResponse(c *entity.Company) CompanyResponse {
	return CompanyResponse{
		ID:        c.ID,
		Name:      c.Name,
		TaxID:     c.TaxID,
		Address:   c.Address,
		Phone:     c.Phone,
		Email:     c.Email,
		LogoURL:   c.LogoURL,
		Status:    c.Status,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func ToProductResponse(p *entity.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		CompanyID:   p.CompanyID,
		SupplierID:  p.SupplierID,
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Price:       p.Price,
		Cost:        p.Cost,
		Stock:       p.Stock,
		MinStock:    p.MinStock,
		LowStock:    p.IsLowStock(),
		Active:      p.Active,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func ToMovementResponse(m *entity.InventoryMovement) MovementResponse {
	return MovementResponse{
		ID:            m.ID,
		ProductID:     m.ProductID,
		Type:          m.Type,
		Quantity:      m.Quantity,
		PreviousStock: m.PreviousStock,
		NewStock:      m.NewStock,
		UnitCost:      m.UnitCost,
		ReferenceID:   m.ReferenceID,
		Reason:        m.Reason,
		CreatedBy:     m.CreatedBy,
		CreatedAt:     m.CreatedAt,
	}
}

func ToSaleResponse(s *entity.Sale) SaleResponse {
	items := make([]SaleItemResponse, 0, len(s.Items))
	for _, it := range s.Items {
		items = append(items, SaleItemResponse{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Subtotal:    it.Subtotal,
		})
	}
	return SaleResponse{
		ID:            s.ID,
		CompanyID:     s.CompanyID,
		Number:        s.Number,
		CustomerID:    s.CustomerID,
		UserID:        s.UserID,
		PaymentMethod: s.PaymentMethod,
		Subtotal:      s.Subtotal,
		Discount:      s.Discount,
		Total:         s.Total,
		Paid:          s.Paid,
		Change:        s.Change,
		Status:        s.Status,
		Notes:         s.Notes,
		CancelReason:  s.CancelReason,
		CancelledAt:   s.CancelledAt,
		Items:         items,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

func ToNotificationResponse(n *entity.Notification) NotificationResponse {
	return NotificationResponse{
		ID:         n.ID,
		Type:       n.Type,
		Title:      n.Title,
		Message:    n.Message,
		EntityType: n.EntityType,
		EntityID:   n.EntityID,
		Read:       n.ReadAt != nil,
		ReadAt:     n.ReadAt,
		CreatedAt:  n.CreatedAt,
	}
}
