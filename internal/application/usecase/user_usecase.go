package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/taller-api/internal/application/dto"
	"github.com/jhoicas/taller-api/internal/domain"
	"github.com/jhoicas/taller-api/internal/domain/entity"
	"github.com/jhoicas/taller-api/internal/domain/repository"
)

// UserUseCase administración de usuarios de una empresa (solo admin).
type UserUseCase struct {
	repo repository.UserRepository
}

// NewUserUseCase construye el caso de uso con el puerto de persistencia.
func NewUserUseCase(repo repository.UserRepository) *UserUseCase {
	return &UserUseCase{repo: repo}
}

// List usuarios de la empresa.
func (uc *UserUseCase) List(ctx context.Context, companyID string, page dto.PageRequest) (*dto.UserListResponse, error) {
	page.DefaultPage()
	list, total, err := uc.repo.ListByCompany(ctx, companyID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := &dto.UserListResponse{
		Items: make([]dto.UserResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	}
	for _, u := range list {
		out.Items = append(out.Items, dto.ToUserResponse(u))
	}
	return out, nil
}

// GetByID obtiene un usuario de la empresa.
func (uc *UserUseCase) GetByID(ctx context.Context, companyID, id string) (*dto.UserResponse, error) {
	u, err := uc.get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	resp := dto.ToUserResponse(u)
	return &resp, nil
}

// Create da de alta un usuario en la empresa del admin.
func (uc *UserUseCase) Create(ctx context.Context, companyID string, in dto.CreateUserRequest) (*dto.UserResponse, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: nombre y email son obligatorios", domain.ErrInvalidInput)
	}
	if !entity.IsValidRole(in.Role) {
		return nil, fmt.Errorf("%w: rol desconocido %q", domain.ErrInvalidInput, in.Role)
	}
	if len(in.Password) < 8 {
		return nil, fmt.Errorf("%w: la contraseña debe tener al menos 8 caracteres", domain.ErrInvalidInput)
	}
	existing, err := uc.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrEmailAlreadyExists
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	u := &entity.User{
		ID:           uuid.New().String(),
		CompanyID:    companyID,
		Email:        email,
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(in.Name),
		Role:         in.Role,
		Status:       entity.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	resp := dto.ToUserResponse(u)
	return &resp, nil
}

// Update cambia nombre, rol o estado. Un admin no puede quitarse el rol ni desactivarse a sí mismo.
func (uc *UserUseCase) Update(ctx context.Context, companyID, actorID, id string, in dto.UpdateUserRequest) (*dto.UserResponse, error) {
	u, err := uc.get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, fmt.Errorf("%w: el nombre no puede quedar vacío", domain.ErrInvalidInput)
		}
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.Role != nil {
		if !entity.IsValidRole(*in.Role) {
			return nil, fmt.Errorf("%w: rol desconocido %q", domain.ErrInvalidInput, *in.Role)
		}
		if id == actorID && *in.Role != entity.RoleAdmin {
			return nil, fmt.Errorf("%w: no puede quitarse el rol de administrador", domain.ErrConflict)
		}
		u.Role = *in.Role
	}
	if in.Status != nil {
		if *in.Status != entity.UserStatusActive && *in.Status != entity.UserStatusInactive {
			return nil, fmt.Errorf("%w: estado desconocido %q", domain.ErrInvalidInput, *in.Status)
		}
		if id == actorID && *in.Status != entity.UserStatusActive {
			return nil, fmt.Errorf("%w: no puede desactivar su propio usuario", domain.ErrConflict)
		}
		u.Status = *in.Status
	}
	u.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	resp := dto.ToUserResponse(u)
	return &resp, nil
}

// Delete elimina un usuario de la empresa; nadie puede eliminarse a sí mismo.
func (uc *UserUseCase) Delete(ctx context.Context, companyID, actorID, id string) error {
	if id == actorID {
		return fmt.Errorf("%w: no puede eliminar su propio usuario", domain.ErrConflict)
	}
	if _, err := uc.get(ctx, companyID, id); err != nil {
		return err
	}
	return uc.repo.Delete(ctx, companyID, id)
}

func (uc *UserUseCase) get(ctx context.Context, companyID, id string) (*entity.User, error) {
	u, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil || u.CompanyID != companyID {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}
