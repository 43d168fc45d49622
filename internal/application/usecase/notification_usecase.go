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

// NotificationUseCase feed de notificaciones del usuario autenticado.
type NotificationUseCase struct {
	repo     repository.NotificationRepository
	userRepo repository.UserRepository
}

// NewNotificationUseCase construye el caso de uso.
func NewNotificationUseCase(repo repository.NotificationRepository, userRepo repository.UserRepository) *NotificationUseCase {
	return &NotificationUseCase{repo: repo, userRepo: userRepo}
}

// List notificaciones visibles para el usuario (propias y de toda la empresa), más recientes primero.
func (uc *NotificationUseCase) List(ctx context.Context, companyID, userID string, unreadOnly bool, page dto.PageRequest) (*dto.NotificationListResponse, error) {
	page.DefaultPage()
	list, total, err := uc.repo.List(ctx, companyID, repository.NotificationFilter{
		UserID:     userID,
		UnreadOnly: unreadOnly,
		Limit:      page.Limit,
		Offset:     page.Offset,
	})
	if err != nil {
		return nil, err
	}
	out := &dto.NotificationListResponse{
		Items: make([]dto.NotificationResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	}
	for _, n := range list {
		out.Items = append(out.Items, dto.ToNotificationResponse(n))
	}
	return out, nil
}

// MarkRead marca una notificación como leída.
func (uc *NotificationUseCase) MarkRead(ctx context.Context, companyID, userID, id string) error {
	return uc.repo.MarkRead(ctx, companyID, userID, id)
}

// MarkAllRead marca como leídas todas las notificaciones visibles para el usuario.
func (uc *NotificationUseCase) MarkAllRead(ctx context.Context, companyID, userID string) (*dto.MarkAllReadResponse, error) {
	n, err := uc.repo.MarkAllRead(ctx, companyID, userID)
	if err != nil {
		return nil, err
	}
	return &dto.MarkAllReadResponse{Updated: n}, nil
}

// Create aviso manual de un admin, para un usuario de la empresa o para todos.
func (uc *NotificationUseCase) Create(ctx context.Context, companyID string, in dto.CreateNotificationRequest) (*dto.NotificationResponse, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: el título es obligatorio", domain.ErrInvalidInput)
	}
	switch in.Type {
	case entity.NotificationInfo, entity.NotificationSuccess, entity.NotificationWarning, entity.NotificationError:
	default:
		return nil, fmt.Errorf("%w: tipo de notificación %q", domain.ErrInvalidInput, in.Type)
	}
	n := &entity.Notification{
		ID:        uuid.New().String(),
		CompanyID: companyID,
		Type:      in.Type,
		Title:     strings.TrimSpace(in.Title),
		Message:   in.Message,
		CreatedAt: time.Now(),
	}
	if in.UserID != "" {
		u, err := uc.userRepo.GetByID(ctx, in.UserID)
		if err != nil {
			return nil, err
		}
		if u == nil || u.CompanyID != companyID {
			return nil, domain.ErrUserNotFound
		}
		n.UserID = &u.ID
	}
	if err := uc.repo.Create(ctx, n); err != nil {
		return nil, err
	}
	resp := dto.ToNotificationResponse(n)
	return &resp, nil
}
