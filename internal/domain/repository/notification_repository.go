package repository

import (
	"context"

	"github.com/jhoicas/taller-api/internal/domain/entity"
)

// NotificationRepository define el puerto de persistencia del feed de notificaciones.
type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	List(ctx context.Context, companyID string, f NotificationFilter) ([]*entity.Notification, int, error)
	MarkRead(ctx context.Context, companyID, userID, id string) error
	MarkAllRead(ctx context.Context, companyID, userID string) (int64, error)
}

// SettingRepository define el puerto de persistencia de configuraciones por empresa.
type SettingRepository interface {
	Get(ctx context.Context, companyID, key string) (*entity.Setting, error)
	Upsert(ctx context.Context, setting *entity.Setting) error
}
