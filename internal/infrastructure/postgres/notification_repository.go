package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/taller-api/internal/domain"
	"github.com/jhoicas/taller-api/internal/domain/entity"
	"github.com/jhoicas/taller-api/internal/domain/repository"
)

var (
	_ repository.NotificationRepository = (*NotificationRepo)(nil)
	_ repository.SettingRepository      = (*SettingRepo)(nil)
)

// NotificationRepo feed de notificaciones. El INSERT dispara pg_notify('notifications', ...).
type NotificationRepo struct {
	q Querier
}

// NewNotificationRepository construye el adaptador.
func NewNotificationRepository(q Querier) *NotificationRepo {
	return &NotificationRepo{q: q}
}

func (r *NotificationRepo) Create(ctx context.Context, n *entity.Notification) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO notifications (id, company_id, user_id, type, title, message, entity_type, entity_id, read_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		n.ID, n.CompanyID, n.UserID, n.Type, n.Title, n.Message, n.EntityType, n.EntityID, n.ReadAt, n.CreatedAt)
	if err != nil {
		return mapWriteError(err, "insert notification")
	}
	return nil
}

// List notificaciones visibles para el usuario: las suyas y las de toda la empresa.
func (r *NotificationRepo) List(ctx context.Context, companyID string, f repository.NotificationFilter) ([]*entity.Notification, int, error) {
	const where = `
		FROM notifications
		WHERE company_id = $1
		  AND (user_id IS NULL OR user_id::text = $2)
		  AND (NOT $3::boolean OR read_at IS NULL)`
	args := []any{companyID, f.UserID, f.UnreadOnly}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT count(*) `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}
	rows, err := r.q.Query(ctx, `
		SELECT id, company_id, user_id, type, title, message, entity_type, entity_id, read_at, created_at `+where+`
		ORDER BY created_at DESC, id LIMIT $4 OFFSET $5`,
		append(args, limitArg(f.Limit), f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()
	var list []*entity.Notification
	for rows.Next() {
		var n entity.Notification
		if err := rows.Scan(&n.ID, &n.CompanyID, &n.UserID, &n.Type, &n.Title, &n.Message,
			&n.EntityType, &n.EntityID, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan notification: %w", err)
		}
		list = append(list, &n)
	}
	return list, total, rows.Err()
}

// MarkRead marca una notificación visible para el usuario; si ya estaba leída no cambia la fecha.
func (r *NotificationRepo) MarkRead(ctx context.Context, companyID, userID, id string) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE notifications SET read_at = COALESCE(read_at, now())
		WHERE id = $1 AND company_id = $2 AND (user_id IS NULL OR user_id::text = $3)`,
		id, companyID, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *NotificationRepo) MarkAllRead(ctx context.Context, companyID, userID string) (int64, error) {
	cmd, err := r.q.Exec(ctx, `
		UPDATE notifications SET read_at = now()
		WHERE company_id = $1 AND (user_id IS NULL OR user_id::text = $2) AND read_at IS NULL`,
		companyID, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return cmd.RowsAffected(), nil
}

// SettingRepo configuraciones JSONB por (empresa, clave).
type SettingRepo struct {
	q Querier
}

// NewSettingRepository construye el adaptador.
func NewSettingRepository(q Querier) *SettingRepo {
	return &SettingRepo{q: q}
}

func (r *SettingRepo) Get(ctx context.Context, companyID, key string) (*entity.Setting, error) {
	var s entity.Setting
	err := r.q.QueryRow(ctx,
		`SELECT company_id, key, value, updated_at FROM settings WHERE company_id = $1 AND key = $2`,
		companyID, key).Scan(&s.CompanyID, &s.Key, &s.Value, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get setting %s: %w", key, err)
	}
	return &s, nil
}

// Upsert inserta o reemplaza el valor completo de la clave.
func (r *SettingRepo) Upsert(ctx context.Context, s *entity.Setting) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO settings (company_id, key, value, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (company_id, key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		s.CompanyID, s.Key, []byte(s.Value), s.UpdatedAt)
	if err != nil {
		return mapWriteError(err, "upsert setting")
	}
	return nil
}
