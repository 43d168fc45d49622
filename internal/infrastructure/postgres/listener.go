package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/taller-api/internal/domain/entity"
	"github.com/jhoicas/taller-api/pkg/logger"
)

// NotificationsChannel canal de pg_notify usado por el trigger de notifications.
const NotificationsChannel = "notifications"

const maxListenBackoff = 30 * time.Second

// NotificationListener mantiene una conexión dedicada con LISTEN y reconecta si se cae.
type NotificationListener struct {
	pool    *pgxpool.Pool
	channel string
	log     *logger.Logger
}

// NewNotificationListener construye el listener sobre el canal notifications.
func NewNotificationListener(pool *pgxpool.Pool, log *logger.Logger) *NotificationListener {
	return &NotificationListener{pool: pool, channel: NotificationsChannel, log: log.Component("pg-listener")}
}

// Run bloquea hasta que ctx termine, entregando cada notificación insertada a handle.
func (l *NotificationListener) Run(ctx context.Context, handle func(entity.Notification)) error {
	backoff := time.Second
	for {
		err := l.listen(ctx, handle)
		if ctx.Err() != nil {
			return nil
		}
		l.log.Warn().Err(err).Dur("retry_in", backoff).Msg("LISTEN interrumpido, reconectando")
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxListenBackoff)
	}
}

func (l *NotificationListener) listen(ctx context.Context, handle func(entity.Notification)) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+l.channel); err != nil {
		return err
	}
	l.log.Info().Str("channel", l.channel).Msg("escuchando notificaciones")

	for {
		msg, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				// la conexión queda en medio de una espera; no se devuelve al pool en ese estado
				_ = conn.Conn().Close(context.Background())
			}
			return err
		}
		var n entity.Notification
		if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
			l.log.Error().Err(err).Str("payload", msg.Payload).Msg("payload de notificación inválido")
			continue
		}
		handle(n)
	}
}
