package dto

import "time"

// CreateNotificationRequest aviso manual de un admin. UserID vacío = toda la empresa.
type CreateNotificationRequest struct {
	UserID  string `json:"user_id"`
	Type    string `json:"type" validate:"required,oneof=info success warning error"`
	Title   string `json:"title" validate:"required"`
	Message string `json:"message"`
}

// NotificationResponse salida de una notificación.
type NotificationResponse struct {
	ID         string     `json:"id"`
	Type       string     `json:"type"`
	Title      string     `json:"title"`
	Message    string     `json:"message"`
	EntityType string     `json:"entity_type,omitempty"`
	EntityID   string     `json:"entity_id,omitempty"`
	Read       bool       `json:"read"`
	ReadAt     *time.Time `json:"read_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// NotificationListResponse feed paginado.
type NotificationListResponse struct {
	Items []NotificationResponse `json:"items"`
	Page  PageResponse           `json:"page"`
}

// MarkAllReadResponse cuántas notificaciones se marcaron.
type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}
