package entity

import "time"

// Tipos de notificación.
const (
	NotificationInfo    = "info"
	NotificationSuccess = "success"
	NotificationWarning = "warning"
	NotificationError   = "error"
)

// Notification mensaje del feed de una empresa. UserID nil = visible para todos sus usuarios.
type Notification struct {
	ID         string     `json:"id"`
	CompanyID  string     `json:"company_id"`
	UserID     *string    `json:"user_id,omitempty"`
	Type       string     `json:"type"`
	Title      string     `json:"title"`
	Message    string     `json:"message"`
	EntityType string     `json:"entity_type,omitempty"`
	EntityID   string     `json:"entity_id,omitempty"`
	ReadAt     *time.Time `json:"read_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// VisibleTo indica si la notificación corresponde al usuario userID de la empresa companyID.
func (n *Notification) VisibleTo(companyID, userID string) bool {
	if n.CompanyID != companyID {
		return false
	}
	return n.UserID == nil || *n.UserID == userID
}
