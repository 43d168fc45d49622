package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin    = "admin"
	RoleTecnico  = "tecnico"
	RoleVendedor = "vendedor"
)

// Estados de usuario.
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// User representa un usuario del sistema (pertenece a una Company).
type User struct {
	ID           string
	CompanyID    string
	Email        string
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	Name         string
	Role         string
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsValidRole indica si role es uno de los roles soportados.
func IsValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleTecnico, RoleVendedor:
		return true
	}
	return false
}
