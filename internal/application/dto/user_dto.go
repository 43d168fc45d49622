package dto

import "time"

// SignupRequest alta de una empresa nueva con su usuario administrador.
type SignupRequest struct {
	CompanyName    string `json:"company_name" validate:"required,min=1,max=200"`
	CompanyTaxID   string `json:"company_tax_id" validate:"required"`
	CompanyEmail   string `json:"company_email" validate:"omitempty,email"`
	CompanyPhone   string `json:"company_phone"`
	CompanyAddress string `json:"company_address"`
	AdminName      string `json:"admin_name" validate:"required"`
	AdminEmail     string `json:"admin_email" validate:"required,email"`
	AdminPassword  string `json:"admin_password" validate:"required,min=8"`
}

// CreateUserRequest entrada para que un admin cree un usuario en su empresa.
type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required,min=1,max=200"`
	Role     string `json:"role" validate:"required,oneof=admin tecnico vendedor"`
}

// UpdateUserRequest cambios permitidos sobre un usuario.
type UpdateUserRequest struct {
	Name   *string `json:"name"`
	Role   *string `json:"role" validate:"omitempty,oneof=admin tecnico vendedor"`
	Status *string `json:"status" validate:"omitempty,oneof=active inactive"`
}

// UserResponse salida de un usuario (sin password).
type UserResponse struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"company_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserListResponse lista paginada de usuarios.
type UserListResponse struct {
	Items []UserResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}

// LoginRequest entrada para login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse salida con token JWT.
type LoginResponse struct {
	Token     string          `json:"token"`
	ExpiresIn int             `json:"expires_in"` // segundos
	User      UserResponse    `json:"user"`
	Company   CompanyResponse `json:"company"`
}

// SessionResponse usuario autenticado y su empresa.
type SessionResponse struct {
	User    UserResponse    `json:"user"`
	Company CompanyResponse `json:"company"`
}

// ChangePasswordRequest cambio de contraseña del usuario autenticado.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// PasswordResetRequest solicitud de correo de recuperación.
type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// PasswordResetConfirm nueva contraseña con el token recibido por correo.
type PasswordResetConfirm struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}
