package auth

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/taller-api/internal/application/dto"
	"github.com/jhoicas/taller-api/internal/application/ports"
	"github.com/jhoicas/taller-api/internal/domain"
	"github.com/jhoicas/taller-api/internal/domain/entity"
	"github.com/jhoicas/taller-api/internal/domain/repository"
	"github.com/jhoicas/taller-api/pkg/jwt"
)

const minPasswordLen = 8

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret       string
	ExpMinutes   int
	Issuer       string
	ResetMinutes int
}

// AuthUseCase casos de uso de autenticación: alta de empresa, login, sesión y contraseñas.
type AuthUseCase struct {
	userRepo      repository.UserRepository
	companyRepo   repository.CompanyRepository
	txRunner      SignupTxRunner
	mailer        ports.Mailer // nil = recuperación por correo deshabilitada
	jwtCfg        JWTConfig
	publicBaseURL string
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(
	userRepo repository.UserRepository,
	companyRepo repository.CompanyRepository,
	txRunner SignupTxRunner,
	mailer ports.Mailer,
	jwtCfg JWTConfig,
	publicBaseURL string,
) *AuthUseCase {
	return &AuthUseCase{
		userRepo:      userRepo,
		companyRepo:   companyRepo,
		txRunner:      txRunner,
		mailer:        mailer,
		jwtCfg:        jwtCfg,
		publicBaseURL: publicBaseURL,
	}
}

// Signup registra una empresa nueva y su usuario administrador, y devuelve la sesión.
func (uc *AuthUseCase) Signup(ctx context.Context, in dto.SignupRequest) (*dto.LoginResponse, error) {
	in.AdminEmail = normalizeEmail(in.AdminEmail)
	in.CompanyTaxID = strings.TrimSpace(in.CompanyTaxID)
	if strings.TrimSpace(in.CompanyName) == "" || in.CompanyTaxID == "" || in.AdminEmail == "" {
		return nil, domain.ErrInvalidInput
	}
	if len(in.AdminPassword) < minPasswordLen {
		return nil, fmt.Errorf("%w: la contraseña debe tener al menos %d caracteres", domain.ErrInvalidInput, minPasswordLen)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	company := &entity.Company{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(in.CompanyName),
		TaxID:     in.CompanyTaxID,
		Address:   in.CompanyAddress,
		Phone:     in.CompanyPhone,
		Email:     normalizeEmail(in.CompanyEmail),
		Status:    entity.CompanyStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	name := strings.TrimSpace(in.AdminName)
	if name == "" {
		name = in.AdminEmail
	}
	user := &entity.User{
		ID:           uuid.New().String(),
		CompanyID:    company.ID,
		Email:        in.AdminEmail,
		PasswordHash: string(hash),
		Name:         name,
		Role:         entity.RoleAdmin,
		Status:       entity.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = uc.txRunner.RunSignup(ctx, func(companies repository.CompanyRepository, users repository.UserRepository) error {
		existing, err := companies.GetByTaxID(ctx, company.TaxID)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrDuplicate
		}
		if u, err := users.GetByEmail(ctx, user.Email); err != nil {
			return err
		} else if u != nil {
			return domain.ErrEmailAlreadyExists
		}
		if err := companies.Create(ctx, company); err != nil {
			return err
		}
		return users.Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	return uc.session(user, company)
}

// Login verifica email/password, genera JWT y retorna token + usuario.
// Email inexistente y contraseña incorrecta responden igual.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := uc.userRepo.GetByEmail(ctx, normalizeEmail(in.Email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	if user.Status != entity.UserStatusActive {
		return nil, domain.ErrForbidden
	}
	company, err := uc.companyRepo.GetByID(ctx, user.CompanyID)
	if err != nil {
		return nil, err
	}
	if company == nil || company.Status != entity.CompanyStatusActive {
		return nil, domain.ErrForbidden
	}
	return uc.session(user, company)
}

// Me devuelve el usuario autenticado y su empresa.
func (uc *AuthUseCase) Me(ctx context.Context, userID string) (*dto.SessionResponse, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	company, err := uc.companyRepo.GetByID(ctx, user.CompanyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, domain.ErrNotFound
	}
	return &dto.SessionResponse{User: dto.ToUserResponse(user), Company: dto.ToCompanyResponse(company)}, nil
}

// ChangePassword cambia la contraseña del usuario autenticado validando la actual.
func (uc *AuthUseCase) ChangePassword(ctx context.Context, userID string, in dto.ChangePasswordRequest) error {
	if len(in.NewPassword) < minPasswordLen {
		return domain.ErrInvalidInput
	}
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return domain.ErrUserNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.CurrentPassword)); err != nil {
		return domain.ErrUnauthorized
	}
	return uc.setPassword(ctx, user.ID, in.NewPassword)
}

// RequestPasswordReset envía un enlace de recuperación. Un email desconocido no es error.
func (uc *AuthUseCase) RequestPasswordReset(ctx context.Context, email string) error {
	if uc.mailer == nil {
		return domain.ErrNotConfigured
	}
	user, err := uc.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	if user == nil || user.Status != entity.UserStatusActive {
		return nil
	}
	token, err := jwt.GenerateReset(uc.resetKey(user), user.ID, uc.jwtCfg.Issuer, uc.resetMinutes())
	if err != nil {
		return err
	}
	link := uc.publicBaseURL + "/reset-password?token=" + url.QueryEscape(token)
	body := fmt.Sprintf(
		`<p>Hola %s,</p><p>Recibimos una solicitud para restablecer tu contraseña.</p>`+
			`<p><a href="%s">Restablecer contraseña</a></p>`+
			`<p>El enlace vence en %d minutos. Si no fuiste tú, ignora este mensaje.</p>`,
		html.EscapeString(user.Name), link, uc.resetMinutes(),
	)
	return uc.mailer.Send(ctx, ports.Email{
		To:       []string{user.Email},
		Subject:  "Recuperación de contraseña",
		HTMLBody: body,
	})
}

// ResetPassword aplica la nueva contraseña si el token es válido y no fue usado.
func (uc *AuthUseCase) ResetPassword(ctx context.Context, in dto.PasswordResetConfirm) error {
	if len(in.NewPassword) < minPasswordLen {
		return domain.ErrInvalidInput
	}
	userID, err := jwt.ResetSubject(in.Token)
	if err != nil {
		return domain.ErrUnauthorized
	}
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return domain.ErrUnauthorized
	}
	if _, err := jwt.ParseReset(uc.resetKey(user), in.Token); err != nil {
		return domain.ErrUnauthorized
	}
	return uc.setPassword(ctx, user.ID, in.NewPassword)
}

func (uc *AuthUseCase) setPassword(ctx context.Context, userID, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return uc.userRepo.UpdatePassword(ctx, userID, string(hash))
}

func (uc *AuthUseCase) session(user *entity.User, company *entity.Company) (*dto.LoginResponse, error) {
	token, err := jwt.Generate(uc.jwtCfg.Secret, user.ID, user.CompanyID, user.Role, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		Token:     token,
		ExpiresIn: uc.jwtCfg.ExpMinutes * 60,
		User:      dto.ToUserResponse(user),
		Company:   dto.ToCompanyResponse(company),
	}, nil
}

// resetKey firma los tokens de recuperación con el hash vigente: al cambiar la contraseña
// los tokens emitidos antes dejan de validar.
func (uc *AuthUseCase) resetKey(u *entity.User) string {
	return uc.jwtCfg.Secret + u.PasswordHash
}

func (uc *AuthUseCase) resetMinutes() int {
	if uc.jwtCfg.ResetMinutes <= 0 {
		return 30
	}
	return uc.jwtCfg.ResetMinutes
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

