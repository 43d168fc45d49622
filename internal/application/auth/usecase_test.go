package auth

import (
	"context"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/taller-api/internal/application/dto"
	"github.com/jhoicas/taller-api/internal/application/ports"
	"github.com/jhoicas/taller-api/internal/domain"
	"github.com/jhoicas/taller-api/internal/domain/entity"
	"github.com/jhoicas/taller-api/internal/domain/repository"
	pkgjwt "github.com/jhoicas/taller-api/pkg/jwt"
)

// ── fakes ─────────────────────────────────────────────────────────────────────

type memUsers struct {
	mu    sync.Mutex
	users map[string]*entity.User
}

func (m *memUsers) Create(_ context.Context, u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.users {
		if x.Email == u.Email {
			return domain.ErrEmailAlreadyExists
		}
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memUsers) ListByCompany(context.Context, string, int, int) ([]*entity.User, int, error) {
	return nil, 0, nil
}

func (m *memUsers) Update(_ context.Context, u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memUsers) UpdatePassword(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id].PasswordHash = hash
	return nil
}

func (m *memUsers) Delete(context.Context, string, string) error { return nil }

type memCompanies struct {
	companies map[string]*entity.Company
}

func (m *memCompanies) Create(_ context.Context, c *entity.Company) error {
	cp := *c
	m.companies[c.ID] = &cp
	return nil
}

func (m *memCompanies) GetByID(_ context.Context, id string) (*entity.Company, error) {
	if c, ok := m.companies[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (m *memCompanies) GetByTaxID(_ context.Context, taxID string) (*entity.Company, error) {
	for _, c := range m.companies {
		if c.TaxID == taxID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memCompanies) Update(_ context.Context, c *entity.Company) error {
	m.companies[c.ID] = c
	return nil
}

func (m *memCompanies) UpdateLogo(context.Context, string, string) error { return nil }

type memTx struct {
	companies *memCompanies
	users     *memUsers
}

func (t memTx) RunSignup(_ context.Context, fn func(repository.CompanyRepository, repository.UserRepository) error) error {
	return fn(t.companies, t.users)
}

type captureMailer struct {
	sent []ports.Email
}

func (c *captureMailer) Send(_ context.Context, msg ports.Email) error {
	c.sent = append(c.sent, msg)
	return nil
}

const secret = "test-secret"

func newUseCase(mailer ports.Mailer) (*AuthUseCase, *memUsers, *memCompanies) {
	users := &memUsers{users: map[string]*entity.User{}}
	companies := &memCompanies{companies: map[string]*entity.Company{}}
	uc := NewAuthUseCase(users, companies, memTx{companies: companies, users: users}, mailer,
		JWTConfig{Secret: secret, ExpMinutes: 60, Issuer: "taller-test", ResetMinutes: 15},
		"https://taller.test")
	return uc, users, companies
}

func signupRequest() dto.SignupRequest {
	return dto.SignupRequest{
		CompanyName:   "Taller La 14",
		CompanyTaxID:  "900123456",
		AdminName:     "Ana",
		AdminEmail:    " Ana@Taller.com ",
		AdminPassword: "secreta123",
	}
}

// ── tests ─────────────────────────────────────────────────────────────────────

func TestSignup_CreaEmpresaYAdmin(t *testing.T) {
	uc, users, companies := newUseCase(nil)

	out, err := uc.Signup(context.Background(), signupRequest())
	require.NoError(t, err)

	assert.Equal(t, "ana@taller.com", out.User.Email)
	assert.Equal(t, entity.RoleAdmin, out.User.Role)
	assert.Len(t, companies.companies, 1)
	assert.Len(t, users.users, 1)

	userID, companyID, role, err := pkgjwt.Parse(secret, out.Token)
	require.NoError(t, err)
	assert.Equal(t, out.User.ID, userID)
	assert.Equal(t, out.Company.ID, companyID)
	assert.Equal(t, entity.RoleAdmin, role)
}

func TestSignup_Duplicados(t *testing.T) {
	uc, _, _ := newUseCase(nil)
	_, err := uc.Signup(context.Background(), signupRequest())
	require.NoError(t, err)

	_, err = uc.Signup(context.Background(), signupRequest())
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	otra := signupRequest()
	otra.CompanyTaxID = "800999888"
	_, err = uc.Signup(context.Background(), otra)
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
}

func TestSignup_PasswordCorta(t *testing.T) {
	uc, _, _ := newUseCase(nil)
	in := signupRequest()
	in.AdminPassword = "corta"
	_, err := uc.Signup(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLogin(t *testing.T) {
	uc, users, _ := newUseCase(nil)
	created, err := uc.Signup(context.Background(), signupRequest())
	require.NoError(t, err)

	out, err := uc.Login(context.Background(), dto.LoginRequest{Email: "ANA@taller.com", Password: "secreta123"})
	require.NoError(t, err)
	assert.Equal(t, created.User.ID, out.User.ID)
	assert.Equal(t, 3600, out.ExpiresIn)

	_, err = uc.Login(context.Background(), dto.LoginRequest{Email: "ana@taller.com", Password: "mala"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = uc.Login(context.Background(), dto.LoginRequest{Email: "nadie@taller.com", Password: "x"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	users.users[created.User.ID].Status = entity.UserStatusInactive
	_, err = uc.Login(context.Background(), dto.LoginRequest{Email: "ana@taller.com", Password: "secreta123"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestChangePassword(t *testing.T) {
	uc, _, _ := newUseCase(nil)
	created, err := uc.Signup(context.Background(), signupRequest())
	require.NoError(t, err)

	err = uc.ChangePassword(context.Background(), created.User.ID, dto.ChangePasswordRequest{CurrentPassword: "mala", NewPassword: "nuevaclave1"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	require.NoError(t, uc.ChangePassword(context.Background(), created.User.ID,
		dto.ChangePasswordRequest{CurrentPassword: "secreta123", NewPassword: "nuevaclave1"}))

	_, err = uc.Login(context.Background(), dto.LoginRequest{Email: "ana@taller.com", Password: "nuevaclave1"})
	assert.NoError(t, err)
}

var tokenRe = regexp.MustCompile(`token=([A-Za-z0-9_\-.]+)`)

func TestPasswordReset_FlujoCompleto(t *testing.T) {
	mailer := &captureMailer{}
	uc, _, _ := newUseCase(mailer)
	_, err := uc.Signup(context.Background(), signupRequest())
	require.NoError(t, err)

	require.NoError(t, uc.RequestPasswordReset(context.Background(), "ana@taller.com"))
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, []string{"ana@taller.com"}, mailer.sent[0].To)

	m := tokenRe.FindStringSubmatch(mailer.sent[0].HTMLBody)
	require.Len(t, m, 2)
	token := m[1]

	require.NoError(t, uc.ResetPassword(context.Background(), dto.PasswordResetConfirm{Token: token, NewPassword: "recuperada1"}))

	_, err = uc.Login(context.Background(), dto.LoginRequest{Email: "ana@taller.com", Password: "recuperada1"})
	assert.NoError(t, err)

	// el mismo enlace no se puede reutilizar
	err = uc.ResetPassword(context.Background(), dto.PasswordResetConfirm{Token: token, NewPassword: "otraclave12"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestPasswordReset_EmailDesconocidoNoFalla(t *testing.T) {
	mailer := &captureMailer{}
	uc, _, _ := newUseCase(mailer)

	assert.NoError(t, uc.RequestPasswordReset(context.Background(), "nadie@taller.com"))
	assert.Empty(t, mailer.sent)
}

func TestPasswordReset_SinMailer(t *testing.T) {
	uc, _, _ := newUseCase(nil)
	assert.ErrorIs(t, uc.RequestPasswordReset(context.Background(), "ana@taller.com"), domain.ErrNotConfigured)
}
