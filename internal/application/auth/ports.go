package auth

import (
	"context"

	"github.com/jhoicas/taller-api/internal/domain/repository"
)

// SignupTxRunner crea empresa y administrador en una sola transacción.
type SignupTxRunner interface {
	RunSignup(ctx context.Context, fn func(
		companies repository.CompanyRepository,
		users repository.UserRepository,
	) error) error
}
