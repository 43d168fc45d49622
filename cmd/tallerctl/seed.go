package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jhoicas/taller-api/internal/application/auth"
	"github.com/jhoicas/taller-api/internal/application/dto"
	"github.com/jhoicas/taller-api/internal/infrastructure/postgres"
)

type seedOptions struct {
	companyName   string
	companyTaxID  string
	companyEmail  string
	adminName     string
	adminEmail    string
	adminPassword string
}

var seedFlags seedOptions

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Crea una empresa con su usuario administrador",
	Long: `Da de alta una empresa y su primer administrador con el mismo flujo que POST /api/auth/signup.

Ejemplo:
  tallerctl seed --company-name "Taller Central" --company-tax-id 900123456-7 \
    --admin-email admin@taller.co --admin-password 'cambiar123'`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func init() {
	f := seedCmd.Flags()
	f.StringVar(&seedFlags.companyName, "company-name", "", "Nombre de la empresa (requerido)")
	f.StringVar(&seedFlags.companyTaxID, "company-tax-id", "", "NIT de la empresa (requerido)")
	f.StringVar(&seedFlags.companyEmail, "company-email", "", "Email de contacto de la empresa")
	f.StringVar(&seedFlags.adminName, "admin-name", "Administrador", "Nombre del administrador")
	f.StringVar(&seedFlags.adminEmail, "admin-email", "", "Email del administrador (requerido)")
	f.StringVar(&seedFlags.adminPassword, "admin-password", "", "Contraseña del administrador, mínimo 8 caracteres (requerido)")
	for _, name := range []string{"company-name", "company-tax-id", "admin-email", "admin-password"} {
		_ = seedCmd.MarkFlagRequired(name)
	}
}

func seedRequest() dto.SignupRequest {
	return dto.SignupRequest{
		CompanyName:   strings.TrimSpace(seedFlags.companyName),
		CompanyTaxID:  strings.TrimSpace(seedFlags.companyTaxID),
		CompanyEmail:  strings.TrimSpace(seedFlags.companyEmail),
		AdminName:     strings.TrimSpace(seedFlags.adminName),
		AdminEmail:    strings.TrimSpace(seedFlags.adminEmail),
		AdminPassword: seedFlags.adminPassword,
	}
}

func runSeed(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()
	pool, err := connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	authUC := auth.NewAuthUseCase(
		postgres.NewUserRepository(pool),
		postgres.NewCompanyRepository(pool),
		postgres.NewTxRunner(pool),
		nil,
		auth.JWTConfig{Secret: cfg.JWT.Secret, ExpMinutes: cfg.JWT.Expiration, Issuer: cfg.JWT.Issuer},
		cfg.HTTP.PublicBaseURL,
	)
	out, err := authUC.Signup(ctx, seedRequest())
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	log.Info().Str("company_id", out.Company.ID).Str("user_id", out.User.ID).Msg("empresa creada")
	fmt.Fprintf(cmd.OutOrStdout(), "empresa %s (%s)\nadministrador %s (%s)\n",
		out.Company.Name, out.Company.ID, out.User.Email, out.User.ID)
	return nil
}
