package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhoicas/taller-api/internal/application/usecase"
	"github.com/jhoicas/taller-api/internal/infrastructure/cache"
	"github.com/jhoicas/taller-api/internal/infrastructure/mail"
	"github.com/jhoicas/taller-api/internal/infrastructure/postgres"
	"github.com/jhoicas/taller-api/internal/infrastructure/xlsx"
)

var backupFlags struct {
	companyID string
	all       bool
	force     bool
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Envía el respaldo en Excel al correo configurado",
	Long: `Genera el libro de respaldo (clientes, empleados, proveedores, productos, órdenes y ventas)
y lo envía al email de la configuración "backups" de la empresa.

Sin --force solo se envía si está habilitado y la frecuencia (diaria o semanal) lo indica,
lo que permite programarlo en cron con --all.`,
	Args:    cobra.NoArgs,
	PreRunE: validateBackupFlags,
	RunE:    runBackup,
}

func init() {
	f := backupCmd.Flags()
	f.StringVar(&backupFlags.companyID, "company", "", "ID de la empresa")
	f.BoolVar(&backupFlags.all, "all", false, "Todas las empresas activas")
	f.BoolVar(&backupFlags.force, "force", false, "Enviar aunque no corresponda por frecuencia")
	backupCmd.MarkFlagsMutuallyExclusive("company", "all")
}

func validateBackupFlags(_ *cobra.Command, _ []string) error {
	if backupFlags.companyID == "" && !backupFlags.all {
		return errors.New("indica --company <id> o --all")
	}
	return nil
}

func runBackup(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()
	pool, err := connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	companyRepo := postgres.NewCompanyRepository(pool)
	settings := usecase.NewSettingsUseCase(postgres.NewSettingRepository(pool), companyRepo, cache.Noop{})
	backupUC := usecase.NewBackupUseCase(usecase.BackupRepos{
		Companies:  companyRepo,
		Customers:  postgres.NewCustomerRepository(pool),
		Employees:  postgres.NewEmployeeRepository(pool),
		Suppliers:  postgres.NewSupplierRepository(pool),
		Products:   postgres.NewProductRepository(pool),
		WorkOrders: postgres.NewWorkOrderRepository(pool),
		Sales:      postgres.NewSaleRepository(pool),
	}, xlsx.NewExporter(), mail.New(cfg.SMTP, log), settings)

	ids := []string{backupFlags.companyID}
	if backupFlags.all {
		if ids, err = companyRepo.ListActiveIDs(ctx); err != nil {
			return fmt.Errorf("listar empresas: %w", err)
		}
	}

	var errs []error
	sent := 0
	for _, id := range ids {
		ok, err := backupUC.SendBackup(ctx, id, backupFlags.force)
		if err != nil {
			log.Error().Err(err).Str("company_id", id).Msg("respaldo falló")
			errs = append(errs, fmt.Errorf("empresa %s: %w", id, err))
			continue
		}
		if ok {
			sent++
			log.Info().Str("company_id", id).Msg("respaldo enviado")
		} else {
			log.Debug().Str("company_id", id).Msg("respaldo no corresponde")
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d de %d respaldos enviados\n", sent, len(ids))
	return errors.Join(errs...)
}
