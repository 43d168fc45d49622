package usecase

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/taller-api/internal/application/ports"
	"github.com/jhoicas/taller-api/internal/domain"
	"github.com/jhoicas/taller-api/internal/domain/entity"
	"github.com/jhoicas/taller-api/internal/domain/repository"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// BackupRepos repositorios leídos para armar el respaldo de una empresa.
type BackupRepos struct {
	Companies  repository.CompanyRepository
	Customers  repository.CustomerRepository
	Employees  repository.EmployeeRepository
	Suppliers  repository.SupplierRepository
	Products   repository.ProductRepository
	WorkOrders repository.WorkOrderRepository
	Sales      repository.SaleRepository
}

// BackupUseCase respaldo completo de una empresa en un libro XLSX.
type BackupUseCase struct {
	repos    BackupRepos
	exporter ports.SpreadsheetExporter
	mailer   ports.Mailer
	settings *SettingsUseCase
	now      func() time.Time
}

// NewBackupUseCase construye el caso de uso. mailer puede ser nil si no hay SMTP.
func NewBackupUseCase(repos BackupRepos, exporter ports.SpreadsheetExporter, mailer ports.Mailer, settings *SettingsUseCase) *BackupUseCase {
	return &BackupUseCase{repos: repos, exporter: exporter, mailer: mailer, settings: settings, now: time.Now}
}

// ExportBackup genera el libro con las hojas Clientes, Empleados, Proveedores, Productos, Ordenes y Ventas.
func (uc *BackupUseCase) ExportBackup(ctx context.Context, companyID string) ([]byte, error) {
	data, err := uc.collect(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return uc.exporter.BackupWorkbook(*data)
}

// SendBackup genera el respaldo, lo envía a backups.email y registra last_backup_at.
// Sin force solo envía si el respaldo está habilitado y vencido según la frecuencia.
// Devuelve false cuando no correspondía enviar.
func (uc *BackupUseCase) SendBackup(ctx context.Context, companyID string, force bool) (bool, error) {
	if uc.mailer == nil {
		return false, fmt.Errorf("%w: SMTP no configurado", domain.ErrNotConfigured)
	}
	cfg, err := uc.settings.Backups(ctx, companyID)
	if err != nil {
		return false, err
	}
	now := uc.now()
	if !force && !BackupDue(cfg, now) {
		return false, nil
	}
	if cfg.Email == "" {
		return false, fmt.Errorf("%w: backups.email no está configurado", domain.ErrInvalidInput)
	}
	data, err := uc.collect(ctx, companyID)
	if err != nil {
		return false, err
	}
	book, err := uc.exporter.BackupWorkbook(*data)
	if err != nil {
		return false, err
	}
	filename := fmt.Sprintf("respaldo-%s.xlsx", now.Format("2006-01-02"))
	err = uc.mailer.Send(ctx, ports.Email{
		To:       []string{cfg.Email},
		Subject:  fmt.Sprintf("Respaldo %s - %s", data.Company.Name, now.Format("2006-01-02")),
		HTMLBody: fmt.Sprintf("<p>Adjunto el respaldo de <b>%s</b> generado el %s.</p>", data.Company.Name, now.Format("02/01/2006 15:04")),
		Attachments: []ports.Attachment{{
			Filename:    filename,
			ContentType: xlsxContentType,
			Content:     book,
		}},
	})
	if err != nil {
		return false, fmt.Errorf("enviar respaldo: %w", err)
	}
	cfg.LastBackupAt = &now
	if err := uc.settings.SaveBackups(ctx, companyID, cfg); err != nil {
		return true, err
	}
	return true, nil
}

// BackupDue indica si corresponde un respaldo automático en now.
func BackupDue(cfg entity.BackupSettings, now time.Time) bool {
	if !cfg.Enabled {
		return false
	}
	if cfg.LastBackupAt == nil {
		return true
	}
	every := 24 * time.Hour
	if cfg.Frequency == "weekly" {
		every = 7 * 24 * time.Hour
	}
	return now.Sub(*cfg.LastBackupAt) >= every
}

func (uc *BackupUseCase) collect(ctx context.Context, companyID string) (*ports.BackupData, error) {
	company, err := uc.repos.Companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, domain.ErrNotFound
	}
	data := &ports.BackupData{Company: company}
	all := repository.ListFilter{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		data.Customers, _, err = uc.repos.Customers.List(gctx, companyID, all)
		return err
	})
	g.Go(func() (err error) {
		data.Employees, _, err = uc.repos.Employees.List(gctx, companyID, all)
		return err
	})
	g.Go(func() (err error) {
		data.Suppliers, _, err = uc.repos.Suppliers.List(gctx, companyID, all)
		return err
	})
	g.Go(func() (err error) {
		data.Products, _, err = uc.repos.Products.List(gctx, companyID, repository.ProductFilter{})
		return err
	})
	g.Go(func() (err error) {
		data.WorkOrders, _, err = uc.repos.WorkOrders.List(gctx, companyID, repository.WorkOrderFilter{})
		return err
	})
	g.Go(func() (err error) {
		data.Sales, _, err = uc.repos.Sales.List(gctx, companyID, repository.SaleFilter{})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("respaldo: %w", err)
	}
	return data, nil
}
