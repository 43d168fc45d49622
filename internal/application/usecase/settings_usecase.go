package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/mail"
	"regexp"
	"time"

	"github.com/jhoicas/taller-api/internal/application/dto"
	"github.com/jhoicas/taller-api/internal/application/ports"
	"github.com/jhoicas/taller-api/internal/domain"
	"github.com/jhoicas/taller-api/internal/domain/entity"
	"github.com/jhoicas/taller-api/internal/domain/repository"
	"github.com/jhoicas/taller-api/internal/domain/workorder"
)

const (
	settingsTTL = 10 * time.Minute
	maskedToken = "********"
)

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// SettingsUseCase lee y guarda las configuraciones JSON por empresa (branding, backups, whatsapp).
type SettingsUseCase struct {
	repo        repository.SettingRepository
	companyRepo repository.CompanyRepository
	cache       ports.Cache
}

// NewSettingsUseCase construye el caso de uso.
func NewSettingsUseCase(repo repository.SettingRepository, companyRepo repository.CompanyRepository, cache ports.Cache) *SettingsUseCase {
	return &SettingsUseCase{repo: repo, companyRepo: companyRepo, cache: cache}
}

// Get devuelve la configuración guardada o los valores por defecto de la clave.
// El access token de WhatsApp nunca sale completo.
func (uc *SettingsUseCase) Get(ctx context.Context, companyID, key string) (*dto.SettingResponse, error) {
	var (
		value     any
		updatedAt *time.Time
	)
	s, err := uc.load(ctx, companyID, key)
	if err != nil {
		return nil, err
	}
	if s != nil {
		updatedAt = &s.UpdatedAt
	}
	switch key {
	case entity.SettingBranding:
		b, err := uc.Branding(ctx, companyID)
		if err != nil {
			return nil, err
		}
		value = b
	case entity.SettingBackups:
		b, err := uc.Backups(ctx, companyID)
		if err != nil {
			return nil, err
		}
		value = b
	case entity.SettingWhatsApp:
		w, err := uc.WhatsApp(ctx, companyID)
		if err != nil {
			return nil, err
		}
		if w.AccessToken != "" {
			w.AccessToken = maskedToken
		}
		value = w
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return &dto.SettingResponse{Key: key, Value: raw, UpdatedAt: updatedAt}, nil
}

// Update valida el JSON según la clave, lo guarda y limpia la caché.
func (uc *SettingsUseCase) Update(ctx context.Context, companyID, key string, raw json.RawMessage) (*dto.SettingResponse, error) {
	var (
		normalized any
		err        error
	)
	switch key {
	case entity.SettingBranding:
		var b entity.BrandingSettings
		if err = strictDecode(raw, &b); err == nil {
			// El logo solo cambia con la subida de /company/logo.
			if b.LogoURL == "" {
				prev, perr := uc.Branding(ctx, companyID)
				if perr != nil {
					return nil, perr
				}
				b.LogoURL = prev.LogoURL
			}
			err = validateBranding(b)
		}
		normalized = b
	case entity.SettingBackups:
		var b entity.BackupSettings
		if err = strictDecode(raw, &b); err == nil {
			// last_backup_at lo registra SendBackup, no el cliente.
			prev, perr := uc.Backups(ctx, companyID)
			if perr != nil {
				return nil, perr
			}
			b.LastBackupAt = prev.LastBackupAt
			err = validateBackups(b)
		}
		normalized = b
	case entity.SettingWhatsApp:
		var w entity.WhatsAppSettings
		if err = strictDecode(raw, &w); err == nil {
			if w.AccessToken == "" || w.AccessToken == maskedToken {
				prev, perr := uc.WhatsApp(ctx, companyID)
				if perr != nil {
					return nil, perr
				}
				w.AccessToken = prev.AccessToken
			}
			err = validateWhatsApp(w)
		}
		normalized = w
	default:
		return nil, fmt.Errorf("%w: clave de configuración desconocida %q", domain.ErrInvalidInput, key)
	}
	if err != nil {
		return nil, err
	}
	if err := uc.save(ctx, companyID, key, normalized); err != nil {
		return nil, err
	}
	return uc.Get(ctx, companyID, key)
}

// Branding configuración visual con valores por defecto tomados de la empresa.
func (uc *SettingsUseCase) Branding(ctx context.Context, companyID string) (entity.BrandingSettings, error) {
	company, err := uc.companyRepo.GetByID(ctx, companyID)
	if err != nil {
		return entity.BrandingSettings{}, err
	}
	name := ""
	if company != nil {
		name = company.Name
	}
	b := entity.DefaultBranding(name)
	if err := uc.decode(ctx, companyID, entity.SettingBranding, &b); err != nil {
		return entity.BrandingSettings{}, err
	}
	if b.BusinessName == "" {
		b.BusinessName = name
	}
	if b.LogoURL == "" && company != nil {
		b.LogoURL = company.LogoURL
	}
	return b, nil
}

// Backups configuración de respaldo.
func (uc *SettingsUseCase) Backups(ctx context.Context, companyID string) (entity.BackupSettings, error) {
	b := entity.DefaultBackups()
	err := uc.decode(ctx, companyID, entity.SettingBackups, &b)
	return b, err
}

// WhatsApp configuración de WhatsApp con el token sin enmascarar (uso interno).
func (uc *SettingsUseCase) WhatsApp(ctx context.Context, companyID string) (entity.WhatsAppSettings, error) {
	w := entity.DefaultWhatsApp()
	err := uc.decode(ctx, companyID, entity.SettingWhatsApp, &w)
	return w, err
}

// SaveBackups guarda la configuración de respaldo (usado al registrar un respaldo enviado).
func (uc *SettingsUseCase) SaveBackups(ctx context.Context, companyID string, b entity.BackupSettings) error {
	return uc.save(ctx, companyID, entity.SettingBackups, b)
}

// SetLogoURL actualiza el logo dentro de la configuración de branding.
func (uc *SettingsUseCase) SetLogoURL(ctx context.Context, companyID, logoURL string) error {
	b, err := uc.Branding(ctx, companyID)
	if err != nil {
		return err
	}
	b.LogoURL = logoURL
	return uc.save(ctx, companyID, entity.SettingBranding, b)
}

func (uc *SettingsUseCase) decode(ctx context.Context, companyID, key string, into any) error {
	s, err := uc.load(ctx, companyID, key)
	if err != nil || s == nil || len(s.Value) == 0 {
		return err
	}
	if err := json.Unmarshal(s.Value, into); err != nil {
		return fmt.Errorf("settings: decodificar %s: %w", key, err)
	}
	return nil
}

func (uc *SettingsUseCase) load(ctx context.Context, companyID, key string) (*entity.Setting, error) {
	ck := settingsCacheKey(companyID, key)
	if b, err := uc.cache.Get(ctx, ck); err == nil {
		var s entity.Setting
		if json.Unmarshal(b, &s) == nil {
			return &s, nil
		}
	}
	s, err := uc.repo.Get(ctx, companyID, key)
	if err != nil {
		return nil, err
	}
	if s != nil {
		if b, err := json.Marshal(s); err == nil {
			_ = uc.cache.Set(ctx, ck, b, settingsTTL)
		}
	}
	return s, nil
}

func (uc *SettingsUseCase) save(ctx context.Context, companyID, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := uc.repo.Upsert(ctx, &entity.Setting{
		CompanyID: companyID,
		Key:       key,
		Value:     raw,
		UpdatedAt: time.Now(),
	}); err != nil {
		return err
	}
	_ = uc.cache.Delete(ctx, settingsCacheKey(companyID, key))
	return nil
}

func settingsCacheKey(companyID, key string) string {
	return "settings:" + companyID + ":" + key
}

func strictDecode(raw json.RawMessage, into any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(into); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

func validateBranding(b entity.BrandingSettings) error {
	if b.PrimaryColor != "" && !hexColor.MatchString(b.PrimaryColor) {
		return fmt.Errorf("%w: primary_color debe tener formato #RRGGBB", domain.ErrInvalidInput)
	}
	if len(b.Currency) > 3 {
		return fmt.Errorf("%w: currency debe ser un código ISO de 3 letras", domain.ErrInvalidInput)
	}
	return nil
}

func validateBackups(b entity.BackupSettings) error {
	if b.Frequency != "daily" && b.Frequency != "weekly" {
		return fmt.Errorf("%w: frequency debe ser daily o weekly", domain.ErrInvalidInput)
	}
	if b.Enabled {
		if _, err := mail.ParseAddress(b.Email); err != nil {
			return fmt.Errorf("%w: email de respaldo inválido", domain.ErrInvalidInput)
		}
	}
	return nil
}

func validateWhatsApp(w entity.WhatsAppSettings) error {
	if w.Enabled && (w.PhoneNumberID == "" || w.AccessToken == "") {
		return fmt.Errorf("%w: phone_number_id y access_token son obligatorios", domain.ErrInvalidInput)
	}
	for _, s := range w.NotifyStatuses {
		if !workorder.IsValidStatus(s) {
			return fmt.Errorf("%w: estado desconocido %q", domain.ErrInvalidInput, s)
		}
	}
	return nil
}
