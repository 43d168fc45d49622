package entity

import (
	"encoding/json"
	"time"
)

// Claves de configuración por empresa.
const (
	SettingBranding = "branding"
	SettingBackups  = "backups"
	SettingWhatsApp = "whatsapp"
)

// Setting blob JSON de configuración de una empresa (tabla configuraciones).
type Setting struct {
	CompanyID string
	Key       string
	Value     json.RawMessage
	UpdatedAt time.Time
}

// BrandingSettings identidad visual usada en recibos y tickets.
type BrandingSettings struct {
	BusinessName  string `json:"business_name"`
	PrimaryColor  string `json:"primary_color"`
	LogoURL       string `json:"logo_url"`
	ReceiptHeader string `json:"receipt_header"`
	ReceiptFooter string `json:"receipt_footer"`
	Currency      string `json:"currency"`
}

// BackupSettings respaldo periódico por correo.
type BackupSettings struct {
	Enabled      bool       `json:"enabled"`
	Frequency    string     `json:"frequency"` // daily | weekly
	Email        string     `json:"email"`
	LastBackupAt *time.Time `json:"last_backup_at,omitempty"`
}

// WhatsAppSettings integración con WhatsApp Cloud API para avisar a clientes.
type WhatsAppSettings struct {
	Enabled         bool     `json:"enabled"`
	PhoneNumberID   string   `json:"phone_number_id"`
	AccessToken     string   `json:"access_token,omitempty"`
	NotifyStatuses  []string `json:"notify_statuses"`
	MessageTemplate string   `json:"message_template"`
}

// NotifiesStatus indica si hay que avisar al cliente cuando una orden pasa a status.
func (w WhatsAppSettings) NotifiesStatus(status string) bool {
	for _, s := range w.NotifyStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// DefaultBranding valores cuando la empresa no ha guardado configuración.
func DefaultBranding(companyName string) BrandingSettings {
	return BrandingSettings{
		BusinessName:  companyName,
		PrimaryColor:  "#00467F",
		ReceiptFooter: "Gracias por su compra",
		Currency:      "COP",
	}
}

// DefaultBackups valores por defecto de respaldo.
func DefaultBackups() BackupSettings {
	return BackupSettings{Frequency: "weekly"}
}

// DefaultWhatsApp valores por defecto de WhatsApp.
func DefaultWhatsApp() WhatsAppSettings {
	return WhatsAppSettings{
		NotifyStatuses:  []string{WorkOrderFinished},
		MessageTemplate: "Hola {cliente}, su orden {numero} ({equipo}) ahora está: {estado}.",
	}
}
