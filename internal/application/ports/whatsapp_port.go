package ports

import "context"

// WhatsAppCredentials credenciales de la empresa en WhatsApp Cloud API.
type WhatsAppCredentials struct {
	PhoneNumberID string
	AccessToken   string
}

// WhatsAppSender envía mensajes de texto a clientes.
type WhatsAppSender interface {
	SendText(ctx context.Context, creds WhatsAppCredentials, to, body string) error
}
