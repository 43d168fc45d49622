package ports

import "context"

// Attachment archivo adjunto de un correo.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Email mensaje saliente.
type Email struct {
	To          []string
	Subject     string
	HTMLBody    string
	Attachments []Attachment
}

// Mailer define el puerto de salida para correo electrónico.
type Mailer interface {
	Send(ctx context.Context, msg Email) error
}
