// Package mail envía correos por SMTP con gomail.
package mail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"gopkg.in/gomail.v2"

	"github.com/jhoicas/taller-api/internal/application/ports"
	"github.com/jhoicas/taller-api/pkg/config"
	"github.com/jhoicas/taller-api/pkg/logger"
)

// ErrNoRecipients el correo no tiene destinatarios.
var ErrNoRecipients = errors.New("mail: sin destinatarios")

// sender abstrae gomail.Dialer para poder probar el armado del mensaje.
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer implementa ports.Mailer.
type SMTPMailer struct {
	dialer sender
	from   string
	log    *logger.Logger
}

var _ ports.Mailer = (*SMTPMailer)(nil)

// NewSMTPMailer construye el mailer desde la configuración SMTP.
func NewSMTPMailer(cfg config.SMTPConfig, log *logger.Logger) *SMTPMailer {
	if log == nil {
		log = logger.Nop()
	}
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.From,
		log:    log.Component("mail"),
	}
}

// Send arma el mensaje MIME y lo entrega. gomail no recibe contexto; si ctx ya está
// cancelado no se intenta el envío.
func (m *SMTPMailer) Send(ctx context.Context, msg ports.Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	gm, err := m.build(msg)
	if err != nil {
		return err
	}
	if err := m.dialer.DialAndSend(gm); err != nil {
		return fmt.Errorf("mail: enviar a %v: %w", msg.To, err)
	}
	m.log.Info().Strs("to", msg.To).Str("subject", msg.Subject).Int("attachments", len(msg.Attachments)).Msg("correo enviado")
	return nil
}

func (m *SMTPMailer) build(msg ports.Email) (*gomail.Message, error) {
	if len(msg.To) == 0 {
		return nil, ErrNoRecipients
	}
	gm := gomail.NewMessage(gomail.SetCharset("UTF-8"))
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To...)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/html", msg.HTMLBody)
	for _, a := range msg.Attachments {
		content := a.Content
		settings := []gomail.FileSetting{
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := io.Copy(w, bytes.NewReader(content))
				return err
			}),
		}
		if a.ContentType != "" {
			settings = append(settings, gomail.SetHeader(map[string][]string{"Content-Type": {a.ContentType}}))
		}
		gm.Attach(a.Filename, settings...)
	}
	return gm, nil
}

// LogMailer registra los correos en lugar de enviarlos. Se usa cuando no hay SMTP configurado.
type LogMailer struct {
	log *logger.Logger
}

var _ ports.Mailer = (*LogMailer)(nil)

// NewLogMailer construye el mailer de desarrollo.
func NewLogMailer(log *logger.Logger) *LogMailer {
	if log == nil {
		log = logger.Nop()
	}
	return &LogMailer{log: log.Component("mail")}
}

func (m *LogMailer) Send(_ context.Context, msg ports.Email) error {
	if len(msg.To) == 0 {
		return ErrNoRecipients
	}
	m.log.Warn().Strs("to", msg.To).Str("subject", msg.Subject).Msg("SMTP no configurado: correo no enviado")
	return nil
}

// New elige el mailer según la configuración.
func New(cfg config.SMTPConfig, log *logger.Logger) ports.Mailer {
	if !cfg.Enabled() {
		return NewLogMailer(log)
	}
	return NewSMTPMailer(cfg, log)
}
