package mail

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/jhoicas/taller-api/internal/application/ports"
	"github.com/jhoicas/taller-api/pkg/config"
	"github.com/jhoicas/taller-api/pkg/logger"
)

type fakeDialer struct {
	sent []*gomail.Message
	err  error
}

func (f *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m...)
	return nil
}

func newTestMailer(d *fakeDialer) *SMTPMailer {
	return &SMTPMailer{dialer: d, from: "taller@example.com", log: logger.Nop()}
}

func TestSMTPMailer_ArmaMensajeConAdjunto(t *testing.T) {
	d := &fakeDialer{}
	m := newTestMailer(d)

	err := m.Send(context.Background(), ports.Email{
		To:       []string{"cliente@example.com"},
		Subject:  "Recibo V-000001",
		HTMLBody: "<p>Gracias</p>",
		Attachments: []ports.Attachment{
			{Filename: "V-000001.pdf", ContentType: "application/pdf", Content: []byte("%PDF-1.4")},
		},
	})
	require.NoError(t, err)
	require.Len(t, d.sent, 1)

	gm := d.sent[0]
	assert.Equal(t, []string{"taller@example.com"}, gm.GetHeader("From"))
	assert.Equal(t, []string{"cliente@example.com"}, gm.GetHeader("To"))

	var buf bytes.Buffer
	_, err = gm.WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.String()
	assert.Contains(t, raw, "Recibo V-000001")
	assert.Contains(t, raw, `filename="V-000001.pdf"`)
	assert.True(t, strings.Contains(raw, "application/pdf"))
}

func TestSMTPMailer_SinDestinatarios(t *testing.T) {
	d := &fakeDialer{}
	err := newTestMailer(d).Send(context.Background(), ports.Email{Subject: "x"})
	assert.ErrorIs(t, err, ErrNoRecipients)
	assert.Empty(t, d.sent)
}

func TestSMTPMailer_ErrorDeEnvio(t *testing.T) {
	d := &fakeDialer{err: errors.New("connection refused")}
	err := newTestMailer(d).Send(context.Background(), ports.Email{To: []string{"a@b.co"}})
	assert.ErrorContains(t, err, "connection refused")
}

func TestSMTPMailer_ContextoCancelado(t *testing.T) {
	d := &fakeDialer{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := newTestMailer(d).Send(ctx, ports.Email{To: []string{"a@b.co"}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, d.sent)
}

func TestNew_SinSMTPUsaLogMailer(t *testing.T) {
	m := New(config.SMTPConfig{}, logger.Nop())
	assert.IsType(t, &LogMailer{}, m)
	assert.NoError(t, m.Send(context.Background(), ports.Email{To: []string{"a@b.co"}}))

	m = New(config.SMTPConfig{Host: "smtp.example.com", Port: 587, From: "x@example.com"}, logger.Nop())
	assert.IsType(t, &SMTPMailer{}, m)
}
