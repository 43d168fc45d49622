// Package whatsapp adaptador de WhatsApp Cloud API (Graph API de Meta) para mensajes de texto.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jhoicas/taller-api/internal/application/ports"
)

// DefaultAPIURL endpoint base cuando WHATSAPP_API_URL no está definido.
const DefaultAPIURL = "https://graph.facebook.com/v19.0"

var _ ports.WhatsAppSender = (*Client)(nil)

// Client envía mensajes usando las credenciales de cada empresa.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient construye el adaptador. baseURL vacío usa DefaultAPIURL.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type textMessage struct {
	MessagingProduct string `json:"messaging_product"`
	RecipientType    string `json:"recipient_type"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		PreviewURL bool   `json:"preview_url"`
		Body       string `json:"body"`
	} `json:"text"`
}

type apiError struct {
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// SendText envía body al número to (solo dígitos, con indicativo de país).
func (c *Client) SendText(ctx context.Context, creds ports.WhatsAppCredentials, to, body string) error {
	if creds.PhoneNumberID == "" || creds.AccessToken == "" {
		return errors.New("whatsapp: credenciales incompletas")
	}
	if to == "" {
		return errors.New("whatsapp: destinatario vacío")
	}

	msg := textMessage{MessagingProduct: "whatsapp", RecipientType: "individual", To: to, Type: "text"}
	msg.Text.Body = body
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("whatsapp: serializar mensaje: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, creds.PhoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("whatsapp: crear request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp: llamada HTTP: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 16*1024))
	if err != nil {
		return fmt.Errorf("whatsapp: leer respuesta: %w", err)
	}
	if resp.StatusCode >= 300 {
		var apiErr apiError
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != nil {
			return fmt.Errorf("whatsapp: HTTP %d (%d): %s", resp.StatusCode, apiErr.Error.Code, apiErr.Error.Message)
		}
		return fmt.Errorf("whatsapp: HTTP %d: %s", resp.StatusCode, string(raw))
	}
	return nil
}
