package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/taller-api/internal/application/ports"
)

func TestSendText_EnviaMensajeConToken(t *testing.T) {
	var got textMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/1234/messages", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.1"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/")
	err := c.SendText(context.Background(), ports.WhatsAppCredentials{PhoneNumberID: "1234", AccessToken: "tok"}, "573001234567", "Hola")
	require.NoError(t, err)
	assert.Equal(t, "whatsapp", got.MessagingProduct)
	assert.Equal(t, "573001234567", got.To)
	assert.Equal(t, "text", got.Type)
	assert.Equal(t, "Hola", got.Text.Body)
}

func TestSendText_ErrorDeAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid OAuth access token","type":"OAuthException","code":190}}`))
	}))
	defer srv.Close()

	err := NewClient(srv.URL).SendText(context.Background(), ports.WhatsAppCredentials{PhoneNumberID: "1", AccessToken: "x"}, "57300", "hola")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid OAuth access token")
	assert.Contains(t, err.Error(), "401")
}

func TestSendText_CredencialesIncompletas(t *testing.T) {
	c := NewClient("")
	assert.Equal(t, DefaultAPIURL, c.baseURL)
	assert.Error(t, c.SendText(context.Background(), ports.WhatsAppCredentials{}, "57300", "x"))
	assert.Error(t, c.SendText(context.Background(), ports.WhatsAppCredentials{PhoneNumberID: "1", AccessToken: "t"}, "", "x"))
}
