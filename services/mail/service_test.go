package mail

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voxlane/voxlane/config"
	"github.com/wneessen/go-mail"
)

type mockSMTPClient struct {
	sendFunc func(msgs ...*mail.Msg) error
	sent     []*mail.Msg
}

func (m *mockSMTPClient) DialAndSend(msgs ...*mail.Msg) error {
	m.sent = append(m.sent, msgs...)
	if m.sendFunc != nil {
		return m.sendFunc(msgs...)
	}
	return nil
}

func getTestMailConfig() *config.MailConfig {
	return &config.MailConfig{
		Host:        "localhost",
		Port:        587,
		Username:    "test@example.com",
		Password:    "password",
		Encryption:  "starttls",
		FromAddress: "noreply@example.com",
		FromName:    "Voxlane",
	}
}

func TestNewService(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		svc, err := NewService(getTestMailConfig(), nil)
		require.NoError(t, err)
		assert.NotNil(t, svc)
	})

	t.Run("missing from address", func(t *testing.T) {
		cfg := getTestMailConfig()
		cfg.FromAddress = ""

		svc, err := NewService(cfg, nil)
		require.Error(t, err)
		assert.Nil(t, svc)
	})

	t.Run("encryption modes accepted", func(t *testing.T) {
		for _, encryption := range []string{"starttls", "ssl", "none", ""} {
			cfg := getTestMailConfig()
			cfg.Encryption = encryption

			_, err := NewService(cfg, nil)
			require.NoError(t, err, "encryption %q", encryption)
		}
	})
}

func TestService_SendPlain(t *testing.T) {
	t.Run("valid recipient", func(t *testing.T) {
		client := &mockSMTPClient{}
		svc := &Service{config: getTestMailConfig(), client: client}

		err := svc.SendPlain([]string{"recipient@example.com"}, "Subject", "Body")
		require.NoError(t, err)
		require.Len(t, client.sent, 1)
	})

	t.Run("invalid recipient", func(t *testing.T) {
		client := &mockSMTPClient{}
		svc := &Service{config: getTestMailConfig(), client: client}

		err := svc.SendPlain([]string{"not-an-address"}, "Subject", "Body")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to set TO addresses")
	})

	t.Run("transport failure surfaces", func(t *testing.T) {
		client := &mockSMTPClient{
			sendFunc: func(...*mail.Msg) error { return assert.AnError },
		}
		svc := &Service{config: getTestMailConfig(), client: client}

		err := svc.SendPlain([]string{"recipient@example.com"}, "Subject", "Body")
		assert.Error(t, err)
	})
}

func TestService_SendPasswordReset(t *testing.T) {
	client := &mockSMTPClient{}
	svc := &Service{config: getTestMailConfig(), client: client}

	err := svc.SendPasswordReset("user@example.com", "https://app.example.com/reset-password?token=abc123", time.Hour)
	require.NoError(t, err)
	require.Len(t, client.sent, 1)

	var body strings.Builder
	_, err = client.sent[0].WriteTo(&body)
	require.NoError(t, err)

	assert.Contains(t, body.String(), "abc123")
	assert.Contains(t, body.String(), "1 hour")
	assert.Contains(t, body.String(), "Reset your password")
}

func TestFormatExpiry(t *testing.T) {
	assert.Equal(t, "1 hour", formatExpiry(time.Hour))
	assert.Equal(t, "2 hours", formatExpiry(2*time.Hour))
	assert.Equal(t, "30 minutes", formatExpiry(30*time.Minute))
}
