package mail

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardpost/guardpost/pkg/config"
	"github.com/guardpost/guardpost/pkg/observability"
)

func TestSMTPMailer_RejectsInvalidAddresses(t *testing.T) {
	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	m := NewSMTP(config.SMTPConfig{
		Host: "smtp.example.com",
		Port: 587,
		From: "not-an-address",
	}, logger)

	err := m.Send(context.Background(), "bob@example.com", "subject", "body")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid from address")

	m = NewSMTP(config.SMTPConfig{
		Host: "smtp.example.com",
		Port: 587,
		From: "noreply@example.com",
	}, logger)

	err = m.Send(context.Background(), "also not an address", "subject", "body")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid recipient")
}

func TestNoop_SendAlwaysSucceeds(t *testing.T) {
	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	m := NewNoop(logger)

	assert.NoError(t, m.Send(context.Background(), "bob@example.com", "subject", "body"))
}
