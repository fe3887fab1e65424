package notify_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/storefront/internal/notify"
)

func TestLogSender(t *testing.T) {
	var buf bytes.Buffer
	sender := notify.NewLogSender(zerolog.New(&buf))

	msg := notify.OrderConfirmation("ann@example.com", "Ann", "ORD-1A2B3C4D", "42.50")
	require.NoError(t, sender.Send(context.Background(), msg))

	assert.Contains(t, buf.String(), `"to":"ann@example.com"`)
	assert.Contains(t, buf.String(), "ORD-1A2B3C4D")
	assert.Contains(t, msg.Body, "$42.50")
}

func TestLogSender_Errors(t *testing.T) {
	sender := notify.NewLogSender(zerolog.Nop())

	err := sender.Send(context.Background(), notify.Message{Subject: "x"})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = sender.Send(ctx, notify.Message{To: "a@b.c"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWelcome(t *testing.T) {
	msg := notify.Welcome("bob@example.com", "Bob")
	assert.Equal(t, "bob@example.com", msg.To)
	assert.Contains(t, msg.Body, "Hi Bob")
}
