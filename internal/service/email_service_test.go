package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComposeMessage_ListsEveryRecipient(t *testing.T) {
	msg := string(composeMessage([]string{"a@example.com", "b@example.com"}, "회수 현황 리포트", "<p>본문</p>"))

	assert.Contains(t, msg, "To: a@example.com, b@example.com\r\n")
	assert.Contains(t, msg, "Subject: 회수 현황 리포트\r\n")
	assert.Contains(t, msg, "<p>본문</p>")
}

func TestEmailSend_RejectsEmptyRecipients(t *testing.T) {
	svc := NewEmailService(EmailConfig{Host: "localhost", Port: 2525})
	err := svc.Send(context.Background(), nil, "subject", "body")
	assert.Error(t, err)
}

func TestEmailSend_HonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := NewEmailService(EmailConfig{Host: "localhost", Port: 2525})
	err := svc.Send(ctx, []string{"a@example.com"}, "subject", "body")
	assert.ErrorIs(t, err, context.Canceled)
}
