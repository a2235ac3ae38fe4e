package infrastructure

import (
	"encoding/json"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"application-intake/domain"
)

func TestNewApplicationSubmittedMessage(t *testing.T) {
	email := "jane@example.com"
	submitted := time.Date(2025, 3, 2, 9, 30, 0, 0, time.UTC)
	evt := domain.ApplicationSubmitted{
		ApplicationID: 42,
		Name:          "Jane Doe",
		Email:         &email,
		VideoFilename: "video_1740907800_0123456789abcdef0123456789abcdef.mp4",
		SubmittedAt:   submitted,
	}

	msg, err := newApplicationSubmittedMessage(evt)
	require.NoError(t, err)

	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, "application.submitted", msg.Type)
	assert.True(t, submitted.Equal(msg.Timestamp))
	assert.JSONEq(t, `{
		"application_id": 42,
		"name": "Jane Doe",
		"email": "jane@example.com",
		"video_filename": "video_1740907800_0123456789abcdef0123456789abcdef.mp4",
		"submitted_at": "2025-03-02T09:30:00Z"
	}`, string(msg.Body))
}

func TestNewApplicationSubmittedMessage_NoEmail(t *testing.T) {
	msg, err := newApplicationSubmittedMessage(domain.ApplicationSubmitted{ApplicationID: 7, Name: "Asha"})
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(msg.Body, &body))
	assert.NotContains(t, body, "email")
	assert.EqualValues(t, 7, body["application_id"])
}
