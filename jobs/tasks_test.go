package jobs

import (
	"context"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
)

func TestSendEmailTaskHandledByItsHandler(t *testing.T) {
	task, err := NewSendEmailTask(SendEmailPayload{
		To:      "asha@tripflow.example",
		Subject: "Quotation expired: Goa Getaway",
		Body:    "hello",
	})
	require.NoError(t, err)
	require.Equal(t, TaskTypeSendEmail, task.Type())
	require.NoError(t, HandleSendEmailTask(context.Background(), task))
}

func TestSendEmailHandlerSkipsMalformedPayload(t *testing.T) {
	task := asynq.NewTask(TaskTypeSendEmail, []byte("not json"))
	require.ErrorIs(t, HandleSendEmailTask(context.Background(), task), asynq.SkipRetry)
}
