package service

import (
	"context"
	"encoding/json"
	"errors"
	"learnhub_backend/internal/config"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookNotifier(t *testing.T) {
	received := make(chan NotificationEvent, 1)
	var secret string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secret = r.Header.Get("X-Webhook-Secret")
		var e NotificationEvent
		if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		received <- e
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, "s3cret", time.Second)
	err := n.Notify(context.Background(), NotificationEvent{Type: EventCoursePublished, CourseID: "c1", Recipient: "ada@example.com"})
	require.NoError(t, err)

	e := <-received
	assert.Equal(t, EventCoursePublished, e.Type)
	assert.Equal(t, "c1", e.CourseID)
	assert.Empty(t, e.Recipient)
	assert.Equal(t, "s3cret", secret)
}

func TestWebhookNotifierReportsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	err := NewWebhookNotifier(srv.URL, "", time.Second).Notify(context.Background(), NotificationEvent{Type: EventStudentEnrolled})
	assert.Error(t, err)
}

type failingNotifier struct{ err error }

func (n failingNotifier) Notify(context.Context, NotificationEvent) error { return n.err }

func TestMultiNotifierJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	rec := &recordingNotifier{events: make(chan NotificationEvent, 1)}
	err := MultiNotifier{failingNotifier{err: boom}, rec}.Notify(context.Background(), NotificationEvent{Type: EventEnrollmentEnded})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, EventEnrollmentEnded, (<-rec.events).Type)
}

func TestNewNotifier(t *testing.T) {
	assert.IsType(t, NopNotifier{}, NewNotifier(config.NotificationConfig{}))

	n := NewNotifier(config.NotificationConfig{WebhookURL: "http://127.0.0.1:1", TimeoutSeconds: 1})
	multi, ok := n.(MultiNotifier)
	require.True(t, ok)
	assert.Len(t, multi, 1)
}
