package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajasatyajit/StatusWatch/config"
	"github.com/rajasatyajit/StatusWatch/internal/models"
)

func TestSlack_NotifyStatusChange(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewSlack(server.URL, "#status")
	err := n.NotifyStatusChange(context.Background(),
		models.ServiceStatusSummary{Provider: models.ProviderSlack, Status: models.StatusOperational},
		models.ServiceStatusSummary{Provider: models.ProviderSlack, Name: "Slack", Status: models.StatusIssues, IncidentCount: 2},
	)
	require.NoError(t, err)

	assert.Equal(t, "#status", got["channel"])
	assert.Equal(t, ":red_circle: Slack: Operational → Issues Detected", got["text"])
	assert.NotEmpty(t, got["blocks"])
}

func TestSlack_WebhookError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	err := NewSlack(server.URL, "").NotifyStatusChange(context.Background(),
		models.ServiceStatusSummary{Status: models.StatusOperational},
		models.ServiceStatusSummary{Provider: "acme", Status: models.StatusDegraded},
	)
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	_, ok := New(config.NotifyConfig{}).(Noop)
	assert.True(t, ok)

	_, ok = New(config.NotifyConfig{SlackWebhookURL: "https://hooks.slack.com/services/x"}).(*Slack)
	assert.True(t, ok)

	assert.NoError(t, Noop{}.NotifyStatusChange(context.Background(), models.ServiceStatusSummary{}, models.ServiceStatusSummary{}))
}
