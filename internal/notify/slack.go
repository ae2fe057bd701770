package notify

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"

	"github.com/rajasatyajit/StatusWatch/config"
	"github.com/rajasatyajit/StatusWatch/internal/models"
)

// Notifier is told about provider status transitions.
type Notifier interface {
	NotifyStatusChange(ctx context.Context, prev, curr models.ServiceStatusSummary) error
}

// Noop discards notifications.
type Noop struct{}

func (Noop) NotifyStatusChange(ctx context.Context, prev, curr models.ServiceStatusSummary) error {
	return nil
}

// Slack posts transitions to an incoming webhook.
type Slack struct {
	webhookURL string
	channel    string
}

// New returns a Slack notifier when a webhook is configured, Noop otherwise.
func New(cfg config.NotifyConfig) Notifier {
	if cfg.SlackWebhookURL == "" {
		return Noop{}
	}
	return NewSlack(cfg.SlackWebhookURL, cfg.SlackChannel)
}

// NewSlack creates a webhook notifier. channel may be empty to use the
// webhook's default.
func NewSlack(webhookURL, channel string) *Slack {
	return &Slack{webhookURL: webhookURL, channel: channel}
}

func (s *Slack) NotifyStatusChange(ctx context.Context, prev, curr models.ServiceStatusSummary) error {
	text := fmt.Sprintf("%s %s: %s → %s", statusEmoji(curr.Status), displayName(curr), prev.Status, curr.Status)

	msg := &slack.WebhookMessage{
		Channel: s.channel,
		Text:    text,
		Blocks: &slack.Blocks{BlockSet: []slack.Block{
			slack.NewSectionBlock(
				slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("*%s* is now *%s*", displayName(curr), curr.Status), false, false),
				[]*slack.TextBlockObject{
					slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("*Previous*\n%s", prev.Status), false, false),
					slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("*Recent incidents*\n%d", curr.IncidentCount), false, false),
				},
				nil,
			),
		}},
	}

	if err := slack.PostWebhookContext(ctx, s.webhookURL, msg); err != nil {
		return fmt.Errorf("post slack webhook: %w", err)
	}
	return nil
}

func displayName(s models.ServiceStatusSummary) string {
	if s.Name != "" {
		return s.Name
	}
	return string(s.Provider)
}

func statusEmoji(s models.ServiceStatus) string {
	switch s {
	case models.StatusIssues:
		return ":red_circle:"
	case models.StatusDegraded:
		return ":large_orange_circle:"
	case models.StatusMaintenance:
		return ":large_blue_circle:"
	}
	return ":large_green_circle:"
}
