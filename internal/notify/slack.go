package notify

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
)

// SlackNotifier posts to a Slack incoming webhook.
type SlackNotifier struct {
	WebhookURL string
}

// NewSlackNotifier creates a new SlackNotifier.
func NewSlackNotifier(webhookURL string) *SlackNotifier {
	return &SlackNotifier{WebhookURL: webhookURL}
}

// Notify sends a message to the configured Slack webhook.
func (s *SlackNotifier) Notify(ctx context.Context, message string) error {
	if s.WebhookURL == "" {
		return fmt.Errorf("slack webhook URL is not configured")
	}
	if err := slack.PostWebhookContext(ctx, s.WebhookURL, &slack.WebhookMessage{Text: message}); err != nil {
		return fmt.Errorf("failed to send slack notification: %w", err)
	}
	return nil
}

// poster is the part of *slack.Client used for bot messages.
type poster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// SlackBotNotifier posts to a channel with a bot token.
type SlackBotNotifier struct {
	client  poster
	channel string
}

// NewSlackBotNotifier creates a notifier for channel. apiURL overrides the
// Slack API endpoint when set and must end in a slash.
func NewSlackBotNotifier(token, channel, apiURL string) *SlackBotNotifier {
	var opts []slack.Option
	if apiURL != "" {
		opts = append(opts, slack.OptionAPIURL(apiURL))
	}
	if channel == "" {
		channel = "#general"
	}
	return &SlackBotNotifier{client: slack.New(token, opts...), channel: channel}
}

// Notify posts message to the notifier's channel.
func (s *SlackBotNotifier) Notify(ctx context.Context, message string) error {
	_, _, err := s.client.PostMessageContext(ctx, s.channel, slack.MsgOptionText(message, false))
	if err != nil {
		return fmt.Errorf("failed to post slack message to %s: %w", s.channel, err)
	}
	return nil
}
