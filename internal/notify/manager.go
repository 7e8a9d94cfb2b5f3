package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"perfgate/internal/alert"
	"perfgate/internal/report"
)

// Config selects the notification providers.
type Config struct {
	SlackEnabled    bool
	SlackToken      string
	SlackChannel    string
	SlackWebhookURL string
	SlackAPIURL     string

	DiscordEnabled    bool
	DiscordWebhookURL string
}

// Manager fans a message out to every configured provider.
type Manager struct {
	notifiers map[string]Notifier
	logger    *slog.Logger
}

// NewManager builds the providers enabled in cfg. A Slack webhook takes
// precedence over a bot token.
func NewManager(cfg Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{notifiers: make(map[string]Notifier), logger: logger}

	if cfg.SlackEnabled {
		switch {
		case cfg.SlackWebhookURL != "":
			m.notifiers["slack"] = NewSlackNotifier(cfg.SlackWebhookURL)
		case cfg.SlackToken != "":
			m.notifiers["slack"] = NewSlackBotNotifier(cfg.SlackToken, cfg.SlackChannel, cfg.SlackAPIURL)
		default:
			logger.Warn("slack enabled without a token or webhook, slack notifications disabled")
		}
	}

	if cfg.DiscordEnabled {
		if cfg.DiscordWebhookURL != "" {
			m.notifiers["discord"] = NewDiscordNotifier(cfg.DiscordWebhookURL)
		} else {
			logger.Warn("discord enabled without a webhook URL, discord notifications disabled")
		}
	}
	return m
}

// Add registers a provider under name, replacing any existing one.
func (m *Manager) Add(name string, n Notifier) {
	m.notifiers[name] = n
}

// Enabled reports whether any provider is configured.
func (m *Manager) Enabled() bool {
	return len(m.notifiers) > 0
}

// Notify sends message to every provider. A failing provider does not stop
// the others; all failures are returned joined.
func (m *Manager) Notify(ctx context.Context, message string) error {
	var errs []error
	for name, n := range m.notifiers {
		if err := n.Notify(ctx, message); err != nil {
			m.logger.Warn("notification failed", "provider", name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		m.logger.Debug("notification sent", "provider", name)
	}
	return errors.Join(errs...)
}

// NotifyAlerts announces the alerts raised for r. Nothing is sent when there
// are none.
func (m *Manager) NotifyAlerts(ctx context.Context, r *report.Report, alerts []alert.Alert) error {
	if len(alerts) == 0 || !m.Enabled() {
		return nil
	}
	return m.Notify(ctx, FormatAlerts(r, alerts))
}

// FormatAlerts renders alerts as a short plain text message.
func FormatAlerts(r *report.Report, alerts []alert.Alert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s in %s on %s/%s", (&alert.AlertsError{Count: len(alerts)}).Error(), r.Project, r.Branch, r.Testbed)
	if r.Hash != "" {
		hash := r.Hash
		if len(hash) > 12 {
			hash = hash[:12]
		}
		fmt.Fprintf(&b, " @ %s", hash)
	}
	for _, a := range alerts {
		b.WriteString("\n- ")
		b.WriteString(a.String())
	}
	return b.String()
}
